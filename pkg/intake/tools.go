package intake

import (
	"fmt"
	"strings"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/channel"
)

// Tool names understood by the dispatcher.
const (
	ToolUpdateClientInfo  = "update_client_info"
	ToolUpdateCaseDetails = "update_case_details"
	ToolRequestDocuments  = "request_documents"
	ToolFlagCaseAsUrgent  = "flag_case_as_urgent"
	ToolBookAppointment   = "book_appointment"
	ToolSendFollowUpEmail = "send_follow_up_email"
)

// Handler applies one tool call to the state. Errors are logged by the
// dispatcher; the call is acknowledged either way.
type Handler func(s *State, args map[string]any) error

// Tool pairs a declaration sent to the model with its local effect.
type Tool struct {
	Declaration channel.ToolDeclaration
	Handler     Handler
}

// Tools returns the recognized intake tools. send_follow_up_email has no
// local handler; the dispatcher forwards it.
func Tools() []Tool {
	return []Tool{
		// ============================================================
		// update_client_info - contact details as the caller gives them
		// ============================================================
		{
			Declaration: channel.ToolDeclaration{
				Name:        ToolUpdateClientInfo,
				Description: "Record the caller's contact details as soon as they are given. Call again when the caller corrects a value.",
				Parameters: &channel.Schema{
					Type: channel.TypeObject,
					Properties: map[string]*channel.Schema{
						"name":  {Type: channel.TypeString, Description: "Full name of the caller"},
						"email": {Type: channel.TypeString, Description: "Email address"},
						"phone": {Type: channel.TypeString, Description: "Phone number"},
					},
				},
			},
			Handler: func(s *State, args map[string]any) error {
				name, email, phone := stringArg(args, "name"), stringArg(args, "email"), stringArg(args, "phone")
				if name == "" && email == "" && phone == "" {
					return fmt.Errorf("%w: no contact fields", ErrInvalidArgs)
				}
				s.Update(func(r *ClientRecord) {
					if name != "" {
						r.Name = name
					}
					if email != "" {
						r.Email = email
					}
					if phone != "" {
						r.Phone = phone
					}
				})
				return nil
			},
		},

		// ============================================================
		// update_case_details - running summary of the legal matter
		// ============================================================
		{
			Declaration: channel.ToolDeclaration{
				Name:        ToolUpdateCaseDetails,
				Description: "Store a concise summary of the caller's legal matter. Replace the previous summary with an updated one as details emerge.",
				Parameters: &channel.Schema{
					Type: channel.TypeObject,
					Properties: map[string]*channel.Schema{
						"summary": {Type: channel.TypeString, Description: "Summary of the case"},
					},
					Required: []string{"summary"},
				},
			},
			Handler: func(s *State, args map[string]any) error {
				summary := stringArg(args, "summary")
				if summary == "" {
					return fmt.Errorf("%w: summary is required", ErrInvalidArgs)
				}
				s.Update(func(r *ClientRecord) { r.CaseSummary = summary })
				return nil
			},
		},

		// ============================================================
		// request_documents - documents the firm will need
		// ============================================================
		{
			Declaration: channel.ToolDeclaration{
				Name:        ToolRequestDocuments,
				Description: "List the documents the caller should provide, such as police reports, contracts or court notices.",
				Parameters: &channel.Schema{
					Type: channel.TypeObject,
					Properties: map[string]*channel.Schema{
						"documents": {
							Type:        channel.TypeArray,
							Description: "Names of the requested documents",
							Items:       &channel.Schema{Type: channel.TypeString},
						},
					},
					Required: []string{"documents"},
				},
			},
			Handler: func(s *State, args map[string]any) error {
				docs := stringsArg(args, "documents")
				s.Update(func(r *ClientRecord) { r.RequestedDocuments = docs })
				return nil
			},
		},

		// ============================================================
		// flag_case_as_urgent - deadlines, custody, detention
		// ============================================================
		{
			Declaration: channel.ToolDeclaration{
				Name:        ToolFlagCaseAsUrgent,
				Description: "Flag the case as urgent when the caller mentions an imminent deadline, court date, arrest, eviction or a safety risk.",
				Parameters: &channel.Schema{
					Type: channel.TypeObject,
					Properties: map[string]*channel.Schema{
						"reason": {Type: channel.TypeString, Description: "Why the case is urgent"},
					},
					Required: []string{"reason"},
				},
			},
			Handler: func(s *State, args map[string]any) error {
				s.FlagUrgent(stringArg(args, "reason"))
				return nil
			},
		},

		// ============================================================
		// book_appointment - consultation slot
		// ============================================================
		{
			Declaration: channel.ToolDeclaration{
				Name:        ToolBookAppointment,
				Description: "Book a consultation once the caller agrees on a date and time.",
				Parameters: &channel.Schema{
					Type: channel.TypeObject,
					Properties: map[string]*channel.Schema{
						"dateTime": {Type: channel.TypeString, Description: "Agreed date and time, ISO 8601 when possible"},
						"fullName": {Type: channel.TypeString, Description: "Name the appointment is booked under"},
					},
					Required: []string{"dateTime"},
				},
			},
			Handler: func(s *State, args map[string]any) error {
				when := stringArg(args, "dateTime")
				if when == "" {
					return fmt.Errorf("%w: dateTime is required", ErrInvalidArgs)
				}
				name := stringArg(args, "fullName")
				s.Update(func(r *ClientRecord) {
					r.Appointment = when
					if name != "" {
						r.Name = name
					}
				})
				return nil
			},
		},

		// ============================================================
		// send_follow_up_email - handed to the forwarder
		// ============================================================
		{
			Declaration: channel.ToolDeclaration{
				Name:        ToolSendFollowUpEmail,
				Description: "Send the caller a follow-up email summarising next steps and any requested documents.",
				Parameters: &channel.Schema{
					Type: channel.TypeObject,
					Properties: map[string]*channel.Schema{
						"email":   {Type: channel.TypeString, Description: "Recipient address; defaults to the caller's email"},
						"subject": {Type: channel.TypeString, Description: "Email subject"},
						"body":    {Type: channel.TypeString, Description: "Email body"},
					},
				},
			},
		},
	}
}

// Declarations returns the tool declarations to send when opening a
// session.
func Declarations() []channel.ToolDeclaration {
	tools := Tools()
	out := make([]channel.ToolDeclaration, 0, len(tools))
	for _, t := range tools {
		out = append(out, t.Declaration)
	}
	return out
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

// stringsArg accepts a JSON array or a single comma separated string.
func stringsArg(args map[string]any, key string) []string {
	var out []string
	switch v := args[key].(type) {
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case []string:
		for _, s := range v {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	}
	return out
}
