package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/hub"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/intake"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/session"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/settings"
	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/transcript"
)

// EventSnapshot is the websocket envelope type of controller snapshots.
const EventSnapshot = "snapshot"

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	ID              string         `json:"id,omitempty"`
	State           session.State  `json:"state"`
	Error           string         `json:"error,omitempty"`
	Urgency         intake.Urgency `json:"urgency"`
	PendingPlayback int            `json:"pendingPlayback"`
	HasReport       bool           `json:"hasReport"`
	Clients         int            `json:"clients"`
}

// TranscriptResponse is returned by GET /api/transcript.
type TranscriptResponse struct {
	Turns            []transcript.Turn `json:"turns"`
	Text             string            `json:"text"`
	PendingCaller    string            `json:"pendingCaller,omitempty"`
	PendingAssistant string            `json:"pendingAssistant,omitempty"`
}

// RecordResponse is returned by GET /api/record.
type RecordResponse struct {
	Record  intake.ClientRecord `json:"record"`
	Urgency intake.Urgency      `json:"urgency"`
}

func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Type("html")
	return c.Send(indexHTML)
}

// handleStatus returns the call state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	snap := s.ctrl.Snapshot()
	return c.JSON(StatusResponse{
		ID:              snap.ID,
		State:           snap.State,
		Error:           snap.Error,
		Urgency:         snap.Urgency,
		PendingPlayback: snap.PendingPlayback,
		HasReport:       snap.Report != nil,
		Clients:         s.events.ClientCount(),
	})
}

// handleTranscript returns the committed turns and the text in progress
func (s *Server) handleTranscript(c *fiber.Ctx) error {
	snap := s.ctrl.Snapshot()
	turns := snap.Transcript
	if turns == nil {
		turns = []transcript.Turn{}
	}
	return c.JSON(TranscriptResponse{
		Turns:            turns,
		Text:             transcript.Format(turns),
		PendingCaller:    snap.PendingCaller,
		PendingAssistant: snap.PendingAssistant,
	})
}

// handleRecord returns the client record gathered so far
func (s *Server) handleRecord(c *fiber.Ctx) error {
	snap := s.ctrl.Snapshot()
	return c.JSON(RecordResponse{Record: snap.Record, Urgency: snap.Urgency})
}

// handleStartCall starts a call with the stored settings
func (s *Server) handleStartCall(c *fiber.Ctx) error {
	if err := s.ctrl.Start(c.UserContext(), s.store.Get()); err != nil {
		return callError(err)
	}
	return c.Status(fiber.StatusAccepted).JSON(s.ctrl.Snapshot())
}

// handleEndCall ends the running call
func (s *Server) handleEndCall(c *fiber.Ctx) error {
	if err := s.ctrl.End(); err != nil {
		return callError(err)
	}
	return c.JSON(s.ctrl.Snapshot())
}

// handleReport generates the case report for the last call
func (s *Server) handleReport(c *fiber.Ctx) error {
	rep, err := s.ctrl.GenerateReport(c.UserContext())
	if err != nil {
		return callError(err)
	}
	return c.JSON(rep)
}

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.store.Get())
}

// handleUpdateSettings replaces the settings. They apply from the next call.
func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var next settings.Settings
	if err := c.BodyParser(&next); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid settings body: "+err.Error())
	}

	saved, err := s.store.Update(next)
	if err != nil {
		if settings.IsValidationError(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return err
	}
	s.logger.Info("settings updated", "revision", saved.Revision)
	return c.JSON(saved)
}

// handleEventsWS streams controller snapshots
func (s *Server) handleEventsWS(c *websocket.Conn) {
	client := hub.NewClient(s.events, c)
	if client == nil {
		c.Close()
		return
	}
	client.Run()
}

// callError maps controller errors onto HTTP statuses.
func callError(err error) error {
	var se *session.StartError
	switch {
	case errors.Is(err, session.ErrAlreadyRunning),
		errors.Is(err, session.ErrProcessing),
		errors.Is(err, session.ErrInvalidState),
		errors.Is(err, session.ErrCancelled):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, session.ErrClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, session.ErrNoGenerator):
		return fiber.NewError(fiber.StatusNotImplemented, err.Error())
	case errors.As(err, &se):
		if se.Phase == session.PhasePreflight {
			return fiber.NewError(fiber.StatusServiceUnavailable, se.Reason)
		}
		return fiber.NewError(fiber.StatusBadGateway, se.Reason)
	default:
		return fiber.NewError(fiber.StatusBadGateway, err.Error())
	}
}
