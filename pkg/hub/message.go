// Package hub provides a thread-safe websocket broadcast hub
// using the idiomatic Go channel-based fan-out pattern.
package hub

import "encoding/json"

// Message is one JSON frame sent to every client.
type Message struct {
	Data []byte
}

// Envelope is the JSON shape of a published event.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// NewMessage encodes an envelope of the given type.
func NewMessage(kind string, v any) (Message, error) {
	data, err := json.Marshal(Envelope{Type: kind, Data: v})
	if err != nil {
		return Message{}, err
	}
	return Message{Data: data}, nil
}
