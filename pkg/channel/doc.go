// Package channel is the duplex transport between a call and the hosted
// streaming model.
//
// A Dialer opens a Channel with a SessionConfig (persona, system prompt,
// tool declarations, transcription modes). The Channel accepts outbound
// audio packets and tool results, and delivers inbound traffic as an ordered
// stream of Events on Events():
//
//	Opened            session accepted, audio may flow
//	AudioChunk        a block of synthesized speech
//	InputTranscript   partial transcript of the caller
//	OutputTranscript  partial transcript of the assistant
//	ToolCalls         function calls that must each be acknowledged
//	Interrupted       the caller barged in over the assistant
//	TurnComplete      the model finished its turn
//	ErrorEvent        the session failed
//	Closed            the session ended; always the last event
//
// Events is closed after Closed has been delivered or after Close.
//
// Two transports speak the Gemini Live protocol: WSDialer over a raw
// websocket, and GenAIDialer through the google.golang.org/genai SDK.
// Mock is an in-memory Channel for tests.
package channel
