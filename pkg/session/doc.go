// Package session runs one duplex voice call at a time: it owns the
// microphone, the speaker, the model channel and the transcript for the
// lifetime of a call and drives them through an explicit state machine.
//
//	IDLE -> CONNECTING -> ACTIVE -> PROCESSING -> ENDED
//	             \           \
//	              +-----------+---> ERROR
//
// A single orchestration goroutine per call consumes the channel's event
// stream and the captured frames. Public commands and that goroutine
// serialize on the controller lock, so every state transition and every
// transcript or record mutation is applied one at a time.
package session
