// Package audioio holds the audio value types shared by capture, playback
// and the session channel, and the pure transforms between them.
//
// Captured audio is 16 kHz mono linear PCM; synthesized audio arrives as
// 24 kHz mono linear PCM. On the wire both travel as base64 text tagged with
// a MIME string that embeds the sample rate, e.g. "audio/pcm;rate=16000".
//
// Frame is the immutable int16 representation used on the capture side.
// Buffer is the decoded, normalized float representation the playback
// scheduler consumes, deinterleaved into one slice per channel.
package audioio
