// Package capture turns a microphone (or any device delivering normalized
// float samples) into a stream of fixed-size 16-bit PCM frames.
//
// A Device is acquired with an Opener, which fails fast with a *DeviceError
// when the hardware cannot be used. A Stage then frames the device's sample
// callbacks into audioio.Frame values of exactly Config.BlockSize samples per
// channel and hands them to the caller over a buffered channel. The device
// callback never blocks: if the consumer falls behind, frames are dropped and
// counted.
//
// Backends:
//
//   - MalgoDevice: local microphone through miniaudio
//   - RTPDevice: Opus over RTP from a telephony or WebRTC gateway
//   - MockDevice: synthetic tone or silence for tests and demos
package capture
