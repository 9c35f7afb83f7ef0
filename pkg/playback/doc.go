// Package playback schedules decoded response audio for gapless,
// back-to-back playback against an audio clock.
//
// The Scheduler keeps a virtual write cursor in audio-clock seconds. Each
// enqueued buffer starts exactly where the previous one ended, no matter how
// irregularly the chunks arrive from the network. When the cursor has fallen
// behind the clock (the assistant was silent), it snaps forward to "now",
// optionally plus a humanizing response delay.
//
// Interrupt is a hard stop for barge-in: every scheduled buffer is cut off
// and the cursor returns to zero.
//
// A Destination supplies the clock and does the actual mixing. Timeline is a
// sample-accurate software mixer whose clock advances only as audio is
// rendered; OtoDestination drives a Timeline from the system speaker.
package playback
