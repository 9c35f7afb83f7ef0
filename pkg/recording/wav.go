// Package recording keeps an audio record of the caller's side of a call.
package recording

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/Dr-Spaghetti/AI-STUDIO-LEGAL-ASSISTANT-sub000/pkg/audioio"
)

// ErrStopped indicates the recorder was already stopped.
var ErrStopped = errors.New("recording: recorder stopped")

const wavHeaderSize = 44

// WAVRecorder streams PCM16 frames to a temporary file as they arrive.
// Stop patches the WAV header with the final sizes and moves the file
// into place.
type WAVRecorder struct {
	path   string
	logger *slog.Logger

	mu       sync.Mutex
	file     *os.File
	w        *bufio.Writer
	n        int
	rate     int
	channels int
	err      error
	stopped  bool
}

// NewWAVRecorder creates a recorder that writes to path.
func NewWAVRecorder(path string, logger *slog.Logger) *WAVRecorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &WAVRecorder{
		path:   path,
		logger: logger.With("component", "recording"),
	}
}

// Dir returns a factory that records each call to <dir>/<id>.wav.
func Dir(dir string, logger *slog.Logger) func(id string) (*WAVRecorder, error) {
	return func(id string) (*WAVRecorder, error) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("recording: create directory: %w", err)
		}
		return NewWAVRecorder(filepath.Join(dir, id+".wav"), logger), nil
	}
}

// Path returns the output file path.
func (r *WAVRecorder) Path() string {
	return r.path
}

// Write appends f. Frames after Stop or after a write error, and frames
// in a different format than the first frame, are dropped.
func (r *WAVRecorder) Write(f audioio.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || r.err != nil || f.Len() == 0 {
		return
	}
	if r.file == nil {
		if err := r.openLocked(f.SampleRate(), f.Channels()); err != nil {
			r.failLocked(err)
			return
		}
	}
	if f.SampleRate() != r.rate || f.Channels() != r.channels {
		r.logger.Debug("dropping frame with mismatched format", "sample_rate", f.SampleRate())
		return
	}

	b := f.Bytes()
	if _, err := r.w.Write(b); err != nil {
		r.failLocked(fmt.Errorf("recording: write file: %w", err))
		return
	}
	r.n += len(b)
}

// Len returns the number of PCM bytes recorded so far.
func (r *WAVRecorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// Stop finalizes the file. Nothing is written when no audio was recorded.
// A write error seen during the call is returned here.
func (r *WAVRecorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrStopped
	}
	r.stopped = true
	if r.file == nil {
		return r.err
	}

	tmp := r.file.Name()
	if err := r.w.Flush(); err != nil {
		r.discardLocked()
		return fmt.Errorf("recording: write file: %w", err)
	}
	if _, err := r.file.WriteAt(wavHeader(r.n, r.rate, r.channels), 0); err != nil {
		r.discardLocked()
		return fmt.Errorf("recording: write header: %w", err)
	}
	err := r.file.Close()
	r.file = nil
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("recording: close file: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("recording: rename file: %w", err)
	}

	r.logger.Info("call recording saved", "path", r.path, "bytes", r.n)
	return nil
}

// openLocked creates the temporary file and reserves the header.
func (r *WAVRecorder) openLocked(sampleRate, channels int) error {
	f, err := os.Create(r.path + ".tmp")
	if err != nil {
		return fmt.Errorf("recording: create file: %w", err)
	}
	r.file = f
	r.w = bufio.NewWriter(f)
	r.rate = sampleRate
	r.channels = channels
	if _, err := r.w.Write(wavHeader(0, sampleRate, channels)); err != nil {
		return fmt.Errorf("recording: write header: %w", err)
	}
	return nil
}

func (r *WAVRecorder) failLocked(err error) {
	r.logger.Warn("call recording disabled", "error", err)
	r.err = err
	r.discardLocked()
}

func (r *WAVRecorder) discardLocked() {
	if r.file == nil {
		return
	}
	name := r.file.Name()
	r.file.Close()
	os.Remove(name)
	r.file = nil
	r.w = nil
}

// wavHeader returns a canonical 44-byte PCM16 header for dataLen bytes.
func wavHeader(dataLen, sampleRate, channels int) []byte {
	const bitsPerSample = 16
	blockAlign := channels * bitsPerSample / 8

	header := make([]byte, wavHeaderSize)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataLen))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(sampleRate*blockAlign))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], bitsPerSample)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataLen))
	return header
}
