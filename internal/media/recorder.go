// Package media records capture streams into encoded chunks.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/GriffinCanCode/screenrec/internal/capture"
)

// State is the recorder lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRecording
)

func (s State) String() string {
	if s == StateRecording {
		return "recording"
	}
	return "idle"
}

// ErrClosed is returned by Start after Close.
var ErrClosed = errors.New("recorder closed")

// Options configures a Recorder.
type Options struct {
	MimeType  string
	ChunkSize int
}

// Recorder is bound to one stream and emits encoded chunks while recording.
// Chunks and the stop notification are delivered on the recorder's own
// goroutine; the stop callback always follows the last chunk of a recording.
type Recorder struct {
	stream    capture.Stream
	encoder   Encoder
	format    Format
	chunkSize int

	mu      sync.Mutex
	state   State
	proc    Process
	done    chan struct{} // closed once the current encode is fully delivered
	closed  bool
	lastErr error
	onData  func([]byte)
	onStop  func()
}

// NewRecorder creates an idle recorder for stream.
func NewRecorder(stream capture.Stream, enc Encoder, opts Options) (*Recorder, error) {
	if opts.MimeType == "" {
		opts.MimeType = MimeTypeWebMVP9
	}
	f, err := ParseMimeType(opts.MimeType)
	if err != nil {
		return nil, err
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Recorder{stream: stream, encoder: enc, format: f, chunkSize: opts.ChunkSize}, nil
}

// OnDataAvailable registers the chunk callback.
func (r *Recorder) OnDataAvailable(fn func([]byte)) {
	r.mu.Lock()
	r.onData = fn
	r.mu.Unlock()
}

// OnStop registers the stop callback.
func (r *Recorder) OnStop(fn func()) {
	r.mu.Lock()
	r.onStop = fn
	r.mu.Unlock()
}

// MimeType returns the declared output media type.
func (r *Recorder) MimeType() string { return r.format.MimeType }

// State returns the current lifecycle state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the encoder error of the last finished recording, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

// Start moves idle → recording. Starting while recording is a no-op. If the
// previous recording is still flushing, Start waits for its stop callback.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	if r.state == StateRecording {
		r.mu.Unlock()
		return nil
	}
	prev := r.done
	r.mu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	if r.state == StateRecording {
		return nil
	}
	proc, err := r.encoder.Encode(ctx, r.stream, r.format)
	if err != nil {
		return fmt.Errorf("start encoder: %w", err)
	}
	r.state = StateRecording
	r.proc = proc
	r.lastErr = nil
	r.done = make(chan struct{})
	go r.pump(proc, r.done)
	slog.Debug("recording started", "stream", r.stream.ID())
	return nil
}

// Stop moves recording → idle and asks the encoder to finish. The stop
// callback fires asynchronously once the remaining chunks are delivered.
// Stopping an idle recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return nil
	}
	proc := r.proc
	r.state = StateIdle
	r.mu.Unlock()

	if err := proc.Stop(); err != nil {
		slog.Debug("encoder stop request failed", "error", err)
	}
	slog.Debug("recording stopped", "stream", r.stream.ID())
	return nil
}

// Close stops any recording without notifying callbacks and waits for the
// encoder to exit. The recorder cannot be restarted afterwards.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.onData = nil
	r.onStop = nil
	proc, done := r.proc, r.done
	recording := r.state == StateRecording
	r.state = StateIdle
	r.mu.Unlock()

	if recording {
		_ = proc.Stop()
	}
	if done != nil {
		<-done
	}
	return nil
}

// pump delivers encoder output as chunks, then the stop notification.
func (r *Recorder) pump(proc Process, done chan struct{}) {
	defer close(done)

	out := proc.Output()
	buf := make([]byte, r.chunkSize)
	for {
		n, err := io.ReadFull(out, buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			r.deliver(chunk)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
				slog.Warn("encoder output read failed", "error", err)
			}
			break
		}
	}
	waitErr := proc.Wait()

	r.mu.Lock()
	if r.proc == proc {
		if r.state == StateRecording {
			// encoder exited on its own
			slog.Warn("encoder exited while recording", "stream", r.stream.ID(), "error", waitErr)
			r.state = StateIdle
		}
		r.proc = nil
	}
	r.lastErr = waitErr
	onStop := r.onStop
	r.mu.Unlock()

	if onStop != nil {
		onStop()
	}
}

func (r *Recorder) deliver(chunk []byte) {
	r.mu.Lock()
	onData := r.onData
	r.mu.Unlock()
	if onData != nil {
		onData(chunk)
	}
}
