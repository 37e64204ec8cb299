package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/capture"
)

type fakeStream struct{ closed bool }

func (s *fakeStream) ID() string                  { return "stream-1" }
func (s *fakeStream) Source() capture.Source      { return capture.Source{ID: "screen:0", Name: "Entire Screen", Kind: capture.KindScreen} }
func (s *fakeStream) Bounds() image.Rectangle     { return image.Rect(0, 0, 640, 480) }
func (s *fakeStream) InputArgs() []string         { return []string{"-f", "lavfi", "-i", "testsrc"} }
func (s *fakeStream) Frame() (*image.RGBA, error) { return image.NewRGBA(s.Bounds()), nil }
func (s *fakeStream) Closed() bool                { return s.closed }

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeProcess struct {
	r       *io.PipeReader
	w       *io.PipeWriter
	waitErr error
	stops   int
	mu      sync.Mutex
}

func (p *fakeProcess) Output() io.Reader { return p.r }

func (p *fakeProcess) Stop() error {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
	return p.w.Close()
}

func (p *fakeProcess) Wait() error { return p.waitErr }

type fakeEncoder struct {
	mu    sync.Mutex
	procs []*fakeProcess
	err   error
}

func (e *fakeEncoder) Encode(context.Context, capture.Stream, Format) (Process, error) {
	if e.err != nil {
		return nil, e.err
	}
	r, w := io.Pipe()
	p := &fakeProcess{r: r, w: w}
	e.mu.Lock()
	e.procs = append(e.procs, p)
	e.mu.Unlock()
	return p, nil
}

func (e *fakeEncoder) last() *fakeProcess {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.procs[len(e.procs)-1]
}

// collector records callback order.
type collector struct {
	mu     sync.Mutex
	chunks [][]byte
	events []string
	stopCh chan struct{}
}

func newCollector(r *Recorder) *collector {
	c := &collector{stopCh: make(chan struct{}, 4)}
	r.OnDataAvailable(func(b []byte) {
		c.mu.Lock()
		c.chunks = append(c.chunks, b)
		c.events = append(c.events, "data")
		c.mu.Unlock()
	})
	r.OnStop(func() {
		c.mu.Lock()
		c.events = append(c.events, "stop")
		c.mu.Unlock()
		c.stopCh <- struct{}{}
	})
	return c
}

func (c *collector) waitStop(t *testing.T) {
	t.Helper()
	select {
	case <-c.stopCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stop callback")
	}
}

func newTestRecorder(t *testing.T, enc Encoder) *Recorder {
	t.Helper()
	r, err := NewRecorder(&fakeStream{}, enc, Options{ChunkSize: 2})
	if err != nil {
		t.Fatalf("NewRecorder error: %v", err)
	}
	return r
}

func TestRecorderLifecycle(t *testing.T) {
	enc := &fakeEncoder{}
	r := newTestRecorder(t, enc)
	c := newCollector(r)

	if r.State() != StateIdle {
		t.Fatalf("initial state = %v, want idle", r.State())
	}
	if r.MimeType() != MimeTypeWebMVP9 {
		t.Errorf("MimeType() = %q, want %q", r.MimeType(), MimeTypeWebMVP9)
	}

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if r.State() != StateRecording {
		t.Fatalf("state = %v, want recording", r.State())
	}

	p := enc.last()
	_, _ = p.w.Write([]byte("b1"))
	_, _ = p.w.Write([]byte("b2"))

	if err := r.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if r.State() != StateIdle {
		t.Errorf("state after Stop = %v, want idle", r.State())
	}
	c.waitStop(t)

	c.mu.Lock()
	defer c.mu.Unlock()
	if got := bytes.Join(c.chunks, nil); string(got) != "b1b2" {
		t.Errorf("chunks = %q, want %q", got, "b1b2")
	}
	if last := c.events[len(c.events)-1]; last != "stop" {
		t.Errorf("events = %v, stop should come last", c.events)
	}
}

func TestRecorderStartTwiceIsNoop(t *testing.T) {
	enc := &fakeEncoder{}
	r := newTestRecorder(t, enc)

	_ = r.Start(context.Background())
	_ = r.Start(context.Background())

	if n := len(enc.procs); n != 1 {
		t.Errorf("encoder started %d times, want 1", n)
	}
	if r.State() != StateRecording {
		t.Errorf("state = %v, want recording", r.State())
	}
	_ = r.Close()
}

func TestRecorderStopWhenIdle(t *testing.T) {
	r := newTestRecorder(t, &fakeEncoder{})
	c := newCollector(r)

	if err := r.Stop(); err != nil {
		t.Errorf("Stop on idle = %v, want nil", err)
	}
	select {
	case <-c.stopCh:
		t.Error("stop callback should not fire for an idle recorder")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRecorderEncoderCrash(t *testing.T) {
	enc := &fakeEncoder{}
	r := newTestRecorder(t, enc)
	c := newCollector(r)

	_ = r.Start(context.Background())
	p := enc.last()
	p.waitErr = errors.New("exit status 1")
	_, _ = p.w.Write([]byte("xx"))
	_ = p.w.Close()

	c.waitStop(t)
	if r.State() != StateIdle {
		t.Errorf("state after crash = %v, want idle", r.State())
	}
	if r.Err() == nil {
		t.Error("Err() should report the encoder failure")
	}
}

func TestRecorderRestartAfterStop(t *testing.T) {
	enc := &fakeEncoder{}
	r := newTestRecorder(t, enc)
	c := newCollector(r)

	_ = r.Start(context.Background())
	_, _ = enc.last().w.Write([]byte("a1"))
	_ = r.Stop()
	c.waitStop(t)

	if err := r.Start(context.Background()); err != nil {
		t.Fatalf("second Start error: %v", err)
	}
	_, _ = enc.last().w.Write([]byte("c1"))
	_ = r.Stop()
	c.waitStop(t)

	if n := len(enc.procs); n != 2 {
		t.Errorf("encoder started %d times, want 2", n)
	}
}

func TestRecorderCloseSuppressesCallbacks(t *testing.T) {
	enc := &fakeEncoder{}
	r := newTestRecorder(t, enc)
	c := newCollector(r)

	_ = r.Start(context.Background())
	if err := r.Close(); err != nil {
		t.Fatalf("Close error: %v", err)
	}
	select {
	case <-c.stopCh:
		t.Error("stop callback should not fire after Close")
	case <-time.After(50 * time.Millisecond):
	}
	if err := r.Start(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Start after Close = %v, want ErrClosed", err)
	}
}

func TestRecorderEncoderStartFailure(t *testing.T) {
	r := newTestRecorder(t, &fakeEncoder{err: errors.New("no ffmpeg")})

	if err := r.Start(context.Background()); err == nil {
		t.Fatal("Start should fail when the encoder cannot start")
	}
	if r.State() != StateIdle {
		t.Errorf("state = %v, want idle", r.State())
	}
}

func TestNewRecorderRejectsMimeType(t *testing.T) {
	if _, err := NewRecorder(&fakeStream{}, &fakeEncoder{}, Options{MimeType: "video/mp4"}); err == nil {
		t.Error("NewRecorder should reject non-webm types")
	}
}
