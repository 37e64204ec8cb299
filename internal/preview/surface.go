// Package preview shows a live, low-rate view of the selected capture stream.
package preview

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"log/slog"
	"sync"
	"time"

	"github.com/corona10/goimagehash"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/syncx"
)

// Stats counts preview work.
type Stats struct {
	Published uint64
	Skipped   uint64
	Failed    uint64
}

// Surface is the preview target a stream is attached to.
type Surface struct {
	rate float64

	mu       sync.Mutex
	stream   capture.Stream
	cancel   context.CancelFunc
	done     chan struct{}
	lastHash *goimagehash.ImageHash

	latest *syncx.Guard[[]byte]
	stats  *syncx.Guard[Stats]
}

// NewSurface creates a surface refreshing at rate Hz.
func NewSurface(rate float64) *Surface {
	if rate <= 0 {
		rate = DefaultRate
	}
	return &Surface{
		rate:   rate,
		latest: syncx.NewGuard[[]byte](nil),
		stats:  syncx.NewGuard(Stats{}),
	}
}

// Attach binds stream as the preview source, replacing (and stopping) any
// previous one.
func (s *Surface) Attach(stream capture.Stream) {
	s.Detach()
	s.mu.Lock()
	s.stream = stream
	s.lastHash = nil
	s.mu.Unlock()
}

// Play starts refreshing from the attached stream. It publishes one frame
// immediately. Playing twice is a no-op.
func (s *Surface) Play(ctx context.Context) {
	s.mu.Lock()
	if s.stream == nil || s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	stream, done := s.stream, s.done
	s.mu.Unlock()

	go s.run(ctx, stream, done)
}

// Detach stops playback and clears the preview.
func (s *Surface) Detach() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done, s.stream = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.latest.Set(nil)
}

// Playing reports whether a stream is attached and refreshing.
func (s *Surface) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Latest returns the most recent preview frame as JPEG, or nil.
func (s *Surface) Latest() []byte { return s.latest.Get() }

// Stats returns preview counters.
func (s *Surface) Stats() Stats { return s.stats.Get() }

func (s *Surface) run(ctx context.Context, stream capture.Stream, done chan struct{}) {
	defer close(done)

	interval := time.Duration(float64(time.Second) / s.rate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.refresh(stream)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if stream.Closed() {
				return
			}
			s.refresh(stream)
		}
	}
}

func (s *Surface) refresh(stream capture.Stream) {
	img, err := stream.Frame()
	if err != nil {
		s.stats.Update(func(st *Stats) { st.Failed++ })
		slog.Debug("preview frame failed", "stream", stream.ID(), "error", err)
		return
	}
	if s.shouldSkip(img) {
		s.stats.Update(func(st *Stats) { st.Skipped++ })
		return
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
		s.stats.Update(func(st *Stats) { st.Failed++ })
		return
	}
	s.latest.Set(buf.Bytes())
	s.stats.Update(func(st *Stats) { st.Published++ })
}

// shouldSkip computes the pHash of img and returns true if it is within
// MaxHashDistance of the last published frame.
func (s *Surface) shouldSkip(img image.Image) bool {
	hash, err := goimagehash.PerceptionHash(img)
	if err != nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastHash == nil {
		s.lastHash = hash
		return false
	}
	dist, err := s.lastHash.Distance(hash)
	if err != nil {
		s.lastHash = hash
		return false
	}
	if dist <= MaxHashDistance {
		return true
	}
	s.lastHash = hash
	return false
}
