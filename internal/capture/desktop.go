//go:build linux || darwin || windows

package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/kbinani/screenshot"
)

// backend implements the platform-specific parts of enumeration and stream input.
type backend interface {
	name() string
	listWindows(ctx context.Context) ([]window, error)
	screenInput(index int, bounds image.Rectangle) []string
	windowInput(w window) []string
}

// desktop provides shared enumeration and acquisition on top of a backend.
type desktop struct {
	backend
	displays func() []image.Rectangle
	grab     func(image.Rectangle) (*image.RGBA, error)
}

func newDesktop(b backend) *desktop {
	return &desktop{backend: b, displays: activeDisplays, grab: screenshot.CaptureRect}
}

func activeDisplays() []image.Rectangle {
	n := screenshot.NumActiveDisplays()
	rects := make([]image.Rectangle, 0, n)
	for i := 0; i < n; i++ {
		rects = append(rects, screenshot.GetDisplayBounds(i))
	}
	return rects
}

func (d *desktop) Sources(ctx context.Context, kinds ...Kind) ([]Source, error) {
	var sources []Source
	if wantKind(kinds, KindScreen) {
		displays := d.displays()
		for i := range displays {
			sources = append(sources, Source{ID: ScreenID(i), Name: ScreenName(i, len(displays)), Kind: KindScreen})
		}
	}
	if wantKind(kinds, KindWindow) {
		wins, err := d.listWindows(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: list windows: %w", d.name(), err)
		}
		for _, w := range wins {
			sources = append(sources, Source{ID: WindowID(w.Key), Name: w.Title, Kind: KindWindow})
		}
	}
	if len(sources) == 0 && wantKind(kinds, KindScreen) {
		return nil, ErrPermissionDenied
	}
	return sources, nil
}

func (d *desktop) Acquire(ctx context.Context, c Constraints) (Stream, error) {
	if c.Audio {
		return nil, ErrAudioUnsupported
	}
	if c.Video.SourceKind != DesktopSource {
		return nil, fmt.Errorf("%w: source kind %q", ErrInvalidSourceID, c.Video.SourceKind)
	}
	kind, key, err := ParseID(c.Video.SourceID)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindScreen:
		idx, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSourceID, c.Video.SourceID)
		}
		displays := d.displays()
		if idx < 0 || idx >= len(displays) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, c.Video.SourceID)
		}
		src := Source{ID: c.Video.SourceID, Name: ScreenName(idx, len(displays)), Kind: KindScreen}
		return d.open(src, displays[idx], d.screenInput(idx, displays[idx])), nil
	default:
		wins, err := d.listWindows(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: list windows: %w", d.name(), err)
		}
		for _, w := range wins {
			if w.Key == key {
				src := Source{ID: c.Video.SourceID, Name: w.Title, Kind: KindWindow}
				return d.open(src, w.Bounds, d.windowInput(w)), nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, c.Video.SourceID)
	}
}

func (d *desktop) open(src Source, bounds image.Rectangle, input []string) *desktopStream {
	s := &desktopStream{
		id:     uuid.NewString(),
		source: src,
		bounds: bounds,
		input:  input,
		grab:   d.grab,
	}
	slog.Debug("capture stream acquired", "stream", s.id, "source", src.ID, "backend", d.name())
	return s
}

// desktopStream is a capture handle on a display region or window.
type desktopStream struct {
	id     string
	source Source
	bounds image.Rectangle
	input  []string
	grab   func(image.Rectangle) (*image.RGBA, error)
	closed atomic.Bool
}

func (s *desktopStream) ID() string              { return s.id }
func (s *desktopStream) Source() Source          { return s.source }
func (s *desktopStream) Bounds() image.Rectangle { return s.bounds }
func (s *desktopStream) Closed() bool            { return s.closed.Load() }

func (s *desktopStream) InputArgs() []string {
	return append([]string(nil), s.input...)
}

func (s *desktopStream) Frame() (*image.RGBA, error) {
	if s.closed.Load() {
		return nil, ErrStreamClosed
	}
	if s.bounds.Empty() {
		return nil, fmt.Errorf("%s: no preview geometry", s.source.ID)
	}
	return s.grab(s.bounds)
}

func (s *desktopStream) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		slog.Debug("capture stream released", "stream", s.id, "source", s.source.ID)
	}
	return nil
}
