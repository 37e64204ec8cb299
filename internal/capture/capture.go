// Package capture enumerates capturable windows and screens and acquires
// live capture streams for them.
package capture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
)

// Kind distinguishes whole displays from individual windows.
type Kind string

const (
	KindWindow Kind = "window"
	KindScreen Kind = "screen"
)

// DesktopSource is the only video source kind a stream can be acquired for.
const DesktopSource = "desktop"

var (
	ErrNotSupported     = errors.New("screen capture not supported on this platform")
	ErrPermissionDenied = errors.New("screen capture permission denied")
	ErrSourceNotFound   = errors.New("capture source not found")
	ErrAudioUnsupported = errors.New("audio capture is not supported")
	ErrStreamClosed     = errors.New("capture stream closed")
	ErrInvalidSourceID  = errors.New("invalid capture source id")
)

// Source is a capturable window or screen as reported by the platform.
type Source struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

func (s Source) String() string { return fmt.Sprintf("%s (%s)", s.Name, s.ID) }

// VideoConstraints selects the desktop source to capture.
type VideoConstraints struct {
	SourceKind string
	SourceID   string
}

// Constraints is the stream acquisition request.
type Constraints struct {
	Audio bool
	Video VideoConstraints
}

// ConstraintsFor returns video-only constraints for src.
func ConstraintsFor(src Source) Constraints {
	return Constraints{
		Audio: false,
		Video: VideoConstraints{SourceKind: DesktopSource, SourceID: src.ID},
	}
}

// Stream is a live capture bound to one source.
type Stream interface {
	// ID uniquely identifies this acquisition.
	ID() string
	Source() Source
	Bounds() image.Rectangle
	// InputArgs are the ffmpeg demuxer arguments reading this stream.
	InputArgs() []string
	// Frame grabs a single still for previewing.
	Frame() (*image.RGBA, error)
	// Close releases the capture handle. Safe to call more than once.
	Close() error
	Closed() bool
}

// Platform is the host capture service.
type Platform interface {
	// Sources lists capturable sources restricted to kinds (all kinds when empty).
	Sources(ctx context.Context, kinds ...Kind) ([]Source, error)
	// Acquire opens a stream for the source named in c.
	Acquire(ctx context.Context, c Constraints) (Stream, error)
}

// ParseID splits a source ID into kind and platform-local key.
func ParseID(id string) (Kind, string, error) {
	kind, key, ok := strings.Cut(id, ":")
	if !ok || key == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSourceID, id)
	}
	switch Kind(kind) {
	case KindScreen, KindWindow:
		return Kind(kind), key, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidSourceID, id)
	}
}

// ScreenID returns the source ID of display index i.
func ScreenID(i int) string { return fmt.Sprintf("%s:%d", KindScreen, i) }

// WindowID returns the source ID of a platform window key.
func WindowID(key string) string { return fmt.Sprintf("%s:%s", KindWindow, key) }

// ScreenName labels display i of n the way desktop pickers do.
func ScreenName(i, n int) string {
	if n <= 1 {
		return "Entire Screen"
	}
	return fmt.Sprintf("Screen %d", i+1)
}

func wantKind(kinds []Kind, k Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if want == k {
			return true
		}
	}
	return false
}
