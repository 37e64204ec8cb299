//go:build darwin

package capture

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"sync"
)

type darwinBackend struct{ warnOnce sync.Once }

func (d *darwinBackend) name() string { return "avfoundation" }

// listWindows returns nothing: avfoundation can only grab whole displays.
func (d *darwinBackend) listWindows(context.Context) ([]window, error) {
	d.warnOnce.Do(func() { slog.Warn("window capture is not available on macOS, listing screens only") })
	return nil, nil
}

func (d *darwinBackend) screenInput(index int, _ image.Rectangle) []string {
	return []string{"-f", "avfoundation", "-capture_cursor", "1", "-i", fmt.Sprintf("Capture screen %d:none", index)}
}

func (d *darwinBackend) windowInput(window) []string { return nil }

// New creates the platform capture service.
func New() Platform {
	return newDesktop(&darwinBackend{})
}
