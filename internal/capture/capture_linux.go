//go:build linux

package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
)

type linuxBackend struct{ display string }

func (l *linuxBackend) name() string { return "x11" }

func (l *linuxBackend) listWindows(ctx context.Context) ([]window, error) {
	if _, err := exec.LookPath("wmctrl"); err != nil {
		slog.Warn("wmctrl not found, only screens can be captured (install wmctrl)")
		return nil, nil
	}
	cmd := exec.CommandContext(ctx, "wmctrl", "-lG")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("wmctrl: %w: %s", err, stderr.String())
	}
	return parseWmctrl(string(out)), nil
}

func (l *linuxBackend) screenInput(_ int, b image.Rectangle) []string {
	return []string{
		"-f", "x11grab",
		"-video_size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"-i", fmt.Sprintf("%s+%d,%d", l.display, b.Min.X, b.Min.Y),
	}
}

func (l *linuxBackend) windowInput(w window) []string {
	return []string{"-f", "x11grab", "-window_id", w.Key, "-i", l.display}
}

// New creates the platform capture service.
func New() Platform {
	display := os.Getenv("DISPLAY")
	if display == "" {
		display = ":0.0"
	}
	return newDesktop(&linuxBackend{display: display})
}
