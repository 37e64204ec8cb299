//go:build windows

package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
)

const listWindowsScript = `Get-Process | Where-Object { $_.MainWindowTitle } | ForEach-Object { "$($_.Id)` + "`t" + `$($_.MainWindowTitle)" }`

type windowsBackend struct{}

func (w *windowsBackend) name() string { return "gdigrab" }

func (w *windowsBackend) listWindows(ctx context.Context) ([]window, error) {
	cmd := exec.CommandContext(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", listWindowsScript)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("powershell: %w: %s", err, stderr.String())
	}
	return parseProcessWindows(string(out)), nil
}

func (w *windowsBackend) screenInput(_ int, b image.Rectangle) []string {
	return []string{
		"-f", "gdigrab",
		"-offset_x", fmt.Sprint(b.Min.X),
		"-offset_y", fmt.Sprint(b.Min.Y),
		"-video_size", fmt.Sprintf("%dx%d", b.Dx(), b.Dy()),
		"-i", "desktop",
	}
}

func (w *windowsBackend) windowInput(win window) []string {
	return []string{"-f", "gdigrab", "-i", "title=" + win.Title}
}

// New creates the platform capture service.
func New() Platform {
	return newDesktop(&windowsBackend{})
}
