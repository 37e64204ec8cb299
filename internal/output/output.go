package output

import (
	"fmt"
	"io"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/capture"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) SourceListHeader() {
	fmt.Fprintf(f.w, "🖥️  Sources:\n\n")
}

func (f *Formatter) SourceListItem(src capture.Source) {
	icon := "🪟"
	if src.Kind == capture.KindScreen {
		icon = "🖥️ "
	}
	fmt.Fprintf(f.w, "  %s %-24s %s\n", icon, src.ID, src.Name)
}

func (f *Formatter) SourceSelected(src capture.Source) {
	fmt.Fprintf(f.w, "🎯 Selected: %s\n", src.Name)
}

func (f *Formatter) RecordingStarted(limit time.Duration) {
	if limit > 0 {
		fmt.Fprintf(f.w, "🔴 Recording for %s (Ctrl+C to stop early)\n", formatDuration(limit))
		return
	}
	fmt.Fprintf(f.w, "🔴 Recording... (Ctrl+C to stop)\n")
}

func (f *Formatter) RecordingStopped(duration time.Duration) {
	fmt.Fprintf(f.w, "⏹️  Recording stopped (%s)\n", formatDuration(duration))
}

func (f *Formatter) Saved(path string, size int) {
	fmt.Fprintf(f.w, "✅ Video saved: %s (%s)\n", path, formatBytes(size))
}

func (f *Formatter) Serving(addr string) {
	fmt.Fprintf(f.w, "🌐 Control server listening on %s\n", addr)
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "❌ %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "ℹ️  %s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "✅ %s\n", msg)
}

func (f *Formatter) Warning(msg string) {
	fmt.Fprintf(f.w, "⚠️  %s\n", msg)
}

func (f *Formatter) SetupCheck(name string, ok bool, detail string) {
	if ok {
		fmt.Fprintf(f.w, "  ✅ %s: %s\n", name, detail)
	} else {
		fmt.Fprintf(f.w, "  ❌ %s: %s\n", name, detail)
	}
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

func formatBytes(n int) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := unit, 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGT"[exp])
}
