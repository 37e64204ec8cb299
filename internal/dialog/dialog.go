// Package dialog asks the user where to save a recording and which source
// to capture, through native dialogs or headless stand-ins.
package dialog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncruces/zenity"
)

// ErrCancelled is returned when the user dismisses a dialog.
var ErrCancelled = errors.New("dialog cancelled")

// SavePrompt asks for an output path.
type SavePrompt interface {
	Prompt(ctx context.Context, buttonLabel, defaultName string) (string, error)
}

// Menu asks the user to pick one of labels and returns its index.
type Menu interface {
	Choose(ctx context.Context, title string, labels []string) (int, error)
}

// Zenity shows native dialogs. DefaultDir seeds the save location.
type Zenity struct {
	DefaultDir string
}

func (z Zenity) Prompt(ctx context.Context, buttonLabel, defaultName string) (string, error) {
	path, err := zenity.SelectFileSave(
		zenity.Context(ctx),
		zenity.Title(buttonLabel),
		zenity.OKLabel(buttonLabel),
		zenity.Filename(filepath.Join(z.DefaultDir, defaultName)),
		zenity.ConfirmOverwrite(),
		zenity.FileFilter{Name: "WebM video", Patterns: []string{"*.webm"}},
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return "", ErrCancelled
	}
	if err != nil {
		return "", fmt.Errorf("save dialog: %w", err)
	}
	return path, nil
}

func (z Zenity) Choose(ctx context.Context, title string, labels []string) (int, error) {
	if len(labels) == 0 {
		return -1, ErrCancelled
	}
	shown := uniqueLabels(labels)
	choice, err := zenity.List(title, shown,
		zenity.Context(ctx),
		zenity.Title(title),
		zenity.DisallowEmpty(),
	)
	if errors.Is(err, zenity.ErrCanceled) {
		return -1, ErrCancelled
	}
	if err != nil {
		return -1, fmt.Errorf("source menu: %w", err)
	}
	for i, l := range shown {
		if l == choice {
			return i, nil
		}
	}
	return -1, ErrCancelled
}

// uniqueLabels numbers repeated labels so that a choice maps back to one
// index: "Terminal", "Terminal (2)".
func uniqueLabels(labels []string) []string {
	out := make([]string, len(labels))
	taken := make(map[string]bool, len(labels))
	for _, l := range labels {
		taken[l] = true
	}
	seen := make(map[string]int, len(labels))
	for i, l := range labels {
		seen[l]++
		if seen[l] == 1 {
			out[i] = l
			continue
		}
		n := seen[l]
		name := fmt.Sprintf("%s (%d)", l, n)
		for taken[name] {
			n++
			name = fmt.Sprintf("%s (%d)", l, n)
		}
		seen[l] = n
		taken[name] = true
		out[i] = name
	}
	return out
}

// Directory accepts the default filename inside Dir without asking.
type Directory struct {
	Dir string
}

func (d Directory) Prompt(_ context.Context, _, defaultName string) (string, error) {
	if d.Dir == "" {
		return defaultName, nil
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(d.Dir, defaultName), nil
}

// Fixed returns Path, or ErrCancelled when Path is empty.
type Fixed struct {
	Path string
}

func (f Fixed) Prompt(context.Context, string, string) (string, error) {
	if f.Path == "" {
		return "", ErrCancelled
	}
	return f.Path, nil
}

// Match picks the first label containing Query (case-insensitive); an empty
// query picks the first label.
type Match struct {
	Query string
}

func (m Match) Choose(_ context.Context, _ string, labels []string) (int, error) {
	q := strings.ToLower(m.Query)
	for i, l := range labels {
		if strings.Contains(strings.ToLower(l), q) {
			return i, nil
		}
	}
	return -1, ErrCancelled
}
