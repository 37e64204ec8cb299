// Package sink persists finished recordings.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperr "github.com/GriffinCanCode/screenrec/internal/errors"
)

// Artifact is a finished recording ready to be written.
type Artifact struct {
	Data      []byte
	MimeType  string
	Source    string
	CreatedAt time.Time
}

// Sink writes an artifact to the location named by path.
type Sink interface {
	Write(ctx context.Context, path string, a Artifact) error
}

// File writes artifacts to the local filesystem.
type File struct{}

func (File) Write(ctx context.Context, path string, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperr.Wrap(err, apperr.CodeFileWriteFailed, "create directory").WithMetadata("path", path)
		}
	}
	if err := os.WriteFile(path, a.Data, 0o644); err != nil {
		return apperr.Wrap(err, apperr.CodeFileWriteFailed, "write recording").WithMetadata("path", path)
	}
	return nil
}

// Describe formats an artifact for logs.
func Describe(a Artifact) string {
	return fmt.Sprintf("%d bytes %s from %s", len(a.Data), a.MimeType, a.Source)
}
