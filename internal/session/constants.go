package session

import (
	"fmt"
	"time"
)

// Controller configuration constants
const (
	// SaveLabel is the save prompt's confirm button label.
	SaveLabel = "Save video"

	// PickerTitle heads the source menu.
	PickerTitle = "Select a source to record"

	// Channel buffer sizes
	EventBuffer = 64
	SavedBuffer = 8
)

// Button labels
const (
	LabelStart     = "Start"
	LabelRecording = "Recording"
)

// DefaultFilename returns the suggested file name for a recording saved at t.
func DefaultFilename(t time.Time) string {
	return fmt.Sprintf("vid-%d.webm", t.UnixMilli())
}
