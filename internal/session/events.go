package session

import (
	"time"

	"github.com/GriffinCanCode/screenrec/internal/capture"
)

// EventType names a controller event.
type EventType string

const (
	EventSourceSelected   EventType = "source_selected"
	EventSessionReleased  EventType = "session_released"
	EventRecordingStarted EventType = "recording_started"
	EventRecordingStopped EventType = "recording_stopped"
	EventSaved            EventType = "saved"
	EventSaveCancelled    EventType = "save_cancelled"
	EventError            EventType = "error"
)

// Event is published for every controller state change.
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Source    *capture.Source `json:"source,omitempty"`
	Path      string          `json:"path,omitempty"`
	Bytes     int             `json:"bytes,omitempty"`
	Chunks    int             `json:"chunks,omitempty"`
	Err       string          `json:"error,omitempty"`
	Time      time.Time       `json:"time"`
}

// SaveResult reports the outcome of saving one recording.
type SaveResult struct {
	SessionID string
	Path      string
	Bytes     int
	Cancelled bool
	Err       error
}

// ButtonState is the visual state of the start control.
type ButtonState struct {
	Label  string `json:"label"`
	Danger bool   `json:"danger"`
}

// Snapshot is a read-only view of the controller.
type Snapshot struct {
	SessionID string          `json:"session_id,omitempty"`
	Source    *capture.Source `json:"source,omitempty"`
	State     string          `json:"state"`
	Button    ButtonState     `json:"button"`
	Chunks    int             `json:"chunks"`
	Bytes     int             `json:"bytes"`
}
