package server

import (
	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/session"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

// CommandMessage is a control command sent over the WebSocket.
type CommandMessage struct {
	Type    string `json:"type"` // "select", "start", "stop", "state"
	ID      string `json:"id,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type SelectRequest struct {
	ID string `json:"id"`
}

type SourcesResponse struct {
	Sources []capture.Source `json:"sources"`
}

type StateMessage struct {
	Type string `json:"type"`
	session.Snapshot
}

type EventMessage struct {
	Type  string        `json:"type"`
	Event session.Event `json:"event"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
