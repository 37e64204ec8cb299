// Package server exposes the recorder over HTTP, WebSocket and gRPC health
package server

import "time"

// Server configuration constants
const (
	// Per-connection WebSocket command rate limiting
	RateLimitMessages = 20          // Max commands per connection per window
	RateLimitWindow   = time.Second // Sliding window duration

	// Bound on a single broadcast write to a slow client
	BroadcastWriteTimeout = 5 * time.Second

	// Request body limit for JSON commands
	MaxRequestBytes = 4 << 10

	// gRPC health service name
	HealthService = "screenrec.Recorder"
)
