package media

import "time"

// Recorder constants
const (
	// MimeTypeWebMVP9 is the declared media type of every artifact.
	MimeTypeWebMVP9 = "video/webm; codecs=vp9"

	// DefaultChunkSize is how many encoded bytes make one delivered chunk.
	DefaultChunkSize = 64 * 1024

	// DefaultFrameRate is the capture frame rate handed to ffmpeg.
	DefaultFrameRate = 30

	// StopGracePeriod bounds how long the encoder may take to flush after
	// being asked to quit before it is killed.
	StopGracePeriod = 5 * time.Second
)
