package preview

// Preview constants
const (
	// Frames within this perceptual-hash Hamming distance of the last
	// published frame are not republished.
	MaxHashDistance = 2

	// JPEGQuality of published preview frames.
	JPEGQuality = 75

	// DefaultRate is the preview refresh rate in Hz.
	DefaultRate = 2.0
)
