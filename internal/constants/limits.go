// Package constants defines numerical limits.
package constants

// Limits for various operations
const (
	// Buffered jobs in the image fetch queue
	ImageQueueSize = 256

	// Largest image body accepted from the CDN
	MaxImageBytes = 8 << 20

	// Largest JSON body read from the upstream API
	MaxUpstreamBodyBytes = 16 << 20

	// Cap on description length after HTML stripping
	MaxDescriptionLength = 2000
)
