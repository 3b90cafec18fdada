package imagecache

import "time"

const (
	DefaultCacheSize       = 4096
	DefaultTTL             = time.Hour
	DefaultDownloadTimeout = 10 * time.Second
	DefaultPublicPrefix    = "/images/"

	// Largest image accepted from the CDN
	maxImageBytes = 10 << 20

	dirPerm  = 0o755
	tempGlob = ".download-*"
)

// Log messages
const (
	LogMsgInvalidImageURL  = "Invalid or missing image URL, using fallback"
	LogMsgDownloadingImage = "Downloading image"
	LogMsgImageCached      = "Image cached"
	LogMsgDownloadFailed   = "Failed to cache image, using fallback"
)

// Error messages
const (
	ErrMsgUnexpectedStatus = "unexpected status %d from %s"
	ErrMsgImageTooLarge    = "image larger than %d bytes"
)
