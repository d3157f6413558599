package options

import "github.com/iamNilotpal/machi/pkg/logger"

const (
	// DefaultDir specifies the default base directory where machi will
	// store its generation files, if no other directory is specified.
	DefaultDir = "/var/lib/machi"

	// DefaultMaxLen is the default live-entry watermark that triggers
	// front-generation rotation.
	DefaultMaxLen = 1024
)

// NewDefaultOptions returns the default configuration settings for a machi store.
func NewDefaultOptions() Options {
	return Options{
		Dir:    DefaultDir,
		MaxLen: DefaultMaxLen,
		Temp:   false,
		Logger: logger.NewNop(),
	}
}
