// Package options provides data structures and functions for configuring
// a machi store. It defines the parameters that control where a store
// keeps its generation files, when a generation rotates, and how failures
// during open are reported.
package options

import (
	"strings"

	"github.com/iamNilotpal/machi/pkg/errors"
	"go.uber.org/zap"
)

// Options defines the configuration parameters for a machi store.
type Options struct {
	// Dir specifies the base path where generation files are stored.
	//
	// Default: "/var/lib/machi"
	Dir string `json:"dir"`

	// MaxLen is the live-entry watermark that triggers front-generation
	// rotation: once an append leaves the front generation's live count at
	// or above MaxLen, the front is retired to the back and a fresh front
	// is opened.
	//
	// Default: 1024
	MaxLen int `json:"maxLen"`

	// Temp, when set, marks every generation opened by this store as
	// temporary: its files are removed unconditionally on Close rather
	// than being left behind for a future recovery.
	//
	// Default: false
	Temp bool `json:"temp"`

	// Logger receives structured log output for lifecycle events: open,
	// recovery, rotation, reaping, close. Defaults to a no-op logger.
	Logger *zap.SugaredLogger `json:"-"`
}

// OptionFunc is a function type that modifies a store's configuration.
type OptionFunc func(*Options)

// WithDefaultOptions applies a predefined set of default configuration values.
func WithDefaultOptions() OptionFunc {
	return func(o *Options) {
		opts := NewDefaultOptions()
		o.Dir = opts.Dir
		o.MaxLen = opts.MaxLen
		o.Temp = opts.Temp
		o.Logger = opts.Logger
	}
}

// WithDir sets the base directory the store reads and writes generation files in.
func WithDir(directory string) OptionFunc {
	return func(o *Options) {
		directory = strings.TrimSpace(directory)
		if directory != "" {
			o.Dir = directory
		}
	}
}

// WithMaxLen sets the live-entry watermark that triggers rotation.
func WithMaxLen(maxLen int) OptionFunc {
	return func(o *Options) {
		if maxLen > 0 {
			o.MaxLen = maxLen
		}
	}
}

// WithTemp marks every generation opened by the store as temporary.
func WithTemp(temp bool) OptionFunc {
	return func(o *Options) {
		o.Temp = temp
	}
}

// WithLogger sets the structured logger used for lifecycle events.
func WithLogger(log *zap.SugaredLogger) OptionFunc {
	return func(o *Options) {
		if log != nil {
			o.Logger = log
		}
	}
}

// Validate reports whether o holds a usable configuration. WithDir and
// WithMaxLen silently ignore an invalid override and keep the prior value,
// so a caller assembling Options through those functions can never reach an
// invalid Dir or MaxLen; Validate exists for the other path, an Options
// value built by hand (or across a config-file decode) that skips the
// functional-option constructors entirely.
func (o *Options) Validate() error {
	if strings.TrimSpace(o.Dir) == "" {
		return errors.NewRequiredFieldError("Dir")
	}
	if o.MaxLen <= 0 {
		return errors.NewFieldRangeError("MaxLen", o.MaxLen, 1, nil)
	}
	return nil
}
