package feed

import (
	"unicode/utf8"

	"github.com/agentstation/catalogsync/pkg/constants"
	"github.com/agentstation/catalogsync/pkg/errors"
)

// Options controls feed parsing.
type Options struct {
	Delimiter  rune // Field separator, ';' by default
	SkipHeader bool // Whether the first row is a header
	MaxErrors  int  // Row diagnostics kept in ParseResult.Errors
}

// Option is a function that configures parse Options.
type Option func(*Options)

// Defaults returns the default parse options.
func Defaults() *Options {
	return &Options{
		Delimiter:  ';',
		SkipHeader: true,
		MaxErrors:  constants.MaxErrorSamples,
	}
}

// Apply applies the given options.
func (o *Options) Apply(opts ...Option) *Options {
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Validate checks if the parse options are valid.
func (o *Options) Validate() error {
	switch o.Delimiter {
	case 0, '\r', '\n', '"', utf8.RuneError:
		return &errors.ValidationError{
			Field:   "Delimiter",
			Value:   o.Delimiter,
			Message: "invalid field delimiter",
		}
	}
	if o.MaxErrors < 0 {
		return &errors.ValidationError{
			Field:   "MaxErrors",
			Value:   o.MaxErrors,
			Message: "must be non-negative",
		}
	}
	return nil
}

// WithDelimiter sets the field separator. A zero rune keeps the default.
func WithDelimiter(d rune) Option {
	return func(o *Options) {
		if d != 0 {
			o.Delimiter = d
		}
	}
}

// WithHeader configures whether the first row is a header to skip.
func WithHeader(header bool) Option {
	return func(o *Options) {
		o.SkipHeader = header
	}
}

// WithMaxErrors caps the number of row diagnostics kept.
func WithMaxErrors(n int) Option {
	return func(o *Options) {
		o.MaxErrors = n
	}
}
