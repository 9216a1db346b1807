package epubcfi

import "log/slog"

// Option configures Resolve and Generate.
//
// Example:
//
//	loc, err := epubcfi.Resolve(tree, c, epubcfi.PreferIDAssertion())
type Option func(*options)

type options struct {
	preferID  bool
	noIDs     bool
	sectionID string
	logger    *slog.Logger
}

func buildOptions(opts []Option) options {
	o := options{logger: Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PreferIDAssertion makes Resolve retarget the final step of a path to the
// element carrying its identifier assertion when the element found by
// position carries a different identifier. Without it the positional
// element wins. A warning is recorded either way.
func PreferIDAssertion() Option {
	return func(o *options) {
		o.preferID = true
	}
}

// WithoutIDAssertions makes Generate omit identifier assertions.
func WithoutIDAssertions() Option {
	return func(o *options) {
		o.noIDs = true
	}
}

// WithSectionID makes Generate add id as the identifier assertion of the
// section step, e.g. "/6/4[chapter01]!". It is normally the manifest id of
// the section.
func WithSectionID(id string) Option {
	return func(o *options) {
		o.sectionID = id
	}
}

// WithLogger overrides the package logger for one call.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
