// Package options implements the functional-options pattern used to
// configure a mount of an ISO 9660 image.
package options

import (
	"github.com/bgrewell/iso-kit/pkg/consts"
	"github.com/go-logr/logr"
)

// Options represents the options for opening/mounting an ISO image.
type Options struct {
	IsoType             consts.ISOType
	ParseOnOpen         bool
	StripVersionInfo    bool
	RockRidgeEnabled    bool
	JolietEnabled       bool
	PreferEnhancedVD    bool
	BigEndianPreferred  bool
	LenientExtensions   bool
	MaxContinuations    int
	Logger              logr.Logger
}

// Option represents a function that modifies the Options.
type Option func(*Options)

// Default returns the baseline Options: both extensions enabled, ";version"
// suffixes stripped from names, little endian preferred on both-endian
// mismatch, 256 continuations permitted, and a discarding logger.
func Default() Options {
	return Options{
		IsoType:            consts.ISO9660,
		ParseOnOpen:        true,
		StripVersionInfo:   true,
		RockRidgeEnabled:   true,
		JolietEnabled:      true,
		PreferEnhancedVD:   true,
		BigEndianPreferred: false,
		LenientExtensions:  false,
		MaxContinuations:   consts.DefaultMaxContinuations,
		Logger:             logr.Discard(),
	}
}

// WithIsoType sets the ISO type for the image. Currently only ISO9660 is supported.
func WithIsoType(isoType consts.ISOType) Option {
	return func(o *Options) {
		o.IsoType = isoType
	}
}

// WithStripVersionInfo sets whether to strip the ";version" suffix from
// ISO9660 file identifiers (spec.md §3 "Directory entry").
func WithStripVersionInfo(enabled bool) Option {
	return func(o *Options) {
		o.StripVersionInfo = enabled
	}
}

// WithRockRidgeEnabled sets whether to honor Rock Ridge / SUSP extensions
// when selecting the most featureful root and decoding entry metadata.
func WithRockRidgeEnabled(enabled bool) Option {
	return func(o *Options) {
		o.RockRidgeEnabled = enabled
	}
}

// WithJolietEnabled sets whether to parse a Supplementary (Joliet) volume
// descriptor when present.
func WithJolietEnabled(enabled bool) Option {
	return func(o *Options) {
		o.JolietEnabled = enabled
	}
}

// WithLogger sets the Logger used while mounting and decoding the image.
func WithLogger(logger logr.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithParseOnOpen sets whether to parse the volume descriptor set
// immediately on mount. If false, the caller must invoke Parse explicitly
// before navigating the filesystem.
func WithParseOnOpen(parseOnOpen bool) Option {
	return func(o *Options) {
		o.ParseOnOpen = parseOnOpen
	}
}

// WithPreferEnhancedVD sets whether root() prefers the Supplementary
// (Joliet) descriptor over the Primary descriptor when Rock Ridge is not
// present (spec.md §4.6).
func WithPreferEnhancedVD(preferEnhancedVD bool) Option {
	return func(o *Options) {
		o.PreferEnhancedVD = preferEnhancedVD
	}
}

// WithBigEndianPreferred selects the big-endian half of a both-endian field
// as the tie-break value on LE/BE mismatch, instead of the default
// little-endian value (spec.md §9 "Both-endian default").
func WithBigEndianPreferred(enabled bool) Option {
	return func(o *Options) {
		o.BigEndianPreferred = enabled
	}
}

// WithLenientExtensions controls how ER identifier/version pairs this
// decoder does not recognise are reported. Such pairs are always skipped and
// never fail a decode: when enabled they are skipped silently, otherwise
// each one is logged at trace level. No Unknown or Unimplemented extension
// value is recorded for them.
func WithLenientExtensions(enabled bool) Option {
	return func(o *Options) {
		o.LenientExtensions = enabled
	}
}

// WithMaxContinuations caps the number of CE / NM / SL continuation records
// a single decode will follow, guarding against pathological images
// (spec.md §9 "Continuation chains"). Zero or negative is replaced by the
// default of 256 when the options are applied (see Apply).
func WithMaxContinuations(max int) Option {
	return func(o *Options) {
		o.MaxContinuations = max
	}
}

// Apply folds a slice of Option over the default Options.
func Apply(opts ...Option) Options {
	o := Default()
	for _, opt := range opts {
		opt(&o)
	}
	if o.MaxContinuations <= 0 {
		o.MaxContinuations = consts.DefaultMaxContinuations
	}
	return o
}
