package vpack

import (
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/yaml.v3"
)

// UnsupportedTypeBehavior selects what the Dumper does with values that
// have no JSON form.
type UnsupportedTypeBehavior int

const (
	// ConvertUnsupportedType renders Binary and Custom values as hex strings,
	// UTCDate as an RFC 3339 string and everything else as null.
	ConvertUnsupportedType UnsupportedTypeBehavior = iota
	// NullifyUnsupportedType renders null.
	NullifyUnsupportedType
	// FailOnUnsupportedType fails with NoJsonEquivalent.
	FailOnUnsupportedType
)

func (b UnsupportedTypeBehavior) String() string {
	switch b {
	case ConvertUnsupportedType:
		return "convert"
	case NullifyUnsupportedType:
		return "nullify"
	case FailOnUnsupportedType:
		return "fail"
	}
	return fmt.Sprintf("unsupported-type-behavior(%d)", int(b))
}

func (b UnsupportedTypeBehavior) MarshalYAML() (any, error) {
	return b.String(), nil
}

func (b *UnsupportedTypeBehavior) UnmarshalYAML(node *yaml.Node) error {
	switch node.Value {
	case "convert", "":
		*b = ConvertUnsupportedType
	case "nullify":
		*b = NullifyUnsupportedType
	case "fail":
		*b = FailOnUnsupportedType
	default:
		return fmt.Errorf("unknown unsupported type behavior %q", node.Value)
	}
	return nil
}

// CustomTypeHandler renders Custom values for the Dumper.
type CustomTypeHandler interface {
	DumpCustom(s Slice, sink Sink, parent Slice) error
}

// Options configures a Builder, Parser or Dumper. Each instance copies the
// Options it is given, so later changes to the caller's value have no
// effect on it.
type Options struct {
	BuildUnindexedArrays     bool `yaml:"build_unindexed_arrays"`
	BuildUnindexedObjects    bool `yaml:"build_unindexed_objects"`
	SortAttributeNames       bool `yaml:"sort_attribute_names"`
	CheckAttributeUniqueness bool `yaml:"check_attribute_uniqueness"`
	ValidateUTF8Strings      bool `yaml:"validate_utf8_strings"`
	DisallowExternals        bool `yaml:"disallow_externals"`
	DisallowCustom           bool `yaml:"disallow_custom"`
	DisallowTags             bool `yaml:"disallow_tags"`

	// NestingLimit bounds parser container depth; 0 disables the check.
	NestingLimit int `yaml:"nesting_limit"`
	// AllowNonFiniteNumbers lets the Dumper write NaN, Infinity and
	// -Infinity and the Parser read them back.
	AllowNonFiniteNumbers bool `yaml:"allow_non_finite_numbers"`

	PrettyPrint             bool                    `yaml:"pretty_print"`
	EscapeForwardSlashes    bool                    `yaml:"escape_forward_slashes"`
	EscapeUnicode           bool                    `yaml:"escape_unicode"`
	UnsupportedTypeBehavior UnsupportedTypeBehavior `yaml:"unsupported_type_behavior"`

	// UnsafeStrings makes Unmarshal alias strings into the source bytes
	// instead of copying; the caller must keep those bytes unmodified.
	UnsafeStrings bool `yaml:"unsafe_strings"`

	CustomTypeHandler CustomTypeHandler `yaml:"-"`
	Logger            *slog.Logger      `yaml:"-"`
}

// DefaultOptions returns a fresh Options value with the engine defaults.
func DefaultOptions() Options {
	return Options{SortAttributeNames: true}
}

// LoadOptions reads Options from YAML. Keys that are absent keep their
// default value; unknown keys are an error.
func LoadOptions(r io.Reader) (Options, error) {
	opts := DefaultOptions()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&opts); err != nil && err != io.EOF {
		return Options{}, fmt.Errorf("vpack: load options: %w", err)
	}
	if opts.NestingLimit < 0 {
		return Options{}, fmt.Errorf("vpack: load options: negative nesting_limit %d", opts.NestingLimit)
	}
	return opts, nil
}

// resolveOptions copies opts or the defaults when opts is nil.
func resolveOptions(opts *Options) Options {
	if opts == nil {
		return DefaultOptions()
	}
	return *opts
}

func (o *Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return discardLogger
}

var discardLogger = slog.New(slog.DiscardHandler)
