package config

import (
	"context"

	"github.com/zclconf/go-cty/cty"
)

// Loader is the interface for a format-specific task-file loader.
type Loader interface {
	// Load reads task files from the given paths and translates them into the
	// format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Converter is the bridge between option values held as cty values and the
// Go structs that task handlers decode them into.
type Converter interface {
	// DecodeOptions decodes an object value onto the struct pointed to by
	// target. Attributes missing from val leave the corresponding field
	// untouched, so target may be pre-populated with defaults.
	DecodeOptions(ctx context.Context, val cty.Value, target any) error

	// ToCtyValue converts a native Go value into its equivalent cty.Value.
	ToCtyValue(v any) (cty.Value, error)
}
