package filter

import (
	"github.com/s0up4200/gyazo/gyazo"
)

// Filter decides whether an image is selected
type Filter interface {
	// Match reports whether the image satisfies the filter
	Match(img gyazo.Image) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Evaluate runs the filter and reports evaluation failures
	Evaluate(img gyazo.Image) (bool, error)

	// Expression returns the filter expression as written
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	// Compile parses and compiles a filter expression
	Compile(expression string) (CompiledFilter, error)
}
