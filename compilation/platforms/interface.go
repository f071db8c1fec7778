package platforms

import (
	"context"

	"github.com/crytic/solcexport/compilation/types"
)

// PlatformConfig describes the interface all compilation platform configs must implement.
type PlatformConfig interface {
	// Compile compiles the configured target or source with the solc executable at solcPath (or "solc" on the PATH
	// if it is empty). Returns the compilations and any compiler output worth surfacing (e.g. warnings).
	Compile(ctx context.Context, solcPath string) ([]types.Compilation, string, error)
	// Platform returns the platform identifier.
	Platform() string
	// GetTarget returns the path of the source file to compile, if any.
	GetTarget() string
	// SetTarget sets the path of the source file to compile.
	SetTarget(string)
	// GetSource returns the inline source text to compile, if any.
	GetSource() string
	// SetSource sets the inline source text to compile.
	SetSource(string)
}
