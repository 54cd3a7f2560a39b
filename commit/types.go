// Package commit implements the atomic publish protocol that turns a
// proposed TableMetadata into the durable, visible-to-all-readers
// current version of a table. It owns exactly one piece of mutable
// state per table: the version-hint object, published through the
// backing ObjectStore's conditional-write primitives.
package commit

import (
	"context"

	"github.com/icelake-io/iceberg-engine/metadata"
)

// RetryConfig bounds the conflict-retry loop.
type RetryConfig struct {
	// MaxAttempts is the number of additional attempts allowed after
	// the first one collides with a concurrent writer.
	MaxAttempts int
}

// DefaultRetryConfig matches the engine's documented retry bound.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxAttempts: 4}
}

// State is a caller-held snapshot of a table's durable position: the
// metadata currently in effect, the version it occupies, and the raw
// bytes last observed in the version-hint object. Commit uses HintPath
// as the expected value for its compare-and-swap; after a successful
// publish, Result.MetadataPath is the hint value the caller retains as
// HintPath for its next call.
type State struct {
	Metadata *metadata.TableMetadata
	Version  int
	HintPath string
}

// ProposeFunc derives the next metadata from the currently-visible
// one. It must be pure: the commit loop may invoke it more than once
// against different snapshots of current state if a conflict forces a
// retry, and a propose with side effects would run those side effects
// more than once.
type ProposeFunc func(current *metadata.TableMetadata) (*metadata.TableMetadata, error)

// ReloadFunc re-fetches the freshest known table state after a
// conflicting writer has already advanced the version hint. Commit
// does not parse metadata JSON itself; the caller (typically a catalog
// implementation) supplies the reloaded state. Without a ReloadFunc, a
// conflict ends the commit with a reload_unavailable error.
type ReloadFunc func(ctx context.Context) (State, error)

// Result describes a successfully published commit.
type Result struct {
	Metadata     *metadata.TableMetadata
	MetadataPath string
	Version      int
	Attempts     int
}
