package objcatalog

import (
	"context"

	"github.com/icelake-io/iceberg-engine/commit"
)

type stateKey struct{}

// WithState attaches the caller's last known commit state for a table
// to ctx, so a subsequent CommitTable call has something to propose
// changes against. Callers normally get this State from LoadState,
// passing the metadata they created the table with or got back from
// their last CommitTable call.
func WithState(ctx context.Context, state commit.State) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

// StateFromContext retrieves a State attached by WithState.
func StateFromContext(ctx context.Context) (commit.State, bool) {
	state, ok := ctx.Value(stateKey{}).(commit.State)
	return state, ok
}
