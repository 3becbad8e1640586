package staffsync

import (
	"context"

	"github.com/FursAndrey/staffsync/pkg/reconciler"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// Result is the outcome of one sync run.
type Result = pkgsync.Result

// Compile-time interface check to ensure proper implementation.
var _ Syncer = (*client)(nil)

// Syncer runs syncs from the client's source into its store.
type Syncer interface {
	// Sync runs the reconciler once. Employee failures are reported in the
	// result; the error is reserved for failures before any employee runs.
	Sync(ctx context.Context, opts ...pkgsync.Option) (*Result, error)

	// State returns the state of the current or most recent sync.
	State() reconciler.State

	// LastResult returns the result of the most recent completed sync.
	LastResult() *Result
}

// Sync runs the reconciler once with the given options.
func (c *client) Sync(ctx context.Context, opts ...pkgsync.Option) (*Result, error) {

	// attach the client's logger unless the caller brought one
	ctx = c.context(ctx)

	// run; hooks fire from inside the reconciler as employees complete
	return c.reconciler.Run(ctx, opts...)
}

// State returns the state of the current or most recent sync.
func (c *client) State() reconciler.State {
	return c.reconciler.State()
}

// LastResult returns the result of the most recent completed sync.
func (c *client) LastResult() *Result {
	return c.reconciler.LastResult()
}
