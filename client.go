// Package staffsync provides the main entry point for synchronizing employee
// records into per-category profiles.
//
// A Client wires a record source to an entity store and runs the reconciler
// over them. It also offers read views of the stored owners and profiles,
// bundle maintenance and event hooks for per-employee outcomes.
//
// Example usage:
//
//	// Create a client backed by a SQLite database, reading a YAML export
//	client, err := staffsync.New(
//	    staffsync.WithSQLite("./staffsync.db"),
//	    staffsync.WithSourceFile("./employees.yaml"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Register event hooks
//	client.OnEmployeeFailed(func(f staffsync.Failure) {
//	    log.Printf("sync of %s failed: %s", f.FizCode, f.Message)
//	})
//
//	// Run a sync restricted to two categories
//	result, err := client.Sync(ctx, pkgsync.WithCategories(profiles.Personal, profiles.Family))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package staffsync

import (
	"context"
	"sync"

	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/reconciler"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/store"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client runs syncs and exposes the stored state.
type Client interface {

	// Syncer runs the reconciler
	Syncer

	// Reader provides read-only views of owners and profiles
	Reader

	// Maintainer removes stored profiles
	Maintainer

	// Hooks provides access to event callback registration
	Hooks

	// Source returns the record source the client reads from
	Source() sources.RecordSource

	// Close releases the store if the client opened it
	Close() error
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	// backends
	store      store.Store
	source     sources.RecordSource
	ownsStore  bool
	reconciler *reconciler.Reconciler

	hooks *hooks

	closeOnce sync.Once
	closeErr  error
}

// New creates a new Client instance with the given options. Without options
// the client syncs the built-in fixture dataset into an in-memory store.
func New(opts ...Option) (Client, error) {

	// apply options over the defaults
	options, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	// open the store and the source
	st, owned, err := options.openStore()
	if err != nil {
		return nil, err
	}
	src, err := options.openSource()
	if err != nil {
		if owned {
			_ = st.Close()
		}
		return nil, err
	}

	c := &client{
		options:   options,
		store:     st,
		source:    src,
		ownsStore: owned,
		hooks:     newHooks(),
	}

	// build the reconciler with the client's hooks as its observer
	rOpts := []reconciler.Option{
		reconciler.WithObserver(c.hooks),
		reconciler.WithSyncDefaults(options.syncDefaults...),
	}
	if options.logger != nil {
		rOpts = append(rOpts, reconciler.WithLogger(options.logger))
	}
	if options.now != nil {
		rOpts = append(rOpts, reconciler.WithClock(options.now))
	}
	c.reconciler, err = reconciler.New(src, st, rOpts...)
	if err != nil {
		if owned {
			_ = st.Close()
		}
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}

	return c, nil
}

// Source returns the record source the client reads from.
func (c *client) Source() sources.RecordSource {
	return c.source
}

// Close closes the store when the client opened it. A store passed in with
// WithStore is left open for its owner.
func (c *client) Close() error {
	c.closeOnce.Do(func() {
		if c.ownsStore {
			c.closeErr = c.store.Close()
		}
	})
	return c.closeErr
}

// context returns ctx with the client's logger attached when it has one.
func (c *client) context(ctx context.Context) context.Context {
	return c.options.context(ctx)
}
