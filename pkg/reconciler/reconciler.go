// Package reconciler synchronizes employee records from a record source into
// per-category profiles in an entity store.
//
// A run reads every source collection once, groups the sub-record
// collections by fiz_code and then processes employees sequentially in
// source order. Each employee is its own unit of work: a failure is recorded
// in the result and the run moves on to the next employee.
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/FursAndrey/staffsync/pkg/constants"
	"github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/logging"
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/records"
	"github.com/FursAndrey/staffsync/pkg/sources"
	"github.com/FursAndrey/staffsync/pkg/store"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// State is the lifecycle state of the most recent run.
type State int32

// Run states.
const (
	NotStarted State = iota
	Running
	Completed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case NotStarted:
		return "not_started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Reconciler runs syncs from one source into one store.
type Reconciler struct {
	source sources.RecordSource
	store  store.EntityStore
	opts   *options

	busy  atomic.Bool
	state atomic.Int32

	mu   sync.Mutex
	last *pkgsync.Result
}

// New creates a reconciler reading from source and writing to s.
func New(source sources.RecordSource, s store.EntityStore, opts ...Option) (*Reconciler, error) {
	if source == nil {
		return nil, &errors.ValidationError{Field: "source", Message: "cannot be nil"}
	}
	if s == nil {
		return nil, &errors.ValidationError{Field: "store", Message: "cannot be nil"}
	}

	options, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}

	return &Reconciler{
		source: source,
		store:  s,
		opts:   options,
	}, nil
}

// State returns the state of the current or most recent run.
func (r *Reconciler) State() State {
	return State(r.state.Load())
}

// LastResult returns the result of the most recent completed run, if any.
func (r *Reconciler) LastResult() *pkgsync.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// Run performs one sync. Employee failures are recorded in the result and
// never returned as an error; the error return is reserved for invalid
// options, a run already in progress and source read failures, all of
// which happen before any employee is touched.
func (r *Reconciler) Run(ctx context.Context, opts ...pkgsync.Option) (*pkgsync.Result, error) {
	options := pkgsync.Defaults().Apply(r.opts.defaults...).Apply(opts...)
	if err := options.Validate(); err != nil {
		return nil, err
	}

	if !r.busy.CompareAndSwap(false, true) {
		return nil, errors.ErrRunInProgress
	}
	defer r.busy.Store(false)

	if options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, options.Timeout)
		defer cancel()
	}

	result := pkgsync.NewResult(options.RunID(), r.opts.now())
	result.DryRun = options.DryRun
	result.Source = sources.NameOf(r.source)

	ctx = r.runContext(ctx, result)
	logger := logging.FromContext(ctx)

	target := r.store
	if options.DryRun {
		target = store.NewOverlay(r.store)
	}

	employees, indexes, err := r.read(ctx, options)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read source")
		return nil, err
	}

	logger.Info().
		Int("employees", len(employees)).
		Bool("dry_run", options.DryRun).
		Msg("Starting sync")

	r.state.Store(int32(Running))
	batch := &run{
		resolver: NewResolver(target),
		upserter: NewUpserter(target),
		indexes:  indexes,
		options:  options,
		observer: r.opts.observer,
		result:   result,
	}

	for _, employee := range employees {
		if ctx.Err() != nil {
			result.Canceled = true
			logger.Warn().
				Err(ctx.Err()).
				Int("users_processed", result.UsersProcessed).
				Msg("Sync canceled")
			break
		}
		// An employee, once started, is written to completion.
		if !batch.employee(context.WithoutCancel(ctx), employee) && options.FailFast {
			logger.Warn().Msg("Stopping after first failure")
			break
		}
	}

	result.Finish(r.opts.now())
	r.state.Store(int32(Completed))
	r.mu.Lock()
	r.last = result
	r.mu.Unlock()

	if overlay, ok := target.(*store.Overlay); ok {
		owners, pending := overlay.Pending()
		logger.Debug().
			Int("owners", owners).
			Int("profiles", pending).
			Msg("Discarded dry run writes")
	}

	logger.Info().
		Int("users_processed", result.UsersProcessed).
		Int("profiles_created", result.ProfilesCreated).
		Int("profiles_updated", result.ProfilesUpdated).
		Int("errors", len(result.Errors)).
		Dur("duration", result.Duration()).
		Msg("Sync completed")

	return result, nil
}

// runContext attaches the run's logger fields to ctx.
func (r *Reconciler) runContext(ctx context.Context, result *pkgsync.Result) context.Context {
	if r.opts.logger != nil && !logging.HasLogger(ctx) {
		ctx = logging.WithLogger(ctx, r.opts.logger)
	}
	ctx = logging.WithRun(ctx, result.RunID)
	return logging.WithSource(ctx, result.Source)
}

// read loads the employees and builds the per-category indexes. Collections
// of excluded categories are not read.
func (r *Reconciler) read(ctx context.Context, options *pkgsync.Options) ([]records.Record, map[profiles.Category]records.Groups, error) {
	employees, err := sources.Read(ctx, r.source, sources.Employees)
	if err != nil {
		return nil, nil, err
	}

	indexes := make(map[profiles.Category]records.Groups, len(profiles.MultiValued()))
	for _, c := range profiles.MultiValued() {
		if !options.Includes(c) {
			continue
		}
		coll, _ := sources.CollectionFor(c)
		recs, err := sources.Read(ctx, r.source, coll)
		if err != nil {
			return nil, nil, err
		}
		indexes[c] = records.GroupByKey(recs, constants.KeyField)
	}
	return employees, indexes, nil
}

// run holds the state shared by the employees of one Run.
type run struct {
	resolver *Resolver
	upserter *Upserter
	indexes  map[profiles.Category]records.Groups
	options  *pkgsync.Options
	observer Observer
	result   *pkgsync.Result
}

// employee syncs one employee and reports whether it succeeded.
func (r *run) employee(ctx context.Context, employee records.Record) bool {
	fizCode := employee.String(constants.KeyField)
	ctx = logging.WithEmployee(ctx, fizCode)
	logger := logging.FromContext(ctx)

	var owner store.Owner
	err := guard(func() (err error) {
		owner, err = r.resolver.Resolve(ctx, fizCode)
		return err
	})
	if err != nil {
		if !errors.IsOwnerResolution(err) {
			err = errors.NewOwnerResolutionError(fizCode, err)
		}
		r.fail(ctx, pkgsync.Failure{
			FizCode: fizCode,
			Kind:    pkgsync.FailureOwner,
			Message: err.Error(),
		})
		return false
	}

	outcome := EmployeeOutcome{FizCode: fizCode, Owner: owner}
	for _, c := range profiles.All() {
		if !r.options.Includes(c) {
			continue
		}

		var res Outcome
		if c.MultiValued() {
			rows, ok := r.indexes[c].Lookup(fizCode)
			if !ok {
				continue
			}
			err = guard(func() (err error) {
				res, err = r.upserter.UpsertMulti(ctx, owner, c, rows)
				return err
			})
		} else {
			err = guard(func() (err error) {
				res, err = r.upserter.UpsertSingle(ctx, owner, c, employee)
				return err
			})
		}

		if err != nil {
			if !errors.IsProfileWrite(err) {
				err = errors.NewProfileWriteError(fizCode, c.String(), "save", err)
			}
			r.fail(ctx, pkgsync.Failure{
				FizCode:  fizCode,
				Category: c.String(),
				Kind:     pkgsync.FailureProfile,
				Message:  err.Error(),
			})
			return false
		}

		switch res {
		case Created:
			r.result.RecordCreated(c)
			outcome.Created = append(outcome.Created, c)
		case Updated:
			r.result.RecordUpdated(c)
			outcome.Updated = append(outcome.Updated, c)
		}
	}

	r.result.RecordProcessed()
	logger.Debug().
		Int64("owner_id", owner.ID).
		Int("created", len(outcome.Created)).
		Int("updated", len(outcome.Updated)).
		Msg("Employee synced")
	if err := guard(func() error { r.observer.EmployeeSynced(outcome); return nil }); err != nil {
		logger.Warn().Err(err).Msg("Synced hook panicked")
	}
	return true
}

func (r *run) fail(ctx context.Context, failure pkgsync.Failure) {
	r.result.RecordFailure(failure)
	event := logging.FromContext(ctx).Warn().Str("error", failure.Message)
	if failure.Category != "" {
		event = event.Str("category", failure.Category)
	}
	event.Msg("Employee failed")
	if err := guard(func() error { r.observer.EmployeeFailed(failure); return nil }); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Failure hook panicked")
	}
}

// guard runs fn, converting a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("recovered panic: %v", rec)
		}
	}()
	return fn()
}
