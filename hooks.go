package staffsync

import (
	"sync"

	"github.com/FursAndrey/staffsync/pkg/reconciler"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

type (
	// EmployeeOutcome describes one successfully synced employee.
	EmployeeOutcome = reconciler.EmployeeOutcome

	// Failure describes one employee the sync gave up on.
	Failure = pkgsync.Failure
)

// Hook function types for sync events
type (
	// EmployeeSyncedHook is called after all categories of an employee are written
	EmployeeSyncedHook func(outcome EmployeeOutcome)

	// EmployeeFailedHook is called when an employee is skipped or abandoned
	EmployeeFailedHook func(failure Failure)
)

// Compile-time interface checks to ensure proper implementation.
var (
	_ Hooks               = (*client)(nil)
	_ reconciler.Observer = (*hooks)(nil)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnEmployeeSynced(fn EmployeeSyncedHook)
	OnEmployeeFailed(fn EmployeeFailedHook)
}

// OnEmployeeSynced registers a callback for synced employees.
func (c *client) OnEmployeeSynced(fn EmployeeSyncedHook) {
	c.hooks.OnEmployeeSynced(fn)
}

// OnEmployeeFailed registers a callback for failed employees.
func (c *client) OnEmployeeFailed(fn EmployeeFailedHook) {
	c.hooks.OnEmployeeFailed(fn)
}

// hooks manages event callbacks and serves as the reconciler's observer.
type hooks struct {
	mu               sync.RWMutex
	onEmployeeSynced []EmployeeSyncedHook
	onEmployeeFailed []EmployeeFailedHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnEmployeeSynced registers a callback for synced employees
func (h *hooks) OnEmployeeSynced(fn EmployeeSyncedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEmployeeSynced = append(h.onEmployeeSynced, fn)
}

// OnEmployeeFailed registers a callback for failed employees
func (h *hooks) OnEmployeeFailed(fn EmployeeFailedHook) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onEmployeeFailed = append(h.onEmployeeFailed, fn)
}

// EmployeeSynced fires the synced hooks in registration order.
func (h *hooks) EmployeeSynced(outcome EmployeeOutcome) {
	h.mu.RLock()
	fns := h.onEmployeeSynced
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(outcome)
	}
}

// EmployeeFailed fires the failed hooks in registration order.
func (h *hooks) EmployeeFailed(failure Failure) {
	h.mu.RLock()
	fns := h.onEmployeeFailed
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(failure)
	}
}
