package reconciler

import (
	"github.com/FursAndrey/staffsync/pkg/profiles"
	"github.com/FursAndrey/staffsync/pkg/store"
	pkgsync "github.com/FursAndrey/staffsync/pkg/sync"
)

// EmployeeOutcome describes one successfully synced employee.
type EmployeeOutcome struct {
	FizCode string              `json:"fiz_code" yaml:"fiz_code"`
	Owner   store.Owner         `json:"owner" yaml:"owner"`
	Created []profiles.Category `json:"created" yaml:"created"`
	Updated []profiles.Category `json:"updated" yaml:"updated"`
}

// Observer receives per-employee notifications during a run. Calls happen
// on the run's goroutine, in processing order.
type Observer interface {
	EmployeeSynced(outcome EmployeeOutcome)
	EmployeeFailed(failure pkgsync.Failure)
}

type nopObserver struct{}

func (nopObserver) EmployeeSynced(EmployeeOutcome) {}

func (nopObserver) EmployeeFailed(pkgsync.Failure) {}

// ObserverFuncs adapts plain functions to an Observer. Nil funcs are skipped.
type ObserverFuncs struct {
	Synced func(EmployeeOutcome)
	Failed func(pkgsync.Failure)
}

// EmployeeSynced implements Observer.
func (f ObserverFuncs) EmployeeSynced(outcome EmployeeOutcome) {
	if f.Synced != nil {
		f.Synced(outcome)
	}
}

// EmployeeFailed implements Observer.
func (f ObserverFuncs) EmployeeFailed(failure pkgsync.Failure) {
	if f.Failed != nil {
		f.Failed(failure)
	}
}
