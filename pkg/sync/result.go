package sync

import (
	"fmt"
	"strings"
	"time"

	"github.com/FursAndrey/staffsync/pkg/profiles"
)

// FailureKind classifies why an employee failed.
type FailureKind string

// Failure kinds.
const (
	// FailureOwner means no owner could be found or created; nothing was written.
	FailureOwner FailureKind = "owner_resolution"
	// FailureProfile means a profile failed to load, build or save; the
	// categories before it were kept.
	FailureProfile FailureKind = "profile_write"
)

// Failure records one failed employee.
type Failure struct {
	FizCode  string      `json:"fiz_code" yaml:"fiz_code"`
	Category string      `json:"category,omitempty" yaml:"category,omitempty"`
	Kind     FailureKind `json:"kind" yaml:"kind"`
	Message  string      `json:"message" yaml:"message"`
}

// CategoryResult counts the profiles written for one category.
type CategoryResult struct {
	Created int `json:"created" yaml:"created"`
	Updated int `json:"updated" yaml:"updated"`
}

// Result is the outcome of a sync run. It is appended to during the run and
// handed to the caller once at the end.
type Result struct {
	RunID  string `json:"run_id" yaml:"run_id"`
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	UsersProcessed  int `json:"users_processed" yaml:"users_processed"`
	ProfilesCreated int `json:"profiles_created" yaml:"profiles_created"`
	ProfilesUpdated int `json:"profiles_updated" yaml:"profiles_updated"`

	// Errors holds one message per failed employee, in processing order.
	Errors   []string  `json:"errors" yaml:"errors"`
	Failures []Failure `json:"failures" yaml:"failures"`

	Categories map[string]*CategoryResult `json:"categories" yaml:"categories"`

	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	Canceled   bool      `json:"canceled" yaml:"canceled"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
}

// NewResult returns an empty result for a run starting at startedAt.
func NewResult(runID string, startedAt time.Time) *Result {
	return &Result{
		RunID:      runID,
		Errors:     []string{},
		Failures:   []Failure{},
		Categories: make(map[string]*CategoryResult),
		StartedAt:  startedAt,
	}
}

func (r *Result) category(c profiles.Category) *CategoryResult {
	if r.Categories == nil {
		r.Categories = make(map[string]*CategoryResult)
	}
	cr, ok := r.Categories[c.String()]
	if !ok {
		cr = &CategoryResult{}
		r.Categories[c.String()] = cr
	}
	return cr
}

// RecordCreated counts a newly created profile of c.
func (r *Result) RecordCreated(c profiles.Category) {
	r.ProfilesCreated++
	r.category(c).Created++
}

// RecordUpdated counts an updated profile of c.
func (r *Result) RecordUpdated(c profiles.Category) {
	r.ProfilesUpdated++
	r.category(c).Updated++
}

// RecordFailure appends a failed employee.
func (r *Result) RecordFailure(f Failure) {
	r.Errors = append(r.Errors, f.Message)
	r.Failures = append(r.Failures, f)
}

// RecordProcessed counts a fully processed employee.
func (r *Result) RecordProcessed() {
	r.UsersProcessed++
}

// Finish stamps the end of the run.
func (r *Result) Finish(at time.Time) {
	r.FinishedAt = at
}

// HasErrors returns true if any employee failed.
func (r *Result) HasErrors() bool {
	return len(r.Errors) > 0
}

// Duration returns how long the run took, or 0 while it is still running.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary returns a human-readable summary of the sync result.
func (r *Result) Summary() string {
	var parts []string
	if r.DryRun {
		parts = append(parts, "(Dry run)")
	}
	if r.Canceled {
		parts = append(parts, "(Canceled)")
	}

	summary := fmt.Sprintf("%d users processed: %d profiles created, %d updated, %d errors",
		r.UsersProcessed, r.ProfilesCreated, r.ProfilesUpdated, len(r.Errors))
	if len(parts) > 0 {
		summary += " " + strings.Join(parts, " ")
	}

	return summary
}
