package review

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Candidate carries the display fields denormalised onto an application.
type Candidate struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Location string `json:"location"`
}

// Application is a candidate's submission for a job.
type Application struct {
	ID          string    `json:"id"`
	JobID       string    `json:"jobId"`
	JobTitle    string    `json:"jobTitle"`
	CompanyID   string    `json:"companyId"`
	Candidate   Candidate `json:"candidate"`
	Status      Status    `json:"status"`
	AppliedAt   time.Time `json:"appliedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CoverLetter *string   `json:"coverLetter,omitempty"`
	ResumeRef   *string   `json:"resumeRef,omitempty"`
}

// HistoryEntry records one effective status change.
type HistoryEntry struct {
	ApplicationID string    `json:"applicationId"`
	From          Status    `json:"from"`
	To            Status    `json:"to"`
	At            time.Time `json:"at"`
}

// Filter narrows a listing. Zero values match everything.
type Filter struct {
	CandidateID string
	CompanyID   string
	JobID       string
	Status      Status
	Query       string
}

// Match reports whether a satisfies every set field of f.
func (f Filter) Match(a Application) bool {
	if f.CandidateID != "" && a.Candidate.ID != f.CandidateID {
		return false
	}
	if f.CompanyID != "" && a.CompanyID != f.CompanyID {
		return false
	}
	if f.JobID != "" && a.JobID != f.JobID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	return MatchesQuery(f.Query, a.Candidate.Name, a.Candidate.Email, a.Candidate.Location, a.JobTitle)
}

// MatchesQuery returns true if query appears (case-insensitive) in any of
// the fields. An empty query matches everything.
func MatchesQuery(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Store is the application status store. UpdateStatus is the only mutating
// operation reachable from the workflow; Insert exists for ingestion.
type Store interface {
	List(ctx context.Context, f Filter) ([]Application, error)
	Get(ctx context.Context, id string) (Application, error)
	// UpdateStatus overwrites the status of id and returns the stored record
	// together with the status it replaced. check runs against the current
	// status before anything is written; a non-nil result aborts the write.
	UpdateStatus(ctx context.Context, id string, to Status, at time.Time, check Policy) (Application, Status, error)
	History(ctx context.Context, id string) ([]HistoryEntry, error)
	Insert(ctx context.Context, a Application) error
}

// ─── Sentinel errors ─────────────────────────────────────────────────────────

// ErrNotFound is returned when an application id is unknown.
var ErrNotFound = errors.New("application not found")

// ErrConflict is returned when inserting an id that already exists.
var ErrConflict = errors.New("application already exists")

// ValidationError wraps a user-facing validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }
