// Package review defines the application status workflow of the job board.
//
// Status values:
//
//	Pending ──► Reviewed ──► Accepted
//	   │            │
//	   └────────────┴──────► Rejected
//
// The graph above is only enforced by the strict policy. The default policy
// is a plain field overwrite: any status may follow any other.
package review

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the closed set of application states.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusReviewed Status = "Reviewed"
	StatusAccepted Status = "Accepted"
	StatusRejected Status = "Rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

// ErrUnreconciledStatus is returned for lowercase backend statuses that have
// no agreed mapping onto the canonical enumeration.
var ErrUnreconciledStatus = errors.New("status has no canonical mapping")

// legacyStatuses maps the lowercase live-backend spelling onto the canonical
// values. Only used at the ingestion boundary.
var legacyStatuses = map[string]Status{
	"pending":   StatusPending,
	"reviewing": StatusReviewed,
	"reviewed":  StatusReviewed,
	"accepted":  StatusAccepted,
	"rejected":  StatusRejected,
}

// unreconciled holds backend statuses we refuse to guess a mapping for.
var unreconciled = map[string]bool{
	"shortlisted": true,
	"interview":   true,
}

// strictTransitions lists every allowed (from → to) pair under the strict
// policy. Accepted and Rejected are terminal.
var strictTransitions = map[Status][]Status{
	StatusPending:  {StatusReviewed, StatusRejected},
	StatusReviewed: {StatusAccepted, StatusRejected},
}

// ParseStatus converts a raw canonical string to a Status. It is
// case-sensitive; use NormalizeStatus for ingested data.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusPending, StatusReviewed, StatusAccepted, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// NormalizeStatus accepts either the canonical spelling or the legacy
// lowercase one and returns the canonical Status.
func NormalizeStatus(s string) (Status, error) {
	raw := strings.TrimSpace(s)
	if st, err := ParseStatus(raw); err == nil {
		return st, nil
	}
	lower := strings.ToLower(raw)
	if st, ok := legacyStatuses[lower]; ok {
		return st, nil
	}
	if unreconciled[lower] {
		return "", fmt.Errorf("%w: %q", ErrUnreconciledStatus, raw)
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// IsTransitionAllowed reports whether from → to is permitted by the strict
// policy. Writing the current status again is always allowed.
func IsTransitionAllowed(from, to Status) bool {
	if from == to {
		return true
	}
	for _, s := range strictTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s has no outgoing transitions under the strict
// policy.
func IsTerminal(s Status) bool {
	_, ok := strictTransitions[s]
	return !ok
}

// Policy decides whether a transition may be written.
type Policy func(from, to Status) error

// Permissive allows every transition.
func Permissive(from, to Status) error { return nil }

// Strict enforces the status graph documented on the package.
func Strict(from, to Status) error {
	if !IsTransitionAllowed(from, to) {
		return &ValidationError{Msg: fmt.Sprintf("transition %s → %s is not allowed", from, to)}
	}
	return nil
}
