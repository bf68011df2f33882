package review

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Stats is the per-status summary of a collection of applications.
type Stats struct {
	Pending  int `json:"pending"`
	Reviewed int `json:"reviewed"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
	Unknown  int `json:"unknown,omitempty"` // status outside the enumeration; zero for stored data
	Total    int `json:"total"`
}

// Count returns the count recorded for s.
func (s Stats) Count(st Status) int {
	switch st {
	case StatusPending:
		return s.Pending
	case StatusReviewed:
		return s.Reviewed
	case StatusAccepted:
		return s.Accepted
	case StatusRejected:
		return s.Rejected
	}
	return 0
}

// Aggregate counts apps per status in a single pass. It holds no state: the
// same input always yields the same Stats. Total is len(apps), and the
// per-status counts plus Unknown always sum to it.
func Aggregate(apps []Application) Stats {
	s := Stats{Total: len(apps)}
	for _, a := range apps {
		switch a.Status {
		case StatusPending:
			s.Pending++
		case StatusReviewed:
			s.Reviewed++
		case StatusAccepted:
			s.Accepted++
		case StatusRejected:
			s.Rejected++
		default:
			s.Unknown++
		}
	}
	return s
}

// SortNewest orders apps in place by AppliedAt, newest first. Ties are
// broken by ID so the order is deterministic.
func SortNewest(apps []Application) {
	slices.SortFunc(apps, func(a, b Application) int {
		if c := b.AppliedAt.Compare(a.AppliedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Recent returns up to n applications, newest first. apps is not modified.
func Recent(apps []Application, n int) []Application {
	if n <= 0 {
		return []Application{}
	}
	sorted := slices.Clone(apps)
	SortNewest(sorted)
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// CountByJob returns the number of applications per job id.
func CountByJob(apps []Application) map[string]int {
	return lo.CountValuesBy(apps, func(a Application) string { return a.JobID })
}
