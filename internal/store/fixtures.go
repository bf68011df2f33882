package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"jobboard/review-service/internal/review"
)

//go:embed fixtures/applications.json
var defaultFixtures []byte

// DefaultFixtures returns the bundled mock applications.
func DefaultFixtures() ([]review.Application, error) {
	return ParseFixtures(defaultFixtures)
}

// Fallback chains for loosely typed mock data. The first present path wins.
var (
	appliedAtPaths = []string{"appliedAt", "date", "appliedDate"}
	updatedAtPaths = []string{"updatedAt"}
	candIDPaths    = []string{"candidate.id", "candidateId", "userId"}
	candNamePaths  = []string{"candidate.name", "candidateName", "name"}
	candEmailPaths = []string{"candidate.email", "candidateEmail", "email"}
	candLocPaths   = []string{"candidate.location", "candidateLocation", "location"}
	jobIDPaths     = []string{"jobId", "job.id"}
	jobTitlePaths  = []string{"jobTitle", "job.title", "position"}
	companyIDPaths = []string{"companyId", "job.companyId", "job.company.id"}
	coverPaths     = []string{"coverLetter"}
	resumePaths    = []string{"resume", "resumeUrl", "cvFile"}
)

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

// ParseFixtures decodes a JSON array of mock applications. This is the one
// place where fallback field names and legacy status spellings are resolved;
// the returned applications are fully normalised.
func ParseFixtures(data []byte) ([]review.Application, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("fixtures: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, errors.New("fixtures: expected a JSON array")
	}

	var (
		apps []review.Application
		errs []error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		a, err := parseFixture(value)
		if err != nil {
			errs = append(errs, fmt.Errorf("fixtures[%d]: %w", key.Int(), err))
			return true
		}
		apps = append(apps, a)
		return true
	})
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return apps, nil
}

func parseFixture(v gjson.Result) (review.Application, error) {
	st, err := review.NormalizeStatus(v.Get("status").String())
	if err != nil {
		return review.Application{}, err
	}
	appliedAt, err := firstTime(v, appliedAtPaths)
	if err != nil {
		return review.Application{}, err
	}
	a := review.Application{
		ID:        v.Get("id").String(),
		JobID:     first(v, jobIDPaths),
		JobTitle:  first(v, jobTitlePaths),
		CompanyID: first(v, companyIDPaths),
		Candidate: review.Candidate{
			ID:       first(v, candIDPaths),
			Name:     first(v, candNamePaths),
			Email:    first(v, candEmailPaths),
			Location: first(v, candLocPaths),
		},
		Status:      st,
		AppliedAt:   appliedAt,
		CoverLetter: optional(v, coverPaths),
		ResumeRef:   optional(v, resumePaths),
	}
	if updated, err := firstTime(v, updatedAtPaths); err == nil {
		a.UpdatedAt = updated
	} else {
		a.UpdatedAt = appliedAt
	}
	if err := validate(a); err != nil {
		return review.Application{}, err
	}
	return a, nil
}

func first(v gjson.Result, paths []string) string {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() && r.String() != "" {
			return r.String()
		}
	}
	return ""
}

func optional(v gjson.Result, paths []string) *string {
	s := first(v, paths)
	if s == "" {
		return nil
	}
	return &s
}

func firstTime(v gjson.Result, paths []string) (time.Time, error) {
	raw := first(v, paths)
	if raw == "" {
		return time.Time{}, fmt.Errorf("missing %s", strings.Join(paths, "|"))
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", raw)
}

// Seed inserts apps into s. Applications that already exist are skipped so
// seeding is safe to repeat.
func Seed(ctx context.Context, s review.Store, apps []review.Application) (inserted int, err error) {
	for _, a := range apps {
		if err := s.Insert(ctx, a); err != nil {
			if errors.Is(err, review.ErrConflict) {
				continue
			}
			return inserted, err
		}
		inserted++
	}
	return inserted, nil
}
