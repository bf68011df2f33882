// Package board is the client-side view of the review workflow: a snapshot
// of applications and their stats that a dashboard renders, kept in step
// with the backend one transition at a time.
package board

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"jobboard/review-service/internal/review"
)

// Backend is the subset of the review API the board calls.
// *client.Client satisfies it.
type Backend interface {
	List(ctx context.Context, f review.Filter) ([]review.Application, error)
	UpdateStatus(ctx context.Context, id string, status review.Status) (review.Application, error)
}

// Toaster shows transient messages to the user.
type Toaster interface {
	Success(msg string)
	Error(msg string)
}

// Board holds the current snapshot. The zero value is not usable; call New.
type Board struct {
	backend Backend
	toaster Toaster

	mu     sync.RWMutex
	filter review.Filter
	apps   []review.Application
	stats  review.Stats
}

// New returns an empty board.
func New(backend Backend, toaster Toaster) *Board {
	return &Board{backend: backend, toaster: toaster}
}

// Load replaces the snapshot with the applications matching f.
func (b *Board) Load(ctx context.Context, f review.Filter) error {
	apps, err := b.backend.List(ctx, f)
	if err != nil {
		b.toaster.Error("Failed to load applications")
		return fmt.Errorf("load: %w", err)
	}

	b.mu.Lock()
	b.filter = f
	b.apps = apps
	b.stats = review.Aggregate(apps)
	b.mu.Unlock()
	return nil
}

// Transition asks the backend to move id to status. On success the entry is
// replaced, or dropped when it no longer matches the loaded filter, and the
// stats recomputed. On failure the snapshot is left exactly
// as it was and the error is returned so the user can retry.
func (b *Board) Transition(ctx context.Context, id string, status review.Status) (review.Application, error) {
	app, err := b.backend.UpdateStatus(ctx, id, status)
	if err != nil {
		b.toaster.Error("Failed to update application status")
		return review.Application{}, err
	}

	b.mu.Lock()
	for i := range b.apps {
		if b.apps[i].ID != id {
			continue
		}
		if b.filter.Match(app) {
			b.apps[i] = app
		} else {
			b.apps = slices.Delete(b.apps, i, i+1)
		}
		break
	}
	b.stats = review.Aggregate(b.apps)
	b.mu.Unlock()

	b.toaster.Success(fmt.Sprintf("Application status updated to %s", app.Status))
	return app, nil
}

// Applications returns a copy of the snapshot.
func (b *Board) Applications() []review.Application {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]review.Application(nil), b.apps...)
}

// Stats returns the stats of the snapshot.
func (b *Board) Stats() review.Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stats
}

// Filter returns the filter of the last successful Load.
func (b *Board) Filter() review.Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}
