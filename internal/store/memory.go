// Package store provides the application status store implementations.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"jobboard/review-service/internal/review"
)

// ErrClosed is returned by a MemoryStore after Close.
var ErrClosed = errors.New("store closed")

type command struct {
	fn   func(*memState)
	done chan struct{}
}

type memState struct {
	apps    map[string]review.Application
	history map[string][]review.HistoryEntry
}

// MemoryStore keeps applications in memory. A single goroutine owns the
// data; every read and write is a command sent to it, and callers only ever
// receive copies.
type MemoryStore struct {
	cmds      chan command
	quit      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore starts the owner goroutine. Call Close to stop it.
func NewMemoryStore() *MemoryStore {
	m := &MemoryStore{
		cmds: make(chan command),
		quit: make(chan struct{}),
	}
	st := &memState{
		apps:    make(map[string]review.Application),
		history: make(map[string][]review.HistoryEntry),
	}
	go m.loop(st)
	return m
}

func (m *MemoryStore) loop(st *memState) {
	for {
		select {
		case c := <-m.cmds:
			c.fn(st)
			close(c.done)
		case <-m.quit:
			return
		}
	}
}

// Close stops the owner goroutine. Later calls fail with ErrClosed.
func (m *MemoryStore) Close() {
	m.closeOnce.Do(func() { close(m.quit) })
}

// do runs fn on the owner goroutine. ctx only bounds the wait for the owner
// to accept the command; once accepted the command always completes.
func (m *MemoryStore) do(ctx context.Context, fn func(*memState)) error {
	c := command{fn: fn, done: make(chan struct{})}
	select {
	case m.cmds <- c:
	case <-m.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-c.done
	return nil
}

// List implements review.Store. Results are ordered newest first.
func (m *MemoryStore) List(ctx context.Context, f review.Filter) ([]review.Application, error) {
	apps := make([]review.Application, 0)
	err := m.do(ctx, func(st *memState) {
		for _, a := range st.apps {
			if f.Match(a) {
				apps = append(apps, clone(a))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	review.SortNewest(apps)
	return apps, nil
}

// Get implements review.Store.
func (m *MemoryStore) Get(ctx context.Context, id string) (review.Application, error) {
	var (
		app   review.Application
		found bool
	)
	err := m.do(ctx, func(st *memState) {
		a, ok := st.apps[id]
		if ok {
			app, found = clone(a), true
		}
	})
	if err != nil {
		return review.Application{}, err
	}
	if !found {
		return review.Application{}, review.ErrNotFound
	}
	return app, nil
}

// UpdateStatus implements review.Store.
func (m *MemoryStore) UpdateStatus(ctx context.Context, id string, to review.Status, at time.Time, check review.Policy) (review.Application, review.Status, error) {
	var (
		app  review.Application
		from review.Status
		werr error
	)
	err := m.do(ctx, func(st *memState) {
		cur, ok := st.apps[id]
		if !ok {
			werr = review.ErrNotFound
			return
		}
		from = cur.Status
		if check != nil {
			if werr = check(from, to); werr != nil {
				return
			}
		}
		if from != to {
			cur.Status = to
			cur.UpdatedAt = at
			st.apps[id] = cur
			st.history[id] = append(st.history[id], review.HistoryEntry{
				ApplicationID: id,
				From:          from,
				To:            to,
				At:            at,
			})
		}
		app = clone(cur)
	})
	if err != nil {
		return review.Application{}, "", err
	}
	if werr != nil {
		return review.Application{}, "", werr
	}
	return app, from, nil
}

// History implements review.Store.
func (m *MemoryStore) History(ctx context.Context, id string) ([]review.HistoryEntry, error) {
	entries := make([]review.HistoryEntry, 0)
	err := m.do(ctx, func(st *memState) {
		entries = append(entries, st.history[id]...)
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Insert implements review.Store.
func (m *MemoryStore) Insert(ctx context.Context, a review.Application) error {
	if err := validate(a); err != nil {
		return err
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = a.AppliedAt
	}
	a = clone(a)
	var werr error
	err := m.do(ctx, func(st *memState) {
		if _, ok := st.apps[a.ID]; ok {
			werr = fmt.Errorf("insert %s: %w", a.ID, review.ErrConflict)
			return
		}
		st.apps[a.ID] = a
	})
	if err != nil {
		return err
	}
	return werr
}

// validate checks the invariants every stored application satisfies.
func validate(a review.Application) error {
	switch {
	case a.ID == "":
		return &review.ValidationError{Msg: "application id is required"}
	case a.JobID == "":
		return &review.ValidationError{Msg: fmt.Sprintf("application %s: job id is required", a.ID)}
	case a.Candidate.ID == "":
		return &review.ValidationError{Msg: fmt.Sprintf("application %s: candidate id is required", a.ID)}
	case a.AppliedAt.IsZero():
		return &review.ValidationError{Msg: fmt.Sprintf("application %s: appliedAt is required", a.ID)}
	}
	if _, err := review.ParseStatus(string(a.Status)); err != nil {
		return &review.ValidationError{Msg: fmt.Sprintf("application %s: %v", a.ID, err)}
	}
	return nil
}

func clone(a review.Application) review.Application {
	if a.CoverLetter != nil {
		v := *a.CoverLetter
		a.CoverLetter = &v
	}
	if a.ResumeRef != nil {
		v := *a.ResumeRef
		a.ResumeRef = &v
	}
	return a
}
