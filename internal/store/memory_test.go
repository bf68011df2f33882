package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/review-service/internal/review"
)

func testApp(id string, status review.Status, appliedAt time.Time) review.Application {
	return review.Application{
		ID:        id,
		JobID:     "job_1",
		CompanyID: "cmp_1",
		Candidate: review.Candidate{ID: "cand_" + id, Name: "Candidate " + id},
		Status:    status,
		AppliedAt: appliedAt,
	}
}

func newSeededMemory(t *testing.T) *MemoryStore {
	t.Helper()
	m := NewMemoryStore()
	t.Cleanup(m.Close)
	apps, err := DefaultFixtures()
	require.NoError(t, err)
	n, err := Seed(context.Background(), m, apps)
	require.NoError(t, err)
	require.Equal(t, len(apps), n)
	return m
}

func TestMemoryStore_InsertAndGet(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.Insert(ctx, testApp("a1", review.StatusPending, at)))

	got, err := m.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, review.StatusPending, got.Status)
	assert.Equal(t, at, got.UpdatedAt, "UpdatedAt defaults to AppliedAt")

	err = m.Insert(ctx, testApp("a1", review.StatusPending, at))
	assert.ErrorIs(t, err, review.ErrConflict)
}

func TestMemoryStore_InsertValidates(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()
	at := time.Now()

	cases := map[string]review.Application{
		"no id":        testApp("", review.StatusPending, at),
		"bad status":   testApp("x", review.Status("pending"), at),
		"no appliedAt": testApp("x", review.StatusPending, time.Time{}),
	}
	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			var ve *review.ValidationError
			assert.ErrorAs(t, m.Insert(context.Background(), a), &ve)
		})
	}
}

func TestMemoryStore_GetNotFound(t *testing.T) {
	m := newSeededMemory(t)
	_, err := m.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, review.ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	m := newSeededMemory(t)
	ctx := context.Background()

	got, err := m.Get(ctx, "app_001")
	require.NoError(t, err)
	require.NotNil(t, got.CoverLetter)
	*got.CoverLetter = "changed"
	got.Status = review.StatusRejected

	again, err := m.Get(ctx, "app_001")
	require.NoError(t, err)
	assert.Equal(t, review.StatusPending, again.Status)
	assert.NotEqual(t, "changed", *again.CoverLetter)
}

func TestMemoryStore_ListOrderAndFilter(t *testing.T) {
	m := newSeededMemory(t)
	ctx := context.Background()

	all, err := m.List(ctx, review.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].AppliedAt.After(all[i-1].AppliedAt), "list must be newest first")
	}

	byCandidate, err := m.List(ctx, review.Filter{CandidateID: "cand_01"})
	require.NoError(t, err)
	assert.Len(t, byCandidate, 2)

	search, err := m.List(ctx, review.Filter{Query: "kandy"})
	require.NoError(t, err)
	require.Len(t, search, 1)
	assert.Equal(t, "app_002", search[0].ID)
}

func TestMemoryStore_UpdateStatusCheckAborts(t *testing.T) {
	m := newSeededMemory(t)
	ctx := context.Background()

	_, _, err := m.UpdateStatus(ctx, "app_005", review.StatusPending, time.Now(), review.Strict)
	var ve *review.ValidationError
	require.ErrorAs(t, err, &ve)

	got, err := m.Get(ctx, "app_005")
	require.NoError(t, err)
	assert.Equal(t, review.StatusRejected, got.Status)
}

func TestMemoryStore_ConcurrentTransitionsLastWriteWins(t *testing.T) {
	m := newSeededMemory(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			to := review.Statuses[i%len(review.Statuses)]
			_, _, err := m.UpdateStatus(ctx, "app_004", to, time.Now(), review.Permissive)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := m.Get(ctx, "app_004")
	require.NoError(t, err)
	_, err = review.ParseStatus(string(got.Status))
	assert.NoError(t, err, "status must be exactly one enumeration value")

	history, err := m.History(ctx, "app_004")
	require.NoError(t, err)
	if len(history) > 0 {
		assert.Equal(t, got.Status, history[len(history)-1].To)
	}
}

func TestMemoryStore_Closed(t *testing.T) {
	m := NewMemoryStore()
	m.Close()
	m.Close()

	_, err := m.List(context.Background(), review.Filter{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMemoryStore_ContextCancelled(t *testing.T) {
	m := NewMemoryStore()
	defer m.Close()

	// Keep the owner busy so the next command cannot be accepted.
	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = m.do(context.Background(), func(*memState) {
			close(started)
			<-release
		})
	}()
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Get(ctx, "x")
	close(release)
	assert.ErrorIs(t, err, context.Canceled)
}

func ExampleMemoryStore() {
	m := NewMemoryStore()
	defer m.Close()
	ctx := context.Background()

	_ = m.Insert(ctx, testApp("app_1", review.StatusPending, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	app, from, _ := m.UpdateStatus(ctx, "app_1", review.StatusReviewed, time.Now(), review.Permissive)
	fmt.Println(from, "→", app.Status)
	// Output: Pending → Reviewed
}
