package client_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/review-service/internal/client"
	"jobboard/review-service/internal/httpapi"
	"jobboard/review-service/internal/review"
	"jobboard/review-service/internal/store"
)

func newClient(t *testing.T) *client.Client {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := store.NewMemoryStore()
	t.Cleanup(st.Close)
	apps, err := store.DefaultFixtures()
	require.NoError(t, err)
	_, err = store.Seed(context.Background(), st, apps)
	require.NoError(t, err)

	svc := review.NewService(st, nil, review.WithLogger(logger))
	srv := httptest.NewServer(httpapi.NewHandler(svc, nil, logger, "test").Routes())
	t.Cleanup(srv.Close)
	return client.New(srv.URL + "/")
}

func TestList(t *testing.T) {
	c := newClient(t)

	apps, err := c.List(context.Background(), review.Filter{CompanyID: "cmp_02"})
	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "app_006", apps[0].ID)
}

func TestUpdateStatusAndStats(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	app, err := c.UpdateStatus(ctx, "app_004", review.StatusReviewed)
	require.NoError(t, err)
	assert.Equal(t, review.StatusReviewed, app.Status)

	stats, err := c.Stats(ctx, review.Filter{CompanyID: "cmp_01"})
	require.NoError(t, err)
	assert.Equal(t, review.Stats{Pending: 1, Reviewed: 2, Accepted: 1, Total: 4}, stats)
}

func TestUpdateStatus_Errors(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	_, err := c.UpdateStatus(ctx, "app_999", review.StatusAccepted)
	assert.ErrorIs(t, err, review.ErrNotFound)

	_, err = c.UpdateStatus(ctx, "app_001", review.Status("Hired"))
	var ve *review.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Msg, "Hired")
}

func TestServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).Stats(context.Background(), review.Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "internal server error")
	assert.NotErrorIs(t, err, review.ErrNotFound)
}
