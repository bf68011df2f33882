package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobboard/review-service/internal/notify"
	"jobboard/review-service/internal/review"
	"jobboard/review-service/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, *notify.Hub) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := store.NewMemoryStore()
	t.Cleanup(st.Close)
	apps, err := store.DefaultFixtures()
	require.NoError(t, err)
	_, err = store.Seed(context.Background(), st, apps)
	require.NoError(t, err)

	hub := notify.NewHub(logger)
	svc := review.NewService(st, hub, review.WithLogger(logger))
	srv := httptest.NewServer(NewHandler(svc, hub, logger, "test").Routes())
	t.Cleanup(srv.Close)
	return srv, hub
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	return resp.StatusCode
}

func postStatus(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)
	var body map[string]string
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/health", &body))
	assert.Equal(t, "ok", body["status"])
}

func TestListApplications_Filters(t *testing.T) {
	srv, _ := newTestServer(t)

	var all []review.Application
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications", &all))
	assert.Len(t, all, 6)

	var pending []review.Application
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications?status=pending&companyId=cmp_01", &pending))
	require.Len(t, pending, 2)
	for _, a := range pending {
		assert.Equal(t, review.StatusPending, a.Status)
	}

	var errBody map[string]string
	require.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/applications?status=interview", &errBody))
	assert.Contains(t, errBody["error"], "no canonical mapping")
}

func TestUpdateStatus_App004(t *testing.T) {
	srv, _ := newTestServer(t)

	var before review.Stats
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications/stats", &before))

	resp, body := postStatus(t, srv.URL+"/applications/app_004/status", `{"status":"Reviewed"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Reviewed", body["status"])

	var got review.Application
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications/app_004", &got))
	assert.Equal(t, review.StatusReviewed, got.Status)

	var after review.Stats
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications/stats", &after))
	assert.Equal(t, before.Pending-1, after.Pending)
	assert.Equal(t, before.Reviewed+1, after.Reviewed)

	var history []review.HistoryEntry
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications/app_004/history", &history))
	assert.Len(t, history, 1)
}

func TestUpdateStatus_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	cases := []struct {
		name string
		path string
		body string
		code int
	}{
		{"unknown id", "/applications/app_999/status", `{"status":"Accepted"}`, http.StatusNotFound},
		{"unknown status", "/applications/app_004/status", `{"status":"Hired"}`, http.StatusBadRequest},
		{"unreconciled status", "/applications/app_004/status", `{"status":"shortlisted"}`, http.StatusBadRequest},
		{"missing status", "/applications/app_004/status", `{}`, http.StatusBadRequest},
		{"bad json", "/applications/app_004/status", `{`, http.StatusBadRequest},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			resp, body := postStatus(t, srv.URL+c.path, c.body)
			assert.Equal(t, c.code, resp.StatusCode)
			assert.NotEmpty(t, body["error"])
		})
	}

	var got review.Application
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications/app_004", &got))
	assert.Equal(t, review.StatusPending, got.Status)
}

func TestRecent(t *testing.T) {
	srv, _ := newTestServer(t)

	var apps []review.Application
	require.Equal(t, http.StatusOK, getJSON(t, srv.URL+"/applications/recent?limit=2", &apps))
	require.Len(t, apps, 2)
	assert.Equal(t, "app_006", apps[0].ID)

	var errBody map[string]string
	assert.Equal(t, http.StatusBadRequest, getJSON(t, srv.URL+"/applications/recent?limit=0", &errBody))
}

func TestGetApplication_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)
	var errBody map[string]string
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/applications/nope", &errBody))
	assert.Equal(t, http.StatusNotFound, getJSON(t, srv.URL+"/applications/nope/history", &errBody))
}

func TestWebsocketReceivesTransition(t *testing.T) {
	srv, hub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	resp, _ := postStatus(t, srv.URL+"/applications/app_001/status", `{"status":"Accepted"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var n notify.Notification
	require.NoError(t, json.Unmarshal(msg, &n))
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "app_001", n.ApplicationID)
	require.NotNil(t, n.Event)
	assert.Equal(t, "Pending", n.Event.From)
	assert.Equal(t, "Accepted", n.Event.To)
}

func TestWebsocketReceivesRejectedStatus(t *testing.T) {
	srv, hub := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Len() == 1 }, time.Second, 10*time.Millisecond)

	resp, body := postStatus(t, srv.URL+"/applications/app_001/status", `{"status":"Hired"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "Hired")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var n notify.Notification
	require.NoError(t, json.Unmarshal(msg, &n))
	assert.Equal(t, notify.KindError, n.Kind)
	assert.Equal(t, "app_001", n.ApplicationID)
	assert.Nil(t, n.Event)
}
