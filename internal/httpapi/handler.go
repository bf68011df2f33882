// Package httpapi implements the HTTP handlers for the review service.
//
// Routes:
//
//	GET  /health                      → liveness
//	GET  /applications                → list applications (filters below)
//	GET  /applications/stats          → per-status counts (same filters)
//	GET  /applications/recent         → newest applications, ?limit=N
//	GET  /applications/{id}           → one application
//	GET  /applications/{id}/history   → status history
//	POST /applications/{id}/status    → status transition, body {"status": "..."}
//	GET  /ws                          → notification stream
//
// Filters: candidateId, companyId, jobId, status, q.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jobboard/review-service/internal/notify"
	"jobboard/review-service/internal/review"
)

const (
	defaultRecentLimit = 5
	maxRecentLimit     = 100
)

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	svc     *review.Service
	hub     *notify.Hub
	logger  *slog.Logger
	version string
}

// NewHandler returns a configured Handler. hub may be nil, in which case
// /ws is not mounted.
func NewHandler(svc *review.Service, hub *notify.Hub, logger *slog.Logger, version string) *Handler {
	return &Handler{svc: svc, hub: hub, logger: logger, version: version}
}

// Routes builds the router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Route("/applications", func(r chi.Router) {
		r.Get("/", h.listApplications)
		r.Get("/stats", h.stats)
		r.Get("/recent", h.recent)
		r.Get("/{id}", h.getApplication)
		r.Get("/{id}/history", h.history)
		r.Post("/{id}/status", h.updateStatus)
	})
	if h.hub != nil {
		r.Get("/ws", notify.ServeWS(h.hub, h.logger))
	}
	return r
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": "review-service",
		"version": h.version,
	})
}

func (h *Handler) listApplications(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	apps, err := h.svc.ListApplications(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, apps)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	stats, err := h.svc.Stats(r.Context(), f)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, stats)
}

func (h *Handler) recent(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	limit := defaultRecentLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 1 || limit > maxRecentLimit {
			jsonError(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
	}
	apps, err := h.svc.Recent(r.Context(), f, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, apps)
}

func (h *Handler) getApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.GetApplication(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, app)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, entries)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Status == "" {
		jsonError(w, "body must contain status", http.StatusBadRequest)
		return
	}

	app, err := h.svc.Transition(r.Context(), chi.URLParam(r, "id"), review.Status(body.Status))
	if err != nil {
		h.writeError(w, err)
		return
	}
	jsonOK(w, app)
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func filterFromQuery(r *http.Request) (review.Filter, error) {
	q := r.URL.Query()
	f := review.Filter{
		CandidateID: q.Get("candidateId"),
		CompanyID:   q.Get("companyId"),
		JobID:       q.Get("jobId"),
		Query:       q.Get("q"),
	}
	if s := q.Get("status"); s != "" {
		st, err := review.NormalizeStatus(s)
		if err != nil {
			return review.Filter{}, &review.ValidationError{Msg: err.Error()}
		}
		f.Status = st
	}
	return f, nil
}

// writeError maps domain errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var ve *review.ValidationError
	switch {
	case errors.Is(err, review.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &ve):
		jsonError(w, ve.Msg, http.StatusBadRequest)
	default:
		h.logger.Error("request failed", "err", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
	}
}

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
