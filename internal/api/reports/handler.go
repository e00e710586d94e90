package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"finsight/internal/domain/report"
	"finsight/pkg/errors"
	"finsight/pkg/logger"
)

// Store is the read side of report persistence
type Store interface {
	GetByRunID(ctx context.Context, runID string) (*report.Report, error)
	GetLatest(ctx context.Context, kind report.Kind) (*report.Report, error)
	ListRecentFailures(ctx context.Context, kind report.Kind, limit int) ([]*report.FailureRecord, error)
}

const (
	defaultFailureLimit = 20
	maxFailureLimit     = 200
)

// Handler serves read-only report lookups
type Handler struct {
	store Store
	log   *logger.Logger
}

func New(store Store, log *logger.Logger) *Handler {
	return &Handler{store: store, log: log}
}

// Register mounts the routes on mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /reports/latest", h.HandleLatest)
	mux.HandleFunc("GET /reports/{run_id}", h.HandleGet)
	mux.HandleFunc("GET /failures", h.HandleFailures)
}

// HandleLatest returns the newest report of ?kind=
func (h *Handler) HandleLatest(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	rep, err := h.store.GetLatest(r.Context(), kind)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleGet returns the report of one run
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	rep, err := h.store.GetByRunID(r.Context(), r.PathValue("run_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleFailures lists recent failure records of ?kind=, newest first
func (h *Handler) HandleFailures(w http.ResponseWriter, r *http.Request) {
	kind, err := parseKind(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	limit := defaultFailureLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			h.writeError(w, errors.Wrapf(errors.ErrInvalidInput, "limit %q", raw))
			return
		}
		limit = min(n, maxFailureLimit)
	}

	failures, err := h.store.ListRecentFailures(r.Context(), kind, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if failures == nil {
		failures = []*report.FailureRecord{}
	}
	writeJSON(w, http.StatusOK, failures)
}

func parseKind(r *http.Request) (report.Kind, error) {
	kind := report.Kind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		return "", errors.Wrapf(errors.ErrInvalidInput, "unknown workflow kind %q", kind)
	}
	return kind, nil
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, errors.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, errors.ErrInvalidInput):
		code = http.StatusBadRequest
	default:
		h.log.Error("Report lookup failed", "error", err)
	}
	writeJSON(w, code, map[string]string{"error": err.Error(), "kind": errors.KindOf(err).String()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
