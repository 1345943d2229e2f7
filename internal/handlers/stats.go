package handlers

import (
	"context"
	"net/http"

	"prepboard-backend/internal/middleware"
	"prepboard-backend/internal/models"
	"prepboard-backend/internal/stats"
)

type StatsHandler struct {
	store   *stats.Store
	catalog models.SubjectCatalog
	base    context.Context
}

// NewStatsHandler takes a base context for background refreshes; cancelling
// it at shutdown ends any refresh still in flight.
func NewStatsHandler(base context.Context, store *stats.Store, catalog models.SubjectCatalog) *StatsHandler {
	return &StatsHandler{store: store, catalog: catalog, base: base}
}

// Get returns the latest snapshot together with the loading flag. When
// nothing has been computed yet it falls back to the redis cache, and
// failing that kicks off a background refresh so a retry succeeds.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	snap, loading, ok, refreshErr := h.store.Snapshot(userID)
	if !ok {
		if cached, hit := h.store.CachedSnapshot(r.Context(), userID); hit {
			snap, ok = cached, true
		}
	}

	resp := map[string]interface{}{
		"loading": loading,
	}
	if ok {
		resp["snapshot"] = snap
	}
	if refreshErr != nil {
		resp["error"] = "Could not load stats. Try refreshing."
	}
	if !ok && !loading {
		// The refresh must outlive this request, so it runs on the
		// server-scoped context rather than the request's.
		go h.store.Refresh(h.base, userID)
		resp["loading"] = true
	}

	writeJSON(w, http.StatusOK, resp)
}

// Refresh recomputes the snapshot synchronously and returns it. Concurrent
// calls for the same user share one computation.
func (h *StatsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.store.Refresh(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("STATS_UNAVAILABLE", "Could not load stats. Try refreshing.", r))
		return
	}

	snap, _, _, _ := h.store.Snapshot(userID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot": snap,
	})
}

// Subjects exposes the static catalog to the question browser UI.
func (h *StatsHandler) Subjects(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subjects":        h.catalog,
		"total_questions": h.catalog.TotalQuestions(),
	})
}
