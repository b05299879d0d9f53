package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/dexwatch/internal/feed"
)

// FeedStatus reports the ingestion side's lifecycle phase.
type FeedStatus interface {
	State() feed.State
}

// StoreStatus reports how many raw facts the store holds.
type StoreStatus interface {
	Counts() (orders, cancellations, trades int)
}

// HealthHandler serves the health-check endpoint.
type HealthHandler struct {
	feed  FeedStatus
	store StoreStatus
}

// NewHealthHandler creates a HealthHandler reporting on the given feed and store.
func NewHealthHandler(feed FeedStatus, store StoreStatus) *HealthHandler {
	return &HealthHandler{feed: feed, store: store}
}

// HealthCheck responds with liveness plus the feed state and store counts.
// GET /api/health
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	orders, cancellations, trades := h.store.Counts()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"feed_state":    string(h.feed.State()),
		"orders":        orders,
		"cancellations": cancellations,
		"trades":        trades,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
	})
}
