package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"habita-engine/internal/domain"
	"habita-engine/internal/events"
)

type SearchHandler struct {
	Hub       *events.Hub
	RunSearch func(ctx context.Context, c domain.Criteria) domain.SearchResult
}

func (h SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var c domain.Criteria
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}

	res := h.RunSearch(r.Context(), c)

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeSearchCompleted, 1, map[string]any{
		"total":   res.Total,
		"sources": len(res.SourceErrors),
	}))
	writeJSON(w, res)
}
