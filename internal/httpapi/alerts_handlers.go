package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"habita-engine/internal/domain"
	"habita-engine/internal/events"
	"habita-engine/internal/notify"
	"habita-engine/internal/store"
)

type AlertsHandler struct {
	DB     *sql.DB
	Hub    *events.Hub
	Mailer notify.Mailer // nil disables confirmation mail
}

type createAlertRequest struct {
	Email    string          `json:"email"`
	Name     string          `json:"name"`
	Criteria domain.Criteria `json:"criteria"`
}

func (h AlertsHandler) List(w http.ResponseWriter, r *http.Request) {
	alerts, err := store.ListAlerts(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if alerts == nil {
		alerts = []store.Alert{}
	}
	writeJSON(w, alerts)
}

func (h AlertsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "a valid email is required")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		req.Name = "Búsqueda guardada"
	}

	req.Criteria.Normalize()
	criteriaJSON, err := json.Marshal(req.Criteria)
	if err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	id, err := store.InsertAlert(r.Context(), h.DB, req.Email, req.Name, string(criteriaJSON))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	// confirmation is best-effort; the alert exists either way
	if h.Mailer != nil {
		go func(to, name string) {
			if err := h.Mailer.SendConfirmation(to, name); err != nil {
				log.Printf("[alerts] confirmation to %s failed: %v", to, err)
			}
		}(req.Email, req.Name)
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeAlertCreated, 1, map[string]any{"id": id}))
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id})
}

func (h AlertsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}

	if err := store.DeleteAlert(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, r, http.StatusNotFound, "not_found", "alert not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}
