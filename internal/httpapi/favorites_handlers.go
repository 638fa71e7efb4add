package httpapi

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"habita-engine/internal/domain"
	"habita-engine/internal/events"
	"habita-engine/internal/store"
)

type FavoritesHandler struct {
	DB  *sql.DB
	Hub *events.Hub
}

func (h FavoritesHandler) List(w http.ResponseWriter, r *http.Request) {
	favs, err := store.ListFavorites(r.Context(), h.DB)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if favs == nil {
		favs = []store.Favorite{}
	}
	writeJSON(w, favs)
}

func (h FavoritesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var l domain.Listing
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid JSON: "+err.Error())
		return
	}
	if l.URL == "" || l.Title == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "title and url are required")
		return
	}

	id, err := store.InsertFavorite(r.Context(), h.DB, l)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	reqID := RequestIDFrom(r.Context())
	h.Hub.Publish(events.MakeEvent(reqID, events.TypeFavoriteSaved, 1, map[string]any{"id": id}))
	WriteJSON(w, http.StatusCreated, map[string]any{"ok": true, "id": id})
}

func (h FavoritesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid id")
		return
	}

	if err := store.DeleteFavorite(r.Context(), h.DB, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteError(w, r, http.StatusNotFound, "not_found", "favorite not found")
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	writeJSON(w, map[string]any{"ok": true, "id": id})
}
