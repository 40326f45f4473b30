package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/habitek/inspectd/internal/offline"
	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

type MediaHandler struct {
	repo  *offline.Repo
	store repository.LocalStore
}

func NewMediaHandler(repo *offline.Repo, store repository.LocalStore) *MediaHandler {
	return &MediaHandler{repo: repo, store: store}
}

// SaveMedia registers a captured photo or video. The blob itself stays on
// the device filesystem (local_path) until the drain uploads it.
func (h *MediaHandler) SaveMedia(w http.ResponseWriter, r *http.Request) {
	var e models.Media
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if e.ItemID == "" {
		http.Error(w, "missing item_id", http.StatusBadRequest)
		return
	}
	if e.Kind != models.MediaPhoto && e.Kind != models.MediaVideo {
		http.Error(w, "unknown media kind", http.StatusBadRequest)
		return
	}

	id, err := h.repo.SaveMedia(r.Context(), &e)
	if err != nil {
		http.Error(w, "failed to save media", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saveResponse{ID: id, Synced: e.Synced}, http.StatusCreated)
}

func (h *MediaHandler) ListMedia(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["id"]
	out, err := h.store.ListMediaByItem(r.Context(), itemID)
	if err != nil {
		http.Error(w, "failed to list media", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []models.Media{}
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *MediaHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repo.DeleteMedia(r.Context(), id); err != nil {
		http.Error(w, "failed to delete media", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
