package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"log/slog"

	"github.com/gorilla/mux"

	"github.com/habitek/inspectd/internal/offline"
	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

// defaultItemLabels is the checklist seeded into a freshly created room.
// Creating them is a sequence of independent local writes; if the agent
// dies midway the UI recreates the missing ones on next load.
var defaultItemLabels = []string{"Walls", "Floor", "Ceiling"}

type RoomsHandler struct {
	repo  *offline.Repo
	store repository.LocalStore
}

func NewRoomsHandler(repo *offline.Repo, store repository.LocalStore) *RoomsHandler {
	return &RoomsHandler{repo: repo, store: store}
}

type saveRoomRequest struct {
	models.Room
	WithDefaultItems bool `json:"with_default_items,omitempty"`
}

type saveRoomResponse struct {
	ID     string        `json:"id"`
	Synced bool          `json:"synced"`
	Items  []models.Item `json:"items,omitempty"`
}

func (h *RoomsHandler) SaveRoom(w http.ResponseWriter, r *http.Request) {
	var req saveRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.InspectionID == "" || strings.TrimSpace(req.Name) == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	id, err := h.repo.SaveRoom(r.Context(), &req.Room)
	if err != nil {
		http.Error(w, "failed to save room", http.StatusInternalServerError)
		return
	}

	resp := saveRoomResponse{ID: id, Synced: req.Room.Synced}
	if req.WithDefaultItems {
		for _, label := range defaultItemLabels {
			item := &models.Item{RoomID: id, Label: label}
			if _, err := h.repo.SaveItem(r.Context(), item); err != nil {
				// partial default sets are recoverable; report and move on
				logger.Warn("default item create failed", slog.String("room", id), slog.String("label", label), slog.Any("err", err))
				continue
			}
			resp.Items = append(resp.Items, *item)
		}
	}
	writeJSON(w, resp, http.StatusCreated)
}

func (h *RoomsHandler) ListRooms(w http.ResponseWriter, r *http.Request) {
	inspectionID := mux.Vars(r)["id"]
	out, err := h.store.ListRoomsByInspection(r.Context(), inspectionID)
	if err != nil {
		http.Error(w, "failed to list rooms", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []models.Room{}
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *RoomsHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repo.DeleteRoom(r.Context(), id); err != nil {
		http.Error(w, "failed to delete room", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RoomsHandler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var e models.Item
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if e.RoomID == "" || strings.TrimSpace(e.Label) == "" {
		http.Error(w, "missing fields", http.StatusBadRequest)
		return
	}

	id, err := h.repo.SaveItem(r.Context(), &e)
	if err != nil {
		http.Error(w, "failed to save item", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saveResponse{ID: id, Synced: e.Synced}, http.StatusCreated)
}

func (h *RoomsHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["id"]
	out, err := h.store.ListItemsByRoom(r.Context(), roomID)
	if err != nil {
		http.Error(w, "failed to list items", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []models.Item{}
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *RoomsHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repo.DeleteItem(r.Context(), id); err != nil {
		http.Error(w, "failed to delete item", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
