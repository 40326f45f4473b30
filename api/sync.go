package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/habitek/inspectd/internal/syncer"
	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

type SyncHandler struct {
	sync  *syncer.Syncer
	store repository.LocalStore
}

func NewSyncHandler(s *syncer.Syncer, store repository.LocalStore) *SyncHandler {
	return &SyncHandler{sync: s, store: store}
}

func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	st, err := h.sync.Status(r.Context())
	if err != nil {
		http.Error(w, "failed to read sync status", http.StatusInternalServerError)
		return
	}
	writeJSON(w, st, http.StatusOK)
}

// TriggerSync is the manual retry button. The drain runs in the background;
// the UI polls /v1/status for progress. Requests while offline are rejected
// so the UI can tell the user immediately.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	st, err := h.sync.Status(r.Context())
	if err == nil && !st.Online {
		http.Error(w, "offline", http.StatusConflict)
		return
	}
	go func() {
		if err := h.sync.Drain(context.Background()); err != nil && !errors.Is(err, syncer.ErrOffline) {
			logger.Error("manual drain failed", slog.Any("err", err))
		}
	}()
	writeJSON(w, map[string]string{"status": "draining"}, http.StatusAccepted)
}

type hydrateRequest struct {
	InspectorID string `json:"inspector_id"`
}

func (h *SyncHandler) Hydrate(w http.ResponseWriter, r *http.Request) {
	var req hydrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if req.InspectorID == "" {
		if v, ok := r.Context().Value(CtxInspectorID).(string); ok {
			req.InspectorID = v
		}
	}
	if req.InspectorID == "" {
		http.Error(w, "missing inspector_id", http.StatusBadRequest)
		return
	}

	if err := h.sync.Hydrate(r.Context(), req.InspectorID); err != nil {
		if errors.Is(err, syncer.ErrOffline) {
			http.Error(w, "offline", http.StatusConflict)
			return
		}
		http.Error(w, "hydrate failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (h *SyncHandler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	out, err := h.store.ListDeadLetters(r.Context())
	if err != nil {
		http.Error(w, "failed to list dead letters", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []models.DeadLetter{}
	}
	writeJSON(w, out, http.StatusOK)
}
