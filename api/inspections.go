package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/habitek/inspectd/internal/offline"
	"github.com/habitek/inspectd/pkg/models"
	"github.com/habitek/inspectd/pkg/repository"
)

type InspectionsHandler struct {
	repo  *offline.Repo
	store repository.LocalStore
}

func NewInspectionsHandler(repo *offline.Repo, store repository.LocalStore) *InspectionsHandler {
	return &InspectionsHandler{repo: repo, store: store}
}

type saveResponse struct {
	ID     string `json:"id"`
	Synced bool   `json:"synced"`
}

// SaveInspection writes the inspection locally and pushes or queues it.
// The UI treats the local write as the commit; sync state rides along in
// the response.
func (h *InspectionsHandler) SaveInspection(w http.ResponseWriter, r *http.Request) {
	var e models.Inspection
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if e.Status == "" {
		e.Status = models.StatusScheduled
	}
	if e.InspectorID == "" {
		if v, ok := r.Context().Value(CtxInspectorID).(string); ok {
			e.InspectorID = v
		}
	}

	id, err := h.repo.SaveInspection(r.Context(), &e)
	if err != nil {
		http.Error(w, "failed to save inspection", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saveResponse{ID: id, Synced: e.Synced}, http.StatusCreated)
}

func (h *InspectionsHandler) GetInspection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	e, err := h.store.GetInspectionByID(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load inspection", http.StatusInternalServerError)
		return
	}
	if e == nil {
		http.Error(w, "inspection not found", http.StatusNotFound)
		return
	}
	writeJSON(w, e, http.StatusOK)
}

func (h *InspectionsHandler) ListInspections(w http.ResponseWriter, r *http.Request) {
	inspectorID := r.URL.Query().Get("inspector_id")
	if inspectorID == "" {
		if v, ok := r.Context().Value(CtxInspectorID).(string); ok {
			inspectorID = v
		}
	}
	if inspectorID == "" {
		http.Error(w, "missing inspector_id", http.StatusBadRequest)
		return
	}
	out, err := h.store.ListInspectionsByInspector(r.Context(), inspectorID)
	if err != nil {
		http.Error(w, "failed to list inspections", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []models.Inspection{}
	}
	writeJSON(w, out, http.StatusOK)
}

func (h *InspectionsHandler) DeleteInspection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.repo.DeleteInspection(r.Context(), id); err != nil {
		http.Error(w, "failed to delete inspection", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCompleteInspection returns the full local tree for the report screen.
// A 404 means the id is unknown locally, not that children are missing.
func (h *InspectionsHandler) GetCompleteInspection(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	agg, err := h.repo.CompleteInspection(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to load inspection", http.StatusInternalServerError)
		return
	}
	if agg.Inspection == nil {
		http.Error(w, "inspection not found", http.StatusNotFound)
		return
	}
	writeJSON(w, agg, http.StatusOK)
}

type putSignatureRequest struct {
	Image string `json:"image"`
}

func (h *InspectionsHandler) PutSignature(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	signer := models.SignerRole(vars["signer"])
	if signer != models.SignerInspector && signer != models.SignerResponsible {
		http.Error(w, "unknown signer role", http.StatusBadRequest)
		return
	}

	var req putSignatureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Image) == "" {
		http.Error(w, "missing signature image", http.StatusBadRequest)
		return
	}

	sig := &models.Signature{
		InspectionID: vars["id"],
		Signer:       signer,
		Image:        req.Image,
	}
	id, err := h.repo.SaveSignature(r.Context(), sig)
	if err != nil {
		http.Error(w, "failed to save signature", http.StatusInternalServerError)
		return
	}
	writeJSON(w, saveResponse{ID: id, Synced: sig.Synced}, http.StatusOK)
}

func (h *InspectionsHandler) ListSignatures(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	out, err := h.store.ListSignaturesByInspection(r.Context(), id)
	if err != nil {
		http.Error(w, "failed to list signatures", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []models.Signature{}
	}
	writeJSON(w, out, http.StatusOK)
}
