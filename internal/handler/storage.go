package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/storage"
)

// AssignSlotRequest places a part (optionally one color of it) in a box
type AssignSlotRequest struct {
	PartNum string `json:"part_num" validate:"required,max=64"`
	ColorID *int   `json:"color_id" validate:"omitempty,min=-2147483648,max=2147483647"`
	Site    string `json:"site" validate:"required,max=64"`
	Level   string `json:"level" validate:"required,max=64"`
	Box     string `json:"box" validate:"required,max=64"`
	Notes   string `json:"notes" validate:"max=500"`
}

// StorageHandler serves the storage location endpoints
type StorageHandler struct {
	svc storage.Service
}

// NewStorageHandler creates the storage handlers
func NewStorageHandler(svc storage.Service) *StorageHandler {
	return &StorageHandler{svc: svc}
}

// HandleAssign upserts a storage slot
func (h *StorageHandler) HandleAssign(w http.ResponseWriter, r *http.Request) {
	var req AssignSlotRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Assign storage"); err != nil {
		return
	}
	slot, err := h.svc.Assign(r.Context(), req.PartNum, req.ColorID,
		storage.Location{Site: req.Site, Level: req.Level, Box: req.Box}, req.Notes)
	if err != nil {
		respondServiceError(w, r, "Assign storage", err)
		return
	}
	respondJSON(w, http.StatusOK, slot)
}

// HandleFind lists where a part is stored, optionally for one color
func (h *StorageHandler) HandleFind(w http.ResponseWriter, r *http.Request) {
	colorID, ok := GetOptionalIntQuery(r, w, QueryColorID)
	if !ok {
		return
	}
	slots, err := h.svc.Find(r.Context(), chi.URLParam(r, ParamPart), colorID)
	if err != nil {
		respondServiceError(w, r, "Find storage", err)
		return
	}
	respondJSON(w, http.StatusOK, slots)
}

// HandleDistinct lists the distinct sites, levels or boxes, narrowed by the
// site and level query parameters
func (h *StorageHandler) HandleDistinct(w http.ResponseWriter, r *http.Request) {
	field := domain.SlotField(chi.URLParam(r, ParamField))
	filter := domain.SlotFilter{
		Site:  GetOptionalQueryParam(r, QuerySite, ""),
		Level: GetOptionalQueryParam(r, QueryLevel, ""),
	}
	values, err := h.svc.ListDistinct(r.Context(), field, filter)
	if err != nil {
		respondServiceError(w, r, "List storage values", err)
		return
	}
	respondJSON(w, http.StatusOK, values)
}

// HandleBoxContents lists the parts kept in one box
func (h *StorageHandler) HandleBoxContents(w http.ResponseWriter, r *http.Request) {
	site, ok := GetQueryParam(r, w, QuerySite)
	if !ok {
		return
	}
	level, ok := GetQueryParam(r, w, QueryLevel)
	if !ok {
		return
	}
	box, ok := GetQueryParam(r, w, QueryBox)
	if !ok {
		return
	}
	items, err := h.svc.BoxContents(r.Context(), storage.Location{Site: site, Level: level, Box: box})
	if err != nil {
		respondServiceError(w, r, "Box contents", err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// HandleRemove deletes a storage slot
func (h *StorageHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	if err := h.svc.Remove(r.Context(), id); err != nil {
		respondServiceError(w, r, "Remove storage slot", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgSlotRemoved})
}
