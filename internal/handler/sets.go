package handler

import (
	"net/http"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/inventory"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// AddSetRequest registers an owned copy of a catalog set
type AddSetRequest struct {
	SetNum string `json:"set_num" validate:"required,max=32"`
	Status string `json:"status" validate:"setstatus"`
}

// UpdateStatusRequest changes an owned set's lifecycle state
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,setstatus"`
}

// HaveRequest sets or adjusts a found quantity. Delta is only accepted for
// regular parts.
type HaveRequest struct {
	Have  *int `json:"have" validate:"omitempty,gte=0,max=2147483647"`
	Delta *int `json:"delta" validate:"omitempty,min=-2147483648,max=2147483647"`
}

// SetsHandler serves the owned set endpoints
type SetsHandler struct {
	svc inventory.Service
}

// NewSetsHandler creates the owned set handlers
func NewSetsHandler(svc inventory.Service) *SetsHandler {
	return &SetsHandler{svc: svc}
}

// HandleAddSet creates an owned set from its catalog template
func (h *SetsHandler) HandleAddSet(w http.ResponseWriter, r *http.Request) {
	var req AddSetRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Add set"); err != nil {
		return
	}
	status := domain.SetStatus(req.Status)
	if status == "" {
		status = domain.StatusUnknown
	}

	detail, err := h.svc.AddSet(r.Context(), req.SetNum, status)
	if err != nil {
		respondServiceError(w, r, "Add set", err)
		return
	}
	logger.FromContext(r.Context()).Info("Owned set added", logger.AttrKeyOwnedSetID, detail.ID, logger.AttrKeySetNum, detail.SetNum)
	respondJSON(w, http.StatusCreated, detail)
}

// HandleListSets lists owned sets
func (h *SetsHandler) HandleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.svc.ListOwnedSets(r.Context())
	if err != nil {
		respondServiceError(w, r, "List sets", err)
		return
	}
	if sets == nil {
		sets = []domain.OwnedSet{}
	}
	respondJSON(w, http.StatusOK, sets)
}

// HandleGetSet returns an owned set with all of its lines
func (h *SetsHandler) HandleGetSet(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	detail, err := h.svc.GetOwnedSet(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, "Get set", err)
		return
	}
	respondJSON(w, http.StatusOK, detail)
}

// HandleUpdateStatus changes the lifecycle status of a set
func (h *SetsHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update status"); err != nil {
		return
	}
	if err := h.svc.UpdateStatus(r.Context(), id, domain.SetStatus(req.Status)); err != nil {
		respondServiceError(w, r, "Update status", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgStatusUpdated})
}

// HandleRemoveSet deletes a set and everything tracked under it
func (h *SetsHandler) HandleRemoveSet(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	if err := h.svc.RemoveSet(r.Context(), id); err != nil {
		respondServiceError(w, r, "Remove set", err)
		return
	}
	respondJSON(w, http.StatusOK, SuccessResponse{Message: MsgSetRemoved})
}

// HandlePartHave sets (have) or adjusts (delta) an owned part's quantity
func (h *SetsHandler) HandlePartHave(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	var req HaveRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update part quantity"); err != nil {
		return
	}
	if (req.Have == nil) == (req.Delta == nil) {
		respondError(w, http.StatusBadRequest, ErrMsgHaveOrDelta)
		return
	}

	var (
		part *domain.OwnedPart
		err  error
	)
	if req.Have != nil {
		part, err = h.svc.SetPartHave(r.Context(), id, *req.Have)
	} else {
		part, err = h.svc.AdjustPartHave(r.Context(), id, *req.Delta)
	}
	if err != nil {
		respondServiceError(w, r, "Update part quantity", err)
		return
	}
	respondJSON(w, http.StatusOK, part)
}

// HandleMinifigPartHave sets an owned minifigure part's quantity
func (h *SetsHandler) HandleMinifigPartHave(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	var req HaveRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update minifigure part quantity"); err != nil {
		return
	}
	if req.Have == nil || req.Delta != nil {
		respondError(w, http.StatusBadRequest, ErrMsgHaveOrDelta)
		return
	}
	part, err := h.svc.SetMinifigPartHave(r.Context(), id, *req.Have)
	if err != nil {
		respondServiceError(w, r, "Update minifigure part quantity", err)
		return
	}
	respondJSON(w, http.StatusOK, part)
}

// HandleMinifigHave sets how many complete copies of a minifigure are found
func (h *SetsHandler) HandleMinifigHave(w http.ResponseWriter, r *http.Request) {
	id, ok := GetIDParam(r, w, ParamID)
	if !ok {
		return
	}
	var req HaveRequest
	if err := DecodeAndValidateRequest(r, w, &req, "Update minifigure quantity"); err != nil {
		return
	}
	if req.Have == nil || req.Delta != nil {
		respondError(w, http.StatusBadRequest, ErrMsgHaveOrDelta)
		return
	}
	fig, err := h.svc.SetMinifigHave(r.Context(), id, *req.Have)
	if err != nil {
		respondServiceError(w, r, "Update minifigure quantity", err)
		return
	}
	respondJSON(w, http.StatusOK, fig)
}
