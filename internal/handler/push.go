package handler

import (
	"net/http"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/listpush"
	"github.com/osse101/BrickManager_Go/internal/logger"
)

// PushPartsRequest is the optional body of a missing parts push
type PushPartsRequest struct {
	ListName        string   `json:"list_name" validate:"max=64"`
	Kind            string   `json:"kind" validate:"omitempty,oneof=regular-part minifigure-part"`
	IncludeSpares   bool     `json:"include_spares"`
	Statuses        []string `json:"statuses" validate:"dive,setstatus"`
	ExcludeStatuses []string `json:"exclude_statuses" validate:"dive,setstatus"`
}

// PushSetsRequest is the optional body of an owned sets push
type PushSetsRequest struct {
	ListName string `json:"list_name" validate:"max=64"`
}

// PushHandler serves the account list push endpoints
type PushHandler struct {
	svc listpush.Service
}

// NewPushHandler creates the push handlers
func NewPushHandler(svc listpush.Service) *PushHandler {
	return &PushHandler{svc: svc}
}

// HandlePushMissingParts mirrors the missing parts onto a part list. Lines the
// account refused answer 502 with the partial report; pushing again retries
// them.
func (h *PushHandler) HandlePushMissingParts(w http.ResponseWriter, r *http.Request) {
	var req PushPartsRequest
	if err := DecodeOptionalRequest(r, w, &req, "Push missing parts"); err != nil {
		return
	}
	logger.FromContext(r.Context()).Info(LogMsgPushRequested, logger.AttrKeyTarget, domain.PushMissingParts, "list_name", req.ListName)

	res, err := h.svc.PushMissingParts(r.Context(), listpush.PartsOptions{
		ListName:        req.ListName,
		Kind:            domain.MissingKind(req.Kind),
		IncludeSpares:   req.IncludeSpares,
		Statuses:        toStatuses(req.Statuses),
		ExcludeStatuses: toStatuses(req.ExcludeStatuses),
	})
	h.respond(w, r, "Push missing parts", res, err)
}

// HandlePushOwnedSets mirrors the owned sets onto a set list
func (h *PushHandler) HandlePushOwnedSets(w http.ResponseWriter, r *http.Request) {
	var req PushSetsRequest
	if err := DecodeOptionalRequest(r, w, &req, "Push owned sets"); err != nil {
		return
	}
	logger.FromContext(r.Context()).Info(LogMsgPushRequested, logger.AttrKeyTarget, domain.PushOwnedSets, "list_name", req.ListName)

	res, err := h.svc.PushOwnedSets(r.Context(), listpush.SetsOptions{ListName: req.ListName})
	h.respond(w, r, "Push owned sets", res, err)
}

func (h *PushHandler) respond(w http.ResponseWriter, r *http.Request, opName string, res *domain.PushResult, err error) {
	if err != nil {
		respondServiceError(w, r, opName, err)
		return
	}
	if len(res.Failed) > 0 {
		logger.FromContext(r.Context()).Warn(LogMsgPushIncomplete, logger.AttrKeyTarget, res.Target, "failed", len(res.Failed))
		respondJSON(w, http.StatusBadGateway, res)
		return
	}
	respondJSON(w, http.StatusOK, res)
}
