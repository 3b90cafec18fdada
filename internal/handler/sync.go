package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/logger"
	"github.com/osse101/BrickManager_Go/internal/repository"
)

// Syncer runs one catalog sync
type Syncer interface {
	Sync(ctx context.Context, req domain.SyncRequest) (domain.SyncResult, error)
}

// SyncRequest is the optional body of a sync call
type SyncRequest struct {
	Scope   string `json:"scope" validate:"max=64"`
	Cursor  string `json:"cursor" validate:"max=64"`
	Restart bool   `json:"restart"`
}

// HandleRunSync syncs one entity kind. A run stopped by the catalog source
// answers 502 with the partial report, which carries the resumable cursor.
func HandleRunSync(svc Syncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SyncRequest
		if err := DecodeOptionalRequest(r, w, &req, "Sync"); err != nil {
			return
		}

		kind := domain.EntityKind(chi.URLParam(r, ParamKind))
		log := logger.FromContext(r.Context())
		log.Info(LogMsgSyncRequested, logger.AttrKeyKind, kind, logger.AttrKeyScope, req.Scope, "restart", req.Restart)

		result, err := svc.Sync(r.Context(), domain.SyncRequest{
			Kind:    kind,
			Scope:   req.Scope,
			Cursor:  req.Cursor,
			Restart: req.Restart,
		})
		if err != nil {
			respondServiceError(w, r, "Sync", err)
			return
		}
		if result.TransportError != "" {
			log.Warn(LogMsgSyncIncomplete, logger.AttrKeyKind, kind, logger.AttrKeyCursor, result.ResumableCursor, "error", result.TransportError)
			respondJSON(w, http.StatusBadGateway, result)
			return
		}
		respondJSON(w, http.StatusOK, result)
	}
}

// HandleListSyncState lists every checkpoint and last-run report
func HandleListSyncState(state repository.SyncState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states, err := state.ListSyncStates(r.Context())
		if err != nil {
			respondServiceError(w, r, "List sync state", err)
			return
		}
		if states == nil {
			states = []domain.SyncState{}
		}
		respondJSON(w, http.StatusOK, states)
	}
}
