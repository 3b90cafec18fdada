package handler

import (
	"net/http"

	"github.com/osse101/BrickManager_Go/internal/domain"
	"github.com/osse101/BrickManager_Go/internal/reconcile"
)

// HandleMissingForSet reports the missing parts of one owned set
func HandleMissingForSet(svc reconcile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetIDParam(r, w, ParamID)
		if !ok {
			return
		}
		items, err := svc.MissingForSet(r.Context(), id)
		if err != nil {
			respondServiceError(w, r, "Missing for set", err)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}

// HandleMissingAll reports missing parts across owned sets. status and
// exclude_status take comma separated lists; include_spares defaults to true.
func HandleMissingAll(svc reconcile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		includeSpares, ok := GetOptionalBoolQuery(r, w, QueryIncludeSpares)
		if !ok {
			return
		}
		q := r.URL.Query()
		filter := reconcile.Filter{
			Statuses:        toStatuses(splitList(q[QueryStatus])),
			ExcludeStatuses: toStatuses(splitList(q[QueryExcludeStatus])),
			IncludeSpares:   includeSpares,
		}

		items, err := svc.MissingAll(r.Context(), filter)
		if err != nil {
			respondServiceError(w, r, "Missing parts", err)
			return
		}
		respondJSON(w, http.StatusOK, items)
	}
}

// HandleSummary returns the dashboard totals
func HandleSummary(svc reconcile.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summary(r.Context())
		if err != nil {
			respondServiceError(w, r, "Summary", err)
			return
		}
		respondJSON(w, http.StatusOK, sum)
	}
}

func toStatuses(values []string) []domain.SetStatus {
	if len(values) == 0 {
		return nil
	}
	out := make([]domain.SetStatus, len(values))
	for i, v := range values {
		out[i] = domain.SetStatus(v)
	}
	return out
}
