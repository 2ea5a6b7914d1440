package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileDayTagUsage",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/day-tags/reconcile",
		Summary:     "Reconcile usage counts",
		Description: "Recomputes every day tag's usage count from its date associations",
		Tags:        []string{"Admin"},
	}, s.handleReconcileDayTagUsage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getStoreStats",
		Method:      http.MethodGet,
		Path:        "/api/v1/admin/stats",
		Summary:     "Store statistics",
		Description: "Returns row counts and the number of tags whose usage count has drifted",
		Tags:        []string{"Admin"},
	}, s.handleGetStoreStats)
}

// ReconcileResponse reports how many tags were corrected.
type ReconcileResponse struct {
	Fixed int64 `json:"fixed" doc:"Tags whose usage count was rewritten"`
}

// ReconcileOutput wraps the reconcile response for Huma.
type ReconcileOutput struct {
	Body ReconcileResponse
}

// StoreStatsResponse contains store statistics.
type StoreStatsResponse struct {
	DayTags      int `json:"day_tags" doc:"Number of day tags"`
	Associations int `json:"associations" doc:"Number of tag/date associations"`
	Entries      int `json:"entries" doc:"Number of log entries"`
	DriftedTags  int `json:"drifted_tags" doc:"Tags whose usage count disagrees with their associations"`
}

// StoreStatsOutput wraps the stats response for Huma.
type StoreStatsOutput struct {
	Body StoreStatsResponse
}

func (s *Server) handleReconcileDayTagUsage(ctx context.Context, _ *struct{}) (*ReconcileOutput, error) {
	fixed, err := s.dayTags.ReconcileUsageCounts(ctx)
	if err != nil {
		return nil, err
	}
	return &ReconcileOutput{Body: ReconcileResponse{Fixed: fixed}}, nil
}

func (s *Server) handleGetStoreStats(ctx context.Context, _ *struct{}) (*StoreStatsOutput, error) {
	if s.db == nil {
		return nil, domainerrors.Wrap(nil, domainerrors.CodeStoreUnavailable, "database not configured")
	}

	st, err := s.db.Stats(ctx)
	if err != nil {
		return nil, err
	}

	return &StoreStatsOutput{
		Body: StoreStatsResponse{
			DayTags:      st.DayTags,
			Associations: st.Associations,
			Entries:      st.Entries,
			DriftedTags:  st.DriftedTags,
		},
	}, nil
}
