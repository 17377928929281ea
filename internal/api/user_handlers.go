// internal/api/user_handlers.go
package api

import (
	"context"
	"net/http"

	"bizpilot/internal/cache"
	"bizpilot/internal/common/errors"
	"bizpilot/internal/store"
)

// handleDashboard serves the cached dashboard read model together with the
// caller's own counters, which are always fresh.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := requestState(r).User
	d, err := cache.Fetch(r.Context(), s.cache, cache.KindDashboard, user.ID,
		func(ctx context.Context) (*store.Dashboard, error) {
			return s.store.Dashboard(ctx, user.ID)
		})
	if err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("dashboard", err))
		return
	}
	s.ok(w, http.StatusOK, "", map[string]interface{}{
		"stats":       d.Stats,
		"userStats":   user.Stats,
		"recentIdeas": d.RecentIdeas,
		"recentPlans": d.RecentPlans,
	})
}
