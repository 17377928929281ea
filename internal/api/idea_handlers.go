// internal/api/idea_handlers.go
package api

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"bizpilot/internal/cache"
	"bizpilot/internal/common/errors"
	"bizpilot/internal/common/validation"
	"bizpilot/internal/models"
	"bizpilot/internal/planning"
	"bizpilot/internal/store"
)

type ideaRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Category    models.Category `json:"category"`
	Budget      models.Budget   `json:"budget"`
}

func (req ideaRequest) snapshot() models.IdeaSnapshot {
	return models.IdeaSnapshot{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    req.Category,
		Budget:      req.Budget,
	}
}

type ideaUpdate struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Category    *models.Category   `json:"category"`
	Budget      *models.Budget     `json:"budget"`
	Status      *models.IdeaStatus `json:"status"`
}

func (u ideaUpdate) apply(idea *models.BusinessIdea) {
	if u.Title != nil {
		idea.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		idea.Description = strings.TrimSpace(*u.Description)
	}
	if u.Category != nil {
		idea.Category = *u.Category
	}
	if u.Budget != nil {
		idea.Budget = *u.Budget
	}
	if u.Status != nil {
		idea.Status = *u.Status
	}
}

func sourceNames(sources []planning.Source) []string {
	out := make([]string, len(sources))
	for i, src := range sources {
		out[i] = string(src)
	}
	return out
}

func planIDs(plans []models.BusinessPlan) []string {
	ids := make([]string, len(plans))
	for i := range plans {
		ids[i] = plans[i].ID
	}
	return ids
}

// handleCreateIdea stores the idea and generates its three plans before
// responding. A failed generation leaves the idea as a draft.
func (s *Server) handleCreateIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := bind(r, validation.BusinessIdea, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	ctx := r.Context()
	st := requestState(r)
	snap := req.snapshot()
	idea := &models.BusinessIdea{
		UserID:      st.User.ID,
		Title:       snap.Title,
		Description: snap.Description,
		Category:    snap.Category,
		Budget:      snap.Budget,
		Status:      models.IdeaStatusProcessing,
		Metadata: models.IdeaMetadata{
			IPAddress: st.ClientIP,
			UserAgent: st.UserAgent,
		},
	}
	if err := s.store.CreateIdea(ctx, idea); err != nil {
		s.fail(w, r, errors.NewDatabaseInsertFailedError(err))
		return
	}

	result, err := s.generator.Generate(ctx, idea.Snapshot())
	if err != nil {
		idea.Status = models.IdeaStatusDraft
		if uerr := s.store.UpdateIdea(ctx, idea); uerr != nil {
			s.log.Warn("could not reset idea status", map[string]interface{}{"ideaId": idea.ID, "error": uerr.Error()})
		}
		s.fail(w, r, errors.NewPlanGenerationFailedError(err))
		return
	}

	idea.Status = models.IdeaStatusCompleted
	idea.Metadata.AIModel = result.Model
	idea.Metadata.ProcessingTime = s.now().Sub(st.StartedAt).Milliseconds()
	idea.PlanCount = len(result.Plans)
	if err := s.store.UpdateIdea(ctx, idea); err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("update idea", err))
		return
	}

	if _, err := s.store.MutateUser(ctx, st.User.ID, func(u *models.User) error {
		u.Stats.TotalIdeasCreated++
		return nil
	}); err != nil {
		s.log.Warn("could not update user stats", map[string]interface{}{"userId": st.User.ID, "error": err.Error()})
	}

	s.afterPlansChanged(ctx, st.User.ID, result.Plans)
	if err := s.publisher.Publish(ctx, models.PlanEvent{
		Type:    models.EventPlansGenerated,
		UserID:  st.User.ID,
		IdeaID:  idea.ID,
		PlanIDs: planIDs(result.Plans),
		Sources: sourceNames(result.Sources),
	}); err != nil {
		s.log.Warn("could not publish plan event", map[string]interface{}{"ideaId": idea.ID, "error": err.Error()})
	}
	s.obs.RecordIdeaSubmitted(ctx, string(idea.Category))

	s.ok(w, http.StatusCreated, "Business idea created and plans generated successfully", map[string]interface{}{
		"businessIdea": idea,
		"plans":        result.Plans,
		"sources":      result.Sources,
	})
}

// afterPlansChanged keeps the search index and the per-user caches in step
// with the store. Failures here never fail the request.
func (s *Server) afterPlansChanged(ctx context.Context, userID string, plans []models.BusinessPlan) {
	s.cache.Invalidate(ctx, userID)
	if len(plans) == 0 {
		return
	}
	if err := s.index.IndexPlans(ctx, plans); err != nil {
		s.log.Warn("could not index plans", map[string]interface{}{"userId": userID, "error": err.Error()})
	}
}

func (s *Server) handleDemoIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaRequest
	if err := bind(r, validation.BusinessIdea, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	result := s.generator.Preview(r.Context(), req.snapshot())
	s.ok(w, http.StatusCreated, "Demo business plans generated successfully", map[string]interface{}{
		"businessIdea": req.snapshot(),
		"plans":        result.Plans,
		"sources":      result.Sources,
		"isDemo":       true,
	})
}

func (s *Server) handleListIdeas(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ideas, page, err := s.store.ListIdeas(r.Context(), models.IdeaQuery{
		UserID:   requestState(r).User.ID,
		Category: models.Category(q.Get("category")),
		Status:   models.IdeaStatus(q.Get("status")),
		Page:     intQuery(r, "page", 1),
		Limit:    intQuery(r, "limit", models.DefaultPageSize),
	})
	if err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("list ideas", err))
		return
	}
	s.ok(w, http.StatusOK, "", map[string]interface{}{
		"businessIdeas": ideas,
		"pagination":    page,
	})
}

func (s *Server) handleGetIdea(w http.ResponseWriter, r *http.Request) {
	userID, id := requestState(r).User.ID, r.PathValue("id")
	idea, err := s.store.GetIdea(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, notFound(err, "Business idea", id))
		return
	}
	plans, err := s.store.PlansForIdea(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("list plans", err))
		return
	}
	idea.PlanCount = len(plans)
	s.ok(w, http.StatusOK, "", map[string]interface{}{
		"businessIdea": idea,
		"plans":        plans,
	})
}

func (s *Server) handleUpdateIdea(w http.ResponseWriter, r *http.Request) {
	var req ideaUpdate
	if err := bind(r, validation.BusinessIdeaUpdate, &req); err != nil {
		s.fail(w, r, err)
		return
	}

	userID, id := requestState(r).User.ID, r.PathValue("id")
	idea, err := s.store.GetIdea(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, notFound(err, "Business idea", id))
		return
	}
	req.apply(idea)
	if err := s.store.UpdateIdea(r.Context(), idea); err != nil {
		s.fail(w, r, notFound(err, "Business idea", id))
		return
	}
	s.cache.Invalidate(r.Context(), userID)
	s.ok(w, http.StatusOK, "Business idea updated successfully", map[string]interface{}{"businessIdea": idea})
}

func (s *Server) handleDeleteIdea(w http.ResponseWriter, r *http.Request) {
	userID, id := requestState(r).User.ID, r.PathValue("id")
	removed, err := s.store.DeleteIdea(r.Context(), userID, id)
	if err != nil {
		s.fail(w, r, notFound(err, "Business idea", id))
		return
	}
	s.cache.Invalidate(r.Context(), userID)
	if err := s.index.DeletePlans(r.Context(), removed); err != nil {
		s.log.Warn("could not remove plans from index", map[string]interface{}{"ideaId": id, "error": err.Error()})
	}
	s.ok(w, http.StatusOK, "Business idea deleted successfully", nil)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	userID := requestState(r).User.ID
	analytics, err := cache.Fetch(r.Context(), s.cache, cache.KindAnalytics, userID,
		func(ctx context.Context) (*store.IdeaAnalytics, error) {
			return s.store.IdeaAnalytics(ctx, userID)
		})
	if err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("idea analytics", err))
		return
	}
	s.ok(w, http.StatusOK, "", analytics)
}

// isNotFound reports whether err is the store's missing-row sentinel.
func isNotFound(err error) bool {
	return stderrors.Is(err, store.ErrNotFound)
}
