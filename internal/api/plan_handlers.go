// internal/api/plan_handlers.go
package api

import (
	stderrors "errors"
	"net/http"
	"strconv"
	"strings"

	"bizpilot/internal/common/errors"
	"bizpilot/internal/common/validation"
	"bizpilot/internal/export"
	"bizpilot/internal/models"
	"bizpilot/internal/notify"
	"bizpilot/internal/search"
)

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	plans, page, err := s.store.ListPlans(r.Context(), models.PlanQuery{
		UserID: requestState(r).User.ID,
		IdeaID: q.Get("ideaId"),
		Status: models.PlanStatus(q.Get("status")),
		Type:   models.PlanType(q.Get("type")),
		Page:   intQuery(r, "page", 1),
		Limit:  intQuery(r, "limit", models.DefaultPageSize),
	})
	if err != nil {
		s.fail(w, r, errors.NewQueryExecutionFailedError("list plans", err))
		return
	}
	s.ok(w, http.StatusOK, "", map[string]interface{}{
		"plans":      plans,
		"pagination": page,
	})
}

// handleSearchPlans queries the index and loads the matching plans from the
// store. Hits whose plan no longer exists are dropped.
func (s *Server) handleSearchPlans(w http.ResponseWriter, r *http.Request) {
	userID := requestState(r).User.ID
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	page, limit := models.NormalizePage(intQuery(r, "page", 1), intQuery(r, "limit", models.DefaultPageSize))

	res, err := s.index.Search(r.Context(), userID, q, page, limit)
	if err != nil {
		if stderrors.Is(err, search.ErrSearchTimeout) {
			s.fail(w, r, errors.NewSearchQueryFailedError(q, err).WithMetadata("timeout", true))
			return
		}
		s.fail(w, r, errors.NewSearchQueryFailedError(q, err))
		return
	}

	plans := make([]models.BusinessPlan, 0, len(res.Hits))
	scores := make(map[string]float64, len(res.Hits))
	for _, hit := range res.Hits {
		plan, err := s.store.GetPlan(r.Context(), userID, hit.ID)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			s.fail(w, r, errors.NewQueryExecutionFailedError("load plan", err))
			return
		}
		plans = append(plans, *plan)
		scores[plan.ID] = hit.Score
	}

	s.ok(w, http.StatusOK, "", map[string]interface{}{
		"query":      q,
		"plans":      plans,
		"scores":     scores,
		"tookMs":     res.Took,
		"pagination": models.NewPagination(page, limit, res.Total),
	})
}

func (s *Server) loadPlan(w http.ResponseWriter, r *http.Request) (*models.BusinessPlan, bool) {
	id := r.PathValue("id")
	plan, err := s.store.GetPlan(r.Context(), requestState(r).User.ID, id)
	if err != nil {
		s.fail(w, r, notFound(err, "Business plan", id))
		return nil, false
	}
	return plan, true
}

// savePlan persists plan and refreshes its index entry and the owner's
// cached read models.
func (s *Server) savePlan(w http.ResponseWriter, r *http.Request, plan *models.BusinessPlan) bool {
	if err := s.store.UpdatePlan(r.Context(), plan); err != nil {
		s.fail(w, r, notFound(err, "Business plan", plan.ID))
		return false
	}
	s.afterPlansChanged(r.Context(), plan.UserID, []models.BusinessPlan{*plan})
	return true
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	s.ok(w, http.StatusOK, "", map[string]interface{}{"plan": plan})
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	first := plan.Status != models.PlanStatusSaved
	plan.Status = models.PlanStatusSaved
	if !s.savePlan(w, r, plan) {
		return
	}

	ctx := r.Context()
	if first {
		if _, err := s.store.MutateUser(ctx, plan.UserID, func(u *models.User) error {
			u.Stats.TotalPlansSaved++
			return nil
		}); err != nil {
			s.log.Warn("could not update user stats", map[string]interface{}{"userId": plan.UserID, "error": err.Error()})
		}
	}
	if err := s.publisher.Publish(ctx, models.PlanEvent{
		Type:    models.EventPlanSaved,
		UserID:  plan.UserID,
		IdeaID:  plan.IdeaID,
		PlanIDs: []string{plan.ID},
	}); err != nil {
		s.log.Warn("could not publish plan event", map[string]interface{}{"planId": plan.ID, "error": err.Error()})
	}
	s.ok(w, http.StatusOK, "Plan saved to profile successfully", map[string]interface{}{"plan": plan})
}

func (s *Server) handleArchivePlan(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	plan.Status = models.PlanStatusArchived
	if !s.savePlan(w, r, plan) {
		return
	}
	s.ok(w, http.StatusOK, "Plan added to history successfully", map[string]interface{}{"plan": plan})
}

type taskUpdate struct {
	Month     int    `json:"month"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	var req taskUpdate
	if err := bind(r, validation.TaskUpdate, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	if !plan.SetTaskCompleted(req.Month, req.Task, req.Completed) {
		s.fail(w, r, errors.NewNotFoundError("Task", "month "+strconv.Itoa(req.Month)+": "+req.Task))
		return
	}
	if !s.savePlan(w, r, plan) {
		return
	}
	s.ok(w, http.StatusOK, "Task updated successfully", map[string]interface{}{"plan": plan})
}

func (s *Server) handleExportPlan(w http.ResponseWriter, r *http.Request) {
	format := models.ExportFormat(strings.ToLower(r.PathValue("format")))
	if !export.IsAPIFormat(format) {
		s.fail(w, r, shown(errors.NewValidationError(string(format)), "Unsupported export format. Use pdf, csv or json"))
		return
	}
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}

	now := s.now().UTC()
	plan.RecordExport(format, now)
	if !s.savePlan(w, r, plan) {
		return
	}

	doc, err := export.Render(format, plan, now)
	if err != nil {
		s.fail(w, r, errors.NewInternalError(err))
		return
	}
	s.obs.RecordPlanExported(r.Context(), string(format))

	h := w.Header()
	h.Set("Content-Type", doc.ContentType)
	h.Set("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	h.Set("Content-Length", strconv.Itoa(len(doc.Body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Body)
}

type shareRequest struct {
	Email   string `json:"email"`
	Message string `json:"message"`
}

func (s *Server) handleSharePlan(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := bind(r, validation.Share, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}

	st := requestState(r)
	link := s.cfg.ShareLink(plan.ID)
	n, err := s.sharer.Share(r.Context(), notify.ShareRequest{
		Plan:       plan,
		SenderID:   st.User.ID,
		SenderName: st.User.Name,
		Recipient:  strings.TrimSpace(req.Email),
		Message:    req.Message,
		ShareLink:  link,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if err := s.publisher.Publish(r.Context(), models.PlanEvent{
		Type:    models.EventPlanShared,
		UserID:  st.User.ID,
		IdeaID:  plan.IdeaID,
		PlanIDs: []string{plan.ID},
	}); err != nil {
		s.log.Warn("could not publish plan event", map[string]interface{}{"planId": plan.ID, "error": err.Error()})
	}
	s.ok(w, http.StatusOK, "Plan shared successfully", map[string]interface{}{
		"shareLink":  link,
		"sharedWith": n.Recipient,
		"status":     n.Status,
	})
}

type feedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := bind(r, validation.Feedback, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	plan, ok := s.loadPlan(w, r)
	if !ok {
		return
	}
	plan.Feedback = &models.Feedback{
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CreatedAt: s.now().UTC(),
	}
	if !s.savePlan(w, r, plan) {
		return
	}
	s.ok(w, http.StatusOK, "Feedback added successfully", map[string]interface{}{"feedback": plan.Feedback})
}
