// internal/planning/template.go
package planning

import "bizpilot/internal/models"

// BuildTemplatePlan assembles the deterministic plan of planType for idea.
// The result has no identity; the store assigns one.
func BuildTemplatePlan(idea models.IdeaSnapshot, planType models.PlanType) models.BusinessPlan {
	tmpl := TemplateFor(planType)
	plan := models.BusinessPlan{
		UserID:         idea.UserID,
		IdeaID:         idea.ID,
		Title:          tmpl.Title(idea.Title),
		Description:    tmpl.Description(idea.Category),
		Type:           tmpl.Type,
		RiskLevel:      tmpl.RiskLevel,
		Timeline:       models.Timeline,
		Months:         BuildMonths(idea, planType),
		SuccessMetrics: BuildMetrics(idea, planType),
		Status:         models.PlanStatusDraft,
		Tags:           Tags(idea, planType),
	}
	plan.Recalculate()
	return plan
}

// Tags are [category, budget, type].
func Tags(idea models.IdeaSnapshot, planType models.PlanType) []string {
	return []string{string(idea.Category), string(idea.Budget), string(planType)}
}
