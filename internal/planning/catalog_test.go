package planning

import (
	"testing"

	"bizpilot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTemplateFor(t *testing.T) {
	tests := []struct {
		planType models.PlanType
		risk     models.RiskLevel
		first    string
		shares   [models.MonthsPerPlan]int
	}{
		{models.PlanTypeConservative, models.RiskLow, "Foundation & Research", [6]int{15, 20, 20, 15, 15, 15}},
		{models.PlanTypeAggressive, models.RiskHigh, "Rapid Setup", [6]int{30, 25, 15, 10, 10, 10}},
		{models.PlanTypeLean, models.RiskMedium, "Problem Validation", [6]int{10, 30, 20, 15, 15, 10}},
		{"unknown", models.RiskLow, "Foundation & Research", [6]int{15, 20, 20, 15, 15, 15}},
	}
	for _, tt := range tests {
		t.Run(string(tt.planType), func(t *testing.T) {
			tmpl := TemplateFor(tt.planType)
			assert.Equal(t, tt.risk, tmpl.RiskLevel)
			assert.Equal(t, tt.first, tmpl.Phases[0])
			assert.Equal(t, tt.shares, tmpl.BudgetShares)
			assert.Equal(t, tt.risk, RiskLevelFor(tt.planType))
		})
	}
}

func TestPlanTemplate_Formats(t *testing.T) {
	tmpl := TemplateFor(models.PlanTypeLean)
	assert.Equal(t, "Lean Startup Plan for Bakery", tmpl.Title("Bakery"))
	assert.Equal(t,
		"Minimal viable approach for your real-estate business focusing on learning, iteration, and customer feedback",
		tmpl.Description(models.CategoryRealEstate))
	assert.Equal(t, "30%", tmpl.BudgetShare(1))
}

func TestBudgetSharesSumToHundred(t *testing.T) {
	for _, pt := range models.PlanTypes {
		total := 0
		for _, s := range TemplateFor(pt).BudgetShares {
			total += s
		}
		assert.Equal(t, 100, total, pt)
	}
}

func TestActivity_FallsBackToDefaultCategory(t *testing.T) {
	for _, c := range models.Categories {
		for p := PhaseSetup; p <= PhaseOptimize; p++ {
			got := Activity(c, p)
			if HasOwnActivities(c) {
				continue
			}
			assert.Equal(t, Activity(DefaultCategory, p), got, "%s phase %d", c, p)
		}
	}
	assert.Equal(t,
		"Kitchen setup, equipment purchase, permits and licenses",
		Activity(models.CategoryFood, PhaseSetup))
	assert.Equal(t, Activity(models.CategoryFood, PhaseOptimize), Activity(models.CategoryFood, Phase(42)))
	assert.Equal(t, Activity(models.CategoryFood, PhaseSetup), Activity(models.CategoryFood, Phase(-1)))
}

func TestTierMultiplier(t *testing.T) {
	assert.Equal(t, 0.5, TierMultiplier(models.BudgetLow))
	assert.Equal(t, 1.0, TierMultiplier(models.BudgetMedium))
	assert.Equal(t, 1.5, TierMultiplier(models.BudgetHigh))
	assert.Equal(t, 2.0, TierMultiplier(models.BudgetEnterprise))
	assert.Equal(t, 1.0, TierMultiplier("galactic"))
}
