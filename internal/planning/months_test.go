package planning

import (
	"strings"
	"testing"

	"bizpilot/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bakery = models.IdeaSnapshot{
	ID:          "idea-1",
	UserID:      "user-1",
	Title:       "Sourdough Corner",
	Description: "A neighbourhood bakery selling naturally leavened bread and pastries",
	Category:    models.CategoryFood,
	Budget:      models.BudgetHigh,
}

func TestBuildMonths(t *testing.T) {
	months := BuildMonths(bakery, models.PlanTypeAggressive)
	require.Len(t, months, models.MonthsPerPlan)

	for i, m := range months {
		assert.Equal(t, i+1, m.Month)
		assert.Equal(t, TemplateFor(models.PlanTypeAggressive).Phases[i], m.Title)
		assert.Len(t, m.Milestones, 3)
		assert.Len(t, m.Tasks, 4)
	}

	assert.Equal(t,
		"Kitchen setup, equipment purchase, permits and licenses for Sourdough Corner. Focus on A neighbourhood bakery selling naturally leavened ...",
		months[0].Content)
	assert.Equal(t, "30%", months[0].Budget)
}

func TestBuildMonths_ShortDescriptionIsNotTruncated(t *testing.T) {
	idea := bakery
	idea.Description = "short desc"
	months := BuildMonths(idea, models.PlanTypeLean)
	assert.True(t, strings.HasSuffix(months[0].Content, "Focus on short desc..."), months[0].Content)
}

func TestBuildMonths_MultibyteDescription(t *testing.T) {
	idea := bakery
	idea.Description = strings.Repeat("é", 60)
	months := BuildMonths(idea, models.PlanTypeLean)
	assert.Contains(t, months[0].Content, strings.Repeat("é", 50)+"...")
	assert.NotContains(t, months[0].Content, strings.Repeat("é", 51))
}

func TestMilestones(t *testing.T) {
	assert.Equal(t, []string{
		"Complete Sourdough Corner foundation setup",
		"Finalize business registration",
		"Establish initial food requirements",
	}, Milestones(1, "Sourdough Corner", models.CategoryFood))

	assert.Equal(t, []string{
		"Month 9 objectives for X",
		"Progress tracking",
		"Quality maintenance",
	}, Milestones(9, "X", models.CategoryFood))
}

func TestTasks_ScaledByTier(t *testing.T) {
	want := []models.Task{
		{Name: "food specific setup", Priority: models.PriorityHigh, EstimatedHours: 40, Cost: 400},
		{Name: "Market research and analysis", Priority: models.PriorityHigh, EstimatedHours: 20, Cost: 200},
		{Name: "Customer outreach and marketing", Priority: models.PriorityMedium, EstimatedHours: 30, Cost: 300},
		{Name: "Operations and logistics", Priority: models.PriorityMedium, EstimatedHours: 25, Cost: 250},
	}
	if diff := cmp.Diff(want, Tasks(models.CategoryFood, models.BudgetLow)); diff != "" {
		t.Errorf("Tasks mismatch (-want +got):\n%s", diff)
	}

	for _, task := range Tasks(models.CategoryRetail, models.BudgetEnterprise) {
		assert.Contains(t, []float64{1600, 800, 1200, 1000}, task.Cost)
	}
}

func TestBuildMonths_EveryCategoryAndType(t *testing.T) {
	for _, category := range models.Categories {
		for _, planType := range models.PlanTypes {
			t.Run(string(category)+"/"+string(planType), func(t *testing.T) {
				idea := bakery
				idea.Category = category
				months := BuildMonths(idea, planType)
				require.Len(t, months, models.MonthsPerPlan)
				for i, m := range months {
					assert.Equal(t, i+1, m.Month)
					assert.NotEmpty(t, m.Content)
					assert.Len(t, m.Tasks, 4)
				}
			})
		}
	}
}

func TestBuildMonthsAndMetrics_Repeatable(t *testing.T) {
	for _, planType := range models.PlanTypes {
		if diff := cmp.Diff(BuildMonths(bakery, planType), BuildMonths(bakery, planType)); diff != "" {
			t.Errorf("BuildMonths(%s) differs between calls (-first +second):\n%s", planType, diff)
		}
		if diff := cmp.Diff(BuildMetrics(bakery, planType), BuildMetrics(bakery, planType)); diff != "" {
			t.Errorf("BuildMetrics(%s) differs between calls (-first +second):\n%s", planType, diff)
		}
	}
}

func TestBuildMonths_ChickenHut(t *testing.T) {
	idea := models.IdeaSnapshot{
		Title:       "Chicken Hut",
		Description: "Homemade mini chicken food items, budget friendly, clean and homemade",
		Category:    models.CategoryFood,
		Budget:      models.BudgetLow,
	}
	first := BuildMonths(idea, models.PlanTypeConservative)[0]

	assert.Equal(t, "Foundation & Research", first.Title)
	assert.Equal(t, "15%", first.Budget)
	require.NotEmpty(t, first.Tasks)
	assert.Equal(t, "food specific setup", first.Tasks[0].Name)
	assert.Equal(t, float64(400), first.Tasks[0].Cost)
}
