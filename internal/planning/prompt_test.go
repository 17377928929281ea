package planning

import (
	"testing"

	"bizpilot/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPrompt(t *testing.T) {
	p := Prompt(bakery, models.PlanTypeLean)

	assert.Contains(t, p, "Create a detailed 6-month lean business plan for the following business idea:")
	assert.Contains(t, p, "Title: Sourdough Corner\n")
	assert.Contains(t, p, "Category: food\n")
	assert.Contains(t, p, "Budget Range: high\n")
	assert.Contains(t, p, `"budget": "% of total budget"`)
	assert.Contains(t, p, "Focus on making the plan lean and iterative with focus on learning.")
	assert.NotContains(t, p, "%!")
}

func TestPrompt_FocusPerType(t *testing.T) {
	assert.Contains(t, Prompt(bakery, models.PlanTypeConservative), "Focus on making the plan low-risk and sustainable.")
	assert.Contains(t, Prompt(bakery, models.PlanTypeAggressive), "Focus on making the plan high-growth and ambitious.")
}
