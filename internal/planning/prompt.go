// internal/planning/prompt.go
package planning

import (
	"fmt"

	"bizpilot/internal/models"
)

// SystemPrompt frames every plan request.
const SystemPrompt = "You are an expert business consultant who creates detailed 6-month business plans."

const promptFormat = `
Create a detailed 6-month %s business plan for the following business idea:

Title: %s
Description: %s
Category: %s
Budget Range: %s

Please provide a JSON response with the following structure:
{
    "title": "Plan title",
    "description": "Plan description",
    "riskLevel": "Low|Medium|High",
    "months": [
        {
            "month": 1,
            "title": "Month title",
            "content": "Detailed content",
            "budget": "%% of total budget",
            "milestones": ["milestone1", "milestone2"],
            "tasks": [
                {
                    "name": "Task name",
                    "priority": "low|medium|high",
                    "estimatedHours": 10,
                    "cost": 100
                }
            ]
        }
    ]
}

Focus on making the plan %s.
`

// Prompt renders the user prompt for one plan type.
func Prompt(idea models.IdeaSnapshot, planType models.PlanType) string {
	return fmt.Sprintf(promptFormat,
		planType, idea.Title, idea.Description, idea.Category, idea.Budget,
		TemplateFor(planType).Focus,
	)
}
