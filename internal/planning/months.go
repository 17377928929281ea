// internal/planning/months.go
package planning

import (
	"fmt"
	"math"

	"bizpilot/internal/models"
)

// FocusLength is how many characters of the description a month narrative quotes.
const FocusLength = 50

// BuildMonths returns the six month entries of a plan for idea and planType.
func BuildMonths(idea models.IdeaSnapshot, planType models.PlanType) []models.MonthEntry {
	tmpl := TemplateFor(planType)
	focus := truncate(idea.Description, FocusLength)

	months := make([]models.MonthEntry, 0, models.MonthsPerPlan)
	for i := 0; i < models.MonthsPerPlan; i++ {
		month := i + 1
		months = append(months, models.MonthEntry{
			Month:      month,
			Title:      tmpl.Phases[i],
			Content:    fmt.Sprintf("%s for %s. Focus on %s...", Activity(idea.Category, Phase(i)), idea.Title, focus),
			Budget:     tmpl.BudgetShare(i),
			Milestones: Milestones(month, idea.Title, idea.Category),
			Tasks:      Tasks(idea.Category, idea.Budget),
		})
	}
	return months
}

// Milestones returns the milestone family for a 1-based month. Months
// outside 1..6 get the generic family.
func Milestones(month int, title string, category models.Category) []string {
	switch month {
	case 1:
		return []string{
			fmt.Sprintf("Complete %s foundation setup", title),
			"Finalize business registration",
			fmt.Sprintf("Establish initial %s requirements", category),
		}
	case 2:
		return []string{
			fmt.Sprintf("Launch %s development phase", title),
			"Secure key partnerships",
			fmt.Sprintf("Complete initial %s implementation", category),
		}
	case 3:
		return []string{
			fmt.Sprintf("%s soft launch completed", title),
			"First customer feedback collected",
			"Quality assurance measures in place",
		}
	case 4:
		return []string{
			fmt.Sprintf("%s growth metrics established", title),
			"Customer base expansion",
			fmt.Sprintf("Optimize %s operations", category),
		}
	case 5:
		return []string{
			fmt.Sprintf("%s scaling phase initiated", title),
			"Team expansion completed",
			fmt.Sprintf("Advanced %s features implemented", category),
		}
	case 6:
		return []string{
			fmt.Sprintf("%s optimization achieved", title),
			"Market position established",
			"Future growth plan finalized",
		}
	default:
		return []string{
			fmt.Sprintf("Month %d objectives for %s", month, title),
			"Progress tracking",
			"Quality maintenance",
		}
	}
}

// Tasks returns the four fixed tasks with costs scaled for the budget tier.
func Tasks(category models.Category, budget models.Budget) []models.Task {
	tasks := make([]models.Task, 0, len(taskTemplates))
	for _, t := range taskTemplates {
		name := t.name
		if t.perCategory {
			name = fmt.Sprintf(t.name, category)
		}
		tasks = append(tasks, models.Task{
			Name:           name,
			Priority:       t.priority,
			EstimatedHours: t.hours,
			Cost:           ScaleCost(t.baseCost, budget),
		})
	}
	return tasks
}

// ScaleCost applies the tier multiplier and rounds half away from zero.
func ScaleCost(base float64, budget models.Budget) float64 {
	return math.Round(base * TierMultiplier(budget))
}

// truncate keeps at most n characters of s. Shorter strings are returned whole.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
