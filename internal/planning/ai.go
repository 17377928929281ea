// internal/planning/ai.go
package planning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"bizpilot/internal/common/validation"
	"bizpilot/internal/llm"
	"bizpilot/internal/models"
)

// Source records where a plan's content came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
)

// TemplateModel is reported as the model when no plan came from a provider.
const TemplateModel = "template"

// ErrInvalidDraft marks provider output that parsed but failed the plan schema.
var ErrInvalidDraft = errors.New("INVALID_AI_DRAFT")

// Completer is the text generation provider used for AI drafts.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
	Model() string
}

// Draft is one plan type's content before persistence. Err holds the
// provider failure that caused a template fallback.
type Draft struct {
	Type   models.PlanType
	Source Source
	Plan   models.BusinessPlan
	Err    error
}

type aiTask struct {
	Name           string  `json:"name"`
	Priority       string  `json:"priority"`
	EstimatedHours float64 `json:"estimatedHours"`
	Cost           float64 `json:"cost"`
}

type aiMonth struct {
	Month      int      `json:"month"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Budget     string   `json:"budget"`
	Milestones []string `json:"milestones"`
	Tasks      []aiTask `json:"tasks"`
}

type aiPlan struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	RiskLevel   string    `json:"riskLevel"`
	Months      []aiMonth `json:"months"`
}

// parseAIPlan extracts, validates and normalizes a provider response.
func parseAIPlan(text string, idea models.IdeaSnapshot, planType models.PlanType) (models.BusinessPlan, error) {
	block, err := llm.ExtractJSON(text)
	if err != nil {
		return models.BusinessPlan{}, err
	}

	res, err := validation.GeneratedPlan.ValidateJSON(block)
	if err != nil {
		return models.BusinessPlan{}, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
	}
	if !res.Valid {
		return models.BusinessPlan{}, fmt.Errorf("%w: %s", ErrInvalidDraft, strings.Join(res.GetErrorMessages(), "; "))
	}

	var parsed aiPlan
	if err := json.Unmarshal(block, &parsed); err != nil {
		return models.BusinessPlan{}, fmt.Errorf("%w: %v", llm.ErrInvalidOutput, err)
	}
	if len(parsed.Months) != models.MonthsPerPlan {
		return models.BusinessPlan{}, fmt.Errorf("%w: %d months", ErrInvalidDraft, len(parsed.Months))
	}
	return normalizeAIPlan(parsed, idea, planType), nil
}

// normalizeAIPlan forces the plan invariants onto provider content: months
// numbered 1..6 in order, the type's risk level, non-negative costs and
// the template's success metrics and tags. Task costs are kept as given.
func normalizeAIPlan(p aiPlan, idea models.IdeaSnapshot, planType models.PlanType) models.BusinessPlan {
	tmpl := TemplateFor(planType)

	months := make([]models.MonthEntry, models.MonthsPerPlan)
	for i := range months {
		m := p.Months[i]
		tasks := make([]models.Task, 0, len(m.Tasks))
		for _, t := range m.Tasks {
			tasks = append(tasks, models.Task{
				Name:           strings.TrimSpace(t.Name),
				Priority:       models.Priority(strings.ToLower(t.Priority)),
				EstimatedHours: math.Max(0, t.EstimatedHours),
				Cost:           math.Max(0, t.Cost),
			})
		}
		months[i] = models.MonthEntry{
			Month:      i + 1,
			Title:      orDefault(m.Title, tmpl.Phases[i]),
			Content:    strings.TrimSpace(m.Content),
			Budget:     orDefault(m.Budget, tmpl.BudgetShare(i)),
			Milestones: m.Milestones,
			Tasks:      tasks,
		}
	}

	plan := models.BusinessPlan{
		UserID:         idea.UserID,
		IdeaID:         idea.ID,
		Title:          orDefault(p.Title, tmpl.Title(idea.Title)),
		Description:    orDefault(p.Description, tmpl.Description(idea.Category)),
		Type:           tmpl.Type,
		RiskLevel:      tmpl.RiskLevel,
		Timeline:       models.Timeline,
		Months:         months,
		SuccessMetrics: BuildMetrics(idea, planType),
		Status:         models.PlanStatusDraft,
		Tags:           Tags(idea, planType),
	}
	plan.Recalculate()
	return plan
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// fallbackReason labels why an AI draft was abandoned.
func fallbackReason(err error) string {
	switch {
	case errors.Is(err, llm.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrInvalidDraft):
		return "schema"
	case errors.Is(err, llm.ErrInvalidOutput), errors.Is(err, llm.ErrEmptyResponse):
		return "invalid_output"
	default:
		return "provider_error"
	}
}
