package planning

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"bizpilot/internal/common/logger"
	"bizpilot/internal/llm"
	"bizpilot/internal/models"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeCompleter answers per plan type, read back from the prompt.
type fakeCompleter struct {
	mu       sync.Mutex
	model    string
	answer   func(ctx context.Context, planType models.PlanType) (string, error)
	requests []llm.Request
}

func (f *fakeCompleter) Model() string { return f.model }

func (f *fakeCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	var planType models.PlanType
	for _, pt := range models.PlanTypes {
		if strings.Contains(req.Prompt, fmt.Sprintf("6-month %s business plan", pt)) {
			planType = pt
		}
	}
	text, err := f.answer(ctx, planType)
	if err != nil {
		return nil, err
	}
	return &llm.Response{Text: text, Model: f.model}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	created []models.BusinessPlan
	failAt  int // 1-based plan of a batch that fails, 0 never
	calls   int
}

func (s *fakeStore) CreatePlans(_ context.Context, plans []*models.BusinessPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for i, plan := range plans {
		if s.failAt == i+1 {
			return fmt.Errorf("inserting plan %s: connection reset", plan.Type)
		}
	}
	for i, plan := range plans {
		plan.ID = fmt.Sprintf("plan-%d", len(s.created)+1)
		plan.CreatedAt = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		plan.UpdatedAt = plan.CreatedAt
		s.created = append(s.created, *plans[i])
	}
	return nil
}

func aiResponse(planType models.PlanType, cost float64) string {
	months := make([]map[string]interface{}, models.MonthsPerPlan)
	for i := range months {
		months[i] = map[string]interface{}{
			"month":      i + 7, // providers sometimes number months oddly
			"title":      fmt.Sprintf("AI month %d", i+1),
			"content":    "Do the work",
			"budget":     "",
			"milestones": []string{"ship"},
			"tasks": []map[string]interface{}{
				{"name": "Build", "priority": "high", "estimatedHours": 10, "cost": cost},
			},
		}
	}
	body, _ := json.Marshal(map[string]interface{}{
		"title":       fmt.Sprintf("AI %s plan", planType),
		"description": "Generated",
		"riskLevel":   "Medium",
		"months":      months,
	})
	return "```json\n" + string(body) + "\n```"
}

func newTestGenerator(t *testing.T, c Completer, store PlanStore, cfg GeneratorConfig) *Generator {
	return NewGenerator(c, store, cfg, logger.NewTestLogger(t), nil)
}

func TestGenerate_TemplateOnly(t *testing.T) {
	store := &fakeStore{}
	gen := newTestGenerator(t, nil, store, DefaultGeneratorConfig())

	res, err := gen.Generate(context.Background(), bakery)
	require.NoError(t, err)

	require.Len(t, res.Plans, 3)
	assert.Equal(t, []Source{SourceTemplate, SourceTemplate, SourceTemplate}, res.Sources)
	assert.Equal(t, TemplateModel, res.Model)
	assert.False(t, gen.AIEnabled())

	wantRisk := []models.RiskLevel{models.RiskLow, models.RiskHigh, models.RiskMedium}
	for i, plan := range res.Plans {
		assert.Equal(t, models.PlanTypes[i], plan.Type)
		assert.Equal(t, wantRisk[i], plan.RiskLevel)
		assert.Equal(t, fmt.Sprintf("plan-%d", i+1), plan.ID)
		assert.Equal(t, []string{"food", "high", string(plan.Type)}, plan.Tags)
		assert.Equal(t, models.PlanStatusDraft, plan.Status)
		assert.Equal(t, "idea-1", plan.IdeaID)
		assert.Equal(t, "user-1", plan.UserID)
		assert.Len(t, plan.Months, models.MonthsPerPlan)
		// 4 tasks x 6 months, (800+400+600+500) x 1.5
		assert.Equal(t, float64(6*3450), plan.TotalBudgetEstimate)
	}
}

func TestGenerate_MatchesTemplatePlans(t *testing.T) {
	store := &fakeStore{}
	gen := newTestGenerator(t, nil, store, DefaultGeneratorConfig())

	res, err := gen.Generate(context.Background(), bakery)
	require.NoError(t, err)

	for i, pt := range models.PlanTypes {
		want := BuildTemplatePlan(bakery, pt)
		if diff := cmp.Diff(want, res.Plans[i],
			cmpopts.IgnoreFields(models.BusinessPlan{}, "ID", "CreatedAt", "UpdatedAt")); diff != "" {
			t.Errorf("%s plan mismatch (-want +got):\n%s", pt, diff)
		}
	}
}

func TestGenerate_AIDrafts(t *testing.T) {
	completer := &fakeCompleter{
		model: "gpt-3.5-turbo",
		answer: func(_ context.Context, pt models.PlanType) (string, error) {
			return aiResponse(pt, 100), nil
		},
	}
	store := &fakeStore{}
	gen := newTestGenerator(t, completer, store, DefaultGeneratorConfig())

	res, err := gen.Generate(context.Background(), bakery)
	require.NoError(t, err)

	assert.Equal(t, []Source{SourceAI, SourceAI, SourceAI}, res.Sources)
	assert.Equal(t, "gpt-3.5-turbo", res.Model)

	for i, plan := range res.Plans {
		pt := models.PlanTypes[i]
		assert.Equal(t, fmt.Sprintf("AI %s plan", pt), plan.Title)
		assert.Equal(t, RiskLevelFor(pt), plan.RiskLevel, "risk level forced to the type's")
		assert.Equal(t, models.Timeline, plan.Timeline)
		assert.Equal(t, Tags(bakery, pt), plan.Tags)
		assert.Len(t, plan.SuccessMetrics, 3)
		assert.Equal(t, float64(600), plan.TotalBudgetEstimate, "provider costs are not rescaled")
		for j, m := range plan.Months {
			assert.Equal(t, j+1, m.Month)
			assert.Equal(t, TemplateFor(pt).BudgetShare(j), m.Budget)
			assert.Equal(t, models.PriorityHigh, m.Tasks[0].Priority)
		}
	}

	require.Len(t, completer.requests, 3)
	for _, req := range completer.requests {
		assert.Equal(t, SystemPrompt, req.System)
		assert.Equal(t, 2000, req.MaxTokens)
		assert.Equal(t, 0.7, req.Temperature)
	}
}

func TestDraft_OneFailureFallsBackAlone(t *testing.T) {
	tests := []struct {
		name   string
		answer func(ctx context.Context) (string, error)
	}{
		{"provider error", func(context.Context) (string, error) { return "", errors.New("503 from upstream") }},
		{"prose", func(context.Context) (string, error) { return "Sorry, I can't do that.", nil }},
		{"schema", func(context.Context) (string, error) { return `{"title":"x","months":[]}`, nil }},
		{"timeout", func(ctx context.Context) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			completer := &fakeCompleter{
				model: "m",
				answer: func(ctx context.Context, pt models.PlanType) (string, error) {
					if pt == models.PlanTypeAggressive {
						return tt.answer(ctx)
					}
					return aiResponse(pt, 100), nil
				},
			}
			cfg := DefaultGeneratorConfig()
			cfg.AITimeout = 20 * time.Millisecond
			gen := newTestGenerator(t, completer, nil, cfg)

			drafts := gen.Draft(context.Background(), bakery)
			require.Len(t, drafts, 3)

			assert.Equal(t, SourceAI, drafts[0].Source)
			assert.Equal(t, SourceTemplate, drafts[1].Source)
			assert.Equal(t, SourceAI, drafts[2].Source)
			assert.Error(t, drafts[1].Err)
			assert.Equal(t, BuildTemplatePlan(bakery, models.PlanTypeAggressive), drafts[1].Plan)
		})
	}
}

func TestNormalizeAIPlan(t *testing.T) {
	var p aiPlan
	for i := 0; i < models.MonthsPerPlan; i++ {
		p.Months = append(p.Months, aiMonth{
			Month:      3,
			Title:      " ",
			Content:    " body ",
			Milestones: []string{"m"},
			Tasks:      []aiTask{{Name: " T ", Priority: "LOW", EstimatedHours: -1, Cost: -20}},
		})
	}

	plan := normalizeAIPlan(p, bakery, models.PlanTypeLean)

	assert.Equal(t, "Lean Startup Plan for Sourdough Corner", plan.Title)
	assert.Equal(t, TemplateFor(models.PlanTypeLean).Description(models.CategoryFood), plan.Description)
	assert.Equal(t, models.RiskMedium, plan.RiskLevel)
	for i, m := range plan.Months {
		assert.Equal(t, i+1, m.Month)
		assert.Equal(t, TemplateFor(models.PlanTypeLean).Phases[i], m.Title)
		assert.Equal(t, "body", m.Content)
		assert.Equal(t, models.Task{Name: "T", Priority: models.PriorityLow}, m.Tasks[0])
	}
	assert.Zero(t, plan.TotalBudgetEstimate)
}

func TestFallbackReason(t *testing.T) {
	assert.Equal(t, "timeout", fallbackReason(fmt.Errorf("%w: x", llm.ErrTimeout)))
	assert.Equal(t, "timeout", fallbackReason(context.DeadlineExceeded))
	assert.Equal(t, "schema", fallbackReason(fmt.Errorf("%w: months", ErrInvalidDraft)))
	assert.Equal(t, "invalid_output", fallbackReason(llm.ErrEmptyResponse))
	assert.Equal(t, "provider_error", fallbackReason(errors.New("boom")))
}

func TestGenerate_PersistenceFailure(t *testing.T) {
	store := &fakeStore{failAt: 2}
	gen := newTestGenerator(t, nil, store, DefaultGeneratorConfig())

	res, err := gen.Generate(context.Background(), bakery)
	assert.Nil(t, res)
	require.ErrorIs(t, err, ErrPersistFailed)
	assert.Contains(t, err.Error(), "aggressive")
	assert.Equal(t, 1, store.calls, "plans are persisted as one batch")
	assert.Empty(t, store.created)
}

func TestGenerate_NoStore(t *testing.T) {
	gen := newTestGenerator(t, nil, nil, DefaultGeneratorConfig())
	_, err := gen.Generate(context.Background(), bakery)
	assert.ErrorIs(t, err, ErrPersistFailed)
}

func TestPreview_DoesNotPersist(t *testing.T) {
	store := &fakeStore{}
	gen := newTestGenerator(t, nil, store, DefaultGeneratorConfig())

	res := gen.Preview(context.Background(), bakery)
	assert.Len(t, res.Plans, 3)
	assert.Zero(t, store.calls)
	for _, p := range res.Plans {
		assert.Empty(t, p.ID)
	}
}
