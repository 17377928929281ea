// internal/planning/generator.go
package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bizpilot/internal/common/logger"
	"bizpilot/internal/common/metrics"
	"bizpilot/internal/llm"
	"bizpilot/internal/models"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

// ErrPersistFailed wraps a store failure while saving generated plans.
var ErrPersistFailed = errors.New("PLAN_PERSIST_FAILED")

// PlanStore persists the plans of one generation as a unit, assigning
// their identity and timestamps. Either all plans are stored or none.
type PlanStore interface {
	CreatePlans(ctx context.Context, plans []*models.BusinessPlan) error
}

type GeneratorConfig struct {
	AITimeout   time.Duration
	MaxTokens   int
	Temperature float64
}

func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		AITimeout:   30 * time.Second,
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}

// Result is the outcome of one generation. Plans and Sources follow
// models.PlanTypes order.
type Result struct {
	Plans    []models.BusinessPlan
	Sources  []Source
	Model    string
	Duration time.Duration
}

// Generator builds and persists the three plans of an idea. The completer
// is optional; without one every plan comes from the templates.
type Generator struct {
	completer Completer
	store     PlanStore
	cfg       GeneratorConfig
	log       logger.Logger
	tracer    trace.Tracer
}

func NewGenerator(completer Completer, store PlanStore, cfg GeneratorConfig, log logger.Logger, tracer trace.Tracer) *Generator {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("planning")
	}
	return &Generator{
		completer: completer,
		store:     store,
		cfg:       cfg,
		log:       log.Named("plan-generator"),
		tracer:    tracer,
	}
}

// AIEnabled reports whether drafts are requested from a provider.
func (g *Generator) AIEnabled() bool {
	return g.completer != nil
}

// Draft builds one draft per plan type concurrently. It never fails:
// provider problems fall back to the template for that type only.
func (g *Generator) Draft(ctx context.Context, idea models.IdeaSnapshot) []Draft {
	drafts := make([]Draft, len(models.PlanTypes))

	var eg errgroup.Group
	for i, planType := range models.PlanTypes {
		eg.Go(func() error {
			drafts[i] = g.draft(ctx, idea, planType)
			return nil
		})
	}
	_ = eg.Wait()

	return drafts
}

func (g *Generator) draft(ctx context.Context, idea models.IdeaSnapshot, planType models.PlanType) Draft {
	ctx, span := g.tracer.Start(ctx, "planning.draft",
		trace.WithAttributes(attribute.String("plan.type", string(planType))))
	defer span.End()

	d := Draft{Type: planType, Source: SourceTemplate}
	if g.completer != nil {
		plan, err := g.aiDraft(ctx, idea, planType)
		if err == nil {
			d.Source = SourceAI
			d.Plan = plan
		} else {
			reason := fallbackReason(err)
			metrics.AIFallbacks.WithLabelValues(string(planType), reason).Inc()
			span.RecordError(err)
			g.log.Warn("AI draft failed, falling back to template", map[string]interface{}{
				"ideaId":   idea.ID,
				"planType": planType,
				"reason":   reason,
				"error":    err.Error(),
			})
			d.Err = err
		}
	}
	if d.Source == SourceTemplate {
		d.Plan = BuildTemplatePlan(idea, planType)
	}

	span.SetAttributes(attribute.String("plan.source", string(d.Source)))
	metrics.PlansGenerated.WithLabelValues(string(planType), string(d.Source)).Inc()
	return d
}

func (g *Generator) aiDraft(ctx context.Context, idea models.IdeaSnapshot, planType models.PlanType) (models.BusinessPlan, error) {
	if g.cfg.AITimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.AITimeout)
		defer cancel()
	}

	resp, err := g.completer.Complete(ctx, llm.Request{
		System:      SystemPrompt,
		Prompt:      Prompt(idea, planType),
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return models.BusinessPlan{}, fmt.Errorf("%w: %v", llm.ErrTimeout, err)
		}
		return models.BusinessPlan{}, err
	}
	return parseAIPlan(resp.Text, idea, planType)
}

// Generate drafts all three plans and persists them in one batch. A
// persistence error fails the whole generation and no plans are kept.
func (g *Generator) Generate(ctx context.Context, idea models.IdeaSnapshot) (*Result, error) {
	start := time.Now()
	ctx, span := g.tracer.Start(ctx, "planning.generate",
		trace.WithAttributes(attribute.String("idea.id", idea.ID)))
	defer span.End()

	if g.store == nil {
		return nil, fmt.Errorf("%w: no plan store configured", ErrPersistFailed)
	}

	drafts := g.Draft(ctx, idea)

	batch := make([]*models.BusinessPlan, len(drafts))
	for i := range drafts {
		plan := drafts[i].Plan
		batch[i] = &plan
	}
	if err := g.store.CreatePlans(ctx, batch); err != nil {
		metrics.PlanGenerationDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		span.RecordError(err)
		span.SetStatus(codes.Error, "persisting plans")
		return nil, fmt.Errorf("%w: %w", ErrPersistFailed, err)
	}

	res := &Result{
		Plans:   make([]models.BusinessPlan, 0, len(drafts)),
		Sources: make([]Source, 0, len(drafts)),
		Model:   TemplateModel,
	}
	for i, d := range drafts {
		res.Plans = append(res.Plans, *batch[i])
		res.Sources = append(res.Sources, d.Source)
		if d.Source == SourceAI {
			res.Model = g.completer.Model()
		}
	}

	res.Duration = time.Since(start)
	metrics.PlanGenerationDuration.WithLabelValues("success").Observe(res.Duration.Seconds())
	g.log.Info("Plans generated", map[string]interface{}{
		"ideaId":     idea.ID,
		"sources":    res.Sources,
		"model":      res.Model,
		"durationMs": res.Duration.Milliseconds(),
	})
	return res, nil
}

// Preview returns the drafted plans without persisting them.
func (g *Generator) Preview(ctx context.Context, idea models.IdeaSnapshot) *Result {
	start := time.Now()
	drafts := g.Draft(ctx, idea)
	res := &Result{Model: TemplateModel}
	for _, d := range drafts {
		res.Plans = append(res.Plans, d.Plan)
		res.Sources = append(res.Sources, d.Source)
		if d.Source == SourceAI {
			res.Model = g.completer.Model()
		}
	}
	res.Duration = time.Since(start)
	return res
}
