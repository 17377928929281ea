// internal/workers/planning/generate-business-plans/handler.go
package generatebusinessplans

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"bizpilot/internal/common/errors"
	"bizpilot/internal/common/logger"
	"bizpilot/internal/common/metrics"
	"bizpilot/internal/models"
	"bizpilot/internal/notify"
	"bizpilot/internal/planning"
	"bizpilot/internal/search"
	"bizpilot/internal/store"
	"bizpilot/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "generate-business-plans"

var activity = func() *registry.Activity {
	a, ok := registry.Default().Find(TaskType)
	if !ok {
		panic("registry: no activity for " + TaskType)
	}
	return a
}()

// IdeaStore is the part of the store the worker reads and writes.
type IdeaStore interface {
	GetIdea(ctx context.Context, userID, id string) (*models.BusinessIdea, error)
	UpdateIdea(ctx context.Context, idea *models.BusinessIdea) error
	PlansForIdea(ctx context.Context, userID, ideaID string) ([]models.BusinessPlan, error)
	DeletePlansForIdea(ctx context.Context, userID, ideaID string) ([]string, error)
}

// Retrier re-sends job commands on transient broker failures.
type Retrier interface {
	ExecuteWithRetry(ctx context.Context, commandFunc func(context.Context) error, operationName string) error
}

type HandlerOptions struct {
	Config    *Config
	Store     IdeaStore
	Generator *planning.Generator
	Index     *search.PlanIndex
	Publisher *notify.Publisher
	Camunda   Retrier
	Logger    logger.Logger
}

type Handler struct {
	config    *Config
	store     IdeaStore
	generator *planning.Generator
	index     *search.PlanIndex
	publisher *notify.Publisher
	camunda   Retrier
	errs      *errors.JobErrorHandler
	logger    logger.Logger
	now       func() time.Time
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	cfg := opts.Config
	if cfg == nil {
		cfg = &Config{Enabled: true, MaxJobsActive: 5, Timeout: 60 * time.Second, MaxRetries: 3}
	}
	return &Handler{
		config:    cfg,
		store:     opts.Store,
		generator: opts.Generator,
		index:     opts.Index,
		publisher: opts.Publisher,
		camunda:   opts.Camunda,
		errs:      errors.NewJobErrorHandler(log),
		logger:    log,
		now:       time.Now,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing job", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	input, err := parseInput(job.GetVariables())
	if err != nil {
		h.fail(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return err
	}

	if err := h.complete(ctx, client, job, output); err != nil {
		return err
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	return nil
}

func parseInput(variables string) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewValidationError("job variables are not a JSON object: " + err.Error())
	}
	if err := activity.ValidateInput([]byte(variables)); err != nil {
		return nil, errors.NewValidationError("job variables: " + err.Error())
	}
	input.IdeaID = strings.TrimSpace(input.IdeaID)
	if input.IdeaID == "" {
		return nil, errors.NewValidationError("ideaId is required")
	}
	return &input, nil
}

// Execute generates and persists the plans of the idea. An idea that
// already has plans is not generated again, so redelivered jobs are safe.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	idea, err := h.store.GetIdea(ctx, "", input.IdeaID)
	if err != nil {
		if stderrors.Is(err, store.ErrNotFound) {
			return nil, errors.NewNotFoundError("Business idea", input.IdeaID)
		}
		return nil, errors.NewQueryExecutionFailedError("load idea", err)
	}

	if idea.PlanCount > 0 {
		plans, err := h.store.PlansForIdea(ctx, idea.UserID, idea.ID)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("load plans", err)
		}
		if len(plans) == len(models.PlanTypes) {
			h.logger.Info("Idea already has plans", map[string]interface{}{"ideaId": idea.ID, "plans": len(plans)})
			return &Output{PlanIDs: planIDs(plans), Sources: []string{}, AIModel: idea.Metadata.AIModel, Reused: true}, nil
		}

		// A partial set is never handed out; start over.
		removed, err := h.store.DeletePlansForIdea(ctx, idea.UserID, idea.ID)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("delete partial plans", err)
		}
		h.logger.Warn("Discarded incomplete plan set", map[string]interface{}{"ideaId": idea.ID, "plans": len(removed)})
		if err := h.index.DeletePlans(ctx, removed); err != nil {
			h.logger.Warn("Could not remove plans from index", map[string]interface{}{"ideaId": idea.ID, "error": err.Error()})
		}
	}

	start := h.now()
	idea.Status = models.IdeaStatusProcessing
	if err := h.store.UpdateIdea(ctx, idea); err != nil {
		return nil, errors.NewQueryExecutionFailedError("update idea", err)
	}

	result, err := h.generator.Generate(ctx, idea.Snapshot())
	if err != nil {
		idea.Status = models.IdeaStatusDraft
		if uerr := h.store.UpdateIdea(ctx, idea); uerr != nil {
			h.logger.Warn("Could not reset idea status", map[string]interface{}{"ideaId": idea.ID, "error": uerr.Error()})
		}
		return nil, errors.NewPlanGenerationFailedError(err)
	}

	idea.Status = models.IdeaStatusCompleted
	idea.Metadata.AIModel = result.Model
	idea.Metadata.ProcessingTime = h.now().Sub(start).Milliseconds()
	if err := h.store.UpdateIdea(ctx, idea); err != nil {
		return nil, errors.NewQueryExecutionFailedError("update idea", err)
	}

	if err := h.index.IndexPlans(ctx, result.Plans); err != nil {
		h.logger.Warn("Could not index plans", map[string]interface{}{"ideaId": idea.ID, "error": err.Error()})
	}

	out := &Output{
		PlanIDs: planIDs(result.Plans),
		Sources: make([]string, len(result.Sources)),
		AIModel: result.Model,
	}
	for i, src := range result.Sources {
		out.Sources[i] = string(src)
	}

	if err := h.publisher.Publish(ctx, models.PlanEvent{
		Type:    models.EventPlansGenerated,
		UserID:  idea.UserID,
		IdeaID:  idea.ID,
		PlanIDs: out.PlanIDs,
		Sources: out.Sources,
	}); err != nil {
		h.logger.Warn("Could not publish plan event", map[string]interface{}{"ideaId": idea.ID, "error": err.Error()})
	}

	h.logger.Info("Plans generated", map[string]interface{}{
		"ideaId":  idea.ID,
		"planIds": out.PlanIDs,
		"aiModel": out.AIModel,
	})
	return out, nil
}

func planIDs(plans []models.BusinessPlan) []string {
	ids := make([]string, len(plans))
	for i := range plans {
		ids[i] = plans[i].ID
	}
	return ids
}

func (h *Handler) complete(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	send := func(ctx context.Context) error {
		cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
		if err != nil {
			return err
		}
		_, err = cmd.Send(ctx)
		return err
	}

	var err error
	if h.camunda != nil {
		err = h.camunda.ExecuteWithRetry(ctx, send, "complete job")
	} else {
		err = send(ctx)
	}
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{"jobKey": job.GetKey(), "error": err.Error()})
		return err
	}
	h.logger.Info("Job completed", map[string]interface{}{"jobKey": job.GetKey(), "plans": len(output.PlanIDs)})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errs.HandleJobError(ctx, client, job, err)
}
