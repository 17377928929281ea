// cmd/bizpilot/app.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bizpilot/internal/api"
	"bizpilot/internal/cache"
	"bizpilot/internal/common/auth"
	"bizpilot/internal/common/aws"
	"bizpilot/internal/common/config"
	"bizpilot/internal/common/database"
	"bizpilot/internal/common/logger"
	"bizpilot/internal/common/observability"
	"bizpilot/internal/llm"
	"bizpilot/internal/notify"
	"bizpilot/internal/planning"
	"bizpilot/internal/search"
	"bizpilot/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// app holds every long lived dependency a command may need. Optional
// services that are disabled in the config stay nil.
type app struct {
	cfg       *config.Config
	zap       *zap.Logger
	log       logger.Logger
	obs       *observability.Observability
	db        *sql.DB
	store     *store.Store
	redis     *database.RedisClient
	es        *database.ElasticsearchClient
	index     *search.PlanIndex
	cache     *cache.Cache
	generator *planning.Generator
	sharer    *notify.Sharer
	publisher *notify.Publisher
	closers   []func()
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func newLogger(cfg *config.Config) (*zap.Logger, logger.Logger) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	return zapLog, logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})
}

// retryWithBackoff runs operation up to maxRetries times, doubling the
// delay after each failure.
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log logger.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		if err = operation(); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		log.Warn(operationName+" failed, retrying", map[string]interface{}{
			"error":       err.Error(),
			"attempt":     i + 1,
			"maxRetries":  maxRetries,
			"nextRetryIn": delay.String(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled: %w", operationName, ctx.Err())
		}
		delay *= 2
	}
	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// newApp connects the store and every enabled integration.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}
	a.zap, a.log = newLogger(cfg)
	a.closers = append(a.closers, func() { _ = a.zap.Sync() })

	a.obs = observability.New(cfg.App.Name, cfg.Observability, prometheus.DefaultRegisterer, a.log)
	a.closers = append(a.closers, a.obs.Shutdown)

	if err := a.openStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openRedis(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openSearch(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openAWS(ctx); err != nil {
		a.Close()
		return nil, err
	}

	completer, err := llm.New(ctx, cfg.AI, a.obs)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("ai provider: %w", err)
	}
	var c planning.Completer
	if completer != nil {
		c = completer
		a.log.Info("AI plan drafts enabled", map[string]interface{}{"provider": cfg.AI.Provider, "model": completer.Model()})
	}
	a.generator = planning.NewGenerator(c, a.store, planning.GeneratorConfig{
		AITimeout:   config.GetDuration(cfg.AI.Timeout),
		MaxTokens:   cfg.AI.MaxTokens,
		Temperature: cfg.AI.Temperature,
	}, a.log, a.obs.Tracer())

	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	var (
		db     *sql.DB
		driver string
	)
	err := retryWithBackoff(ctx, func() error {
		var err error
		db, driver, err = database.Open(ctx, a.cfg.Database)
		return err
	}, 15, 2*time.Second, a.log, "Database connection")
	if err != nil {
		return err
	}
	a.db = db
	a.store = store.New(db, driver)
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.log.Info("Database connected", map[string]interface{}{"driver": driver})
	return nil
}

func (a *app) openRedis(ctx context.Context) error {
	rc := a.cfg.Database.Redis
	if !rc.Enabled {
		return nil
	}
	client, err := database.NewRedis(rc)
	if err != nil {
		return err
	}
	if err := retryWithBackoff(ctx, func() error { return client.Ping(ctx) }, 10, 2*time.Second, a.log, "Redis connection"); err != nil {
		_ = client.Close()
		return err
	}
	a.redis = client
	a.cache = cache.New(client.Client, config.GetDuration(rc.CacheTTL), a.log)
	a.closers = append(a.closers, func() { _ = client.Close() })
	a.log.Info("Redis connected", nil)
	return nil
}

func (a *app) openSearch(ctx context.Context) error {
	ec := a.cfg.Database.Elasticsearch
	if !ec.Enabled {
		return nil
	}
	client, err := database.NewElasticsearch(ec)
	if err != nil {
		return err
	}
	if err := retryWithBackoff(ctx, func() error { return client.Ping(ctx) }, 15, 2*time.Second, a.log, "Elasticsearch connection"); err != nil {
		return err
	}
	a.es = client
	a.index = search.NewPlanIndex(client.Client, ec.Index, a.log)
	if err := a.index.EnsureIndex(ctx); err != nil {
		return fmt.Errorf("preparing search index: %w", err)
	}
	a.log.Info("Elasticsearch connected", map[string]interface{}{"index": ec.Index})
	return nil
}

func (a *app) openAWS(ctx context.Context) error {
	ic := a.cfg.Integrations.AWS

	var sender notify.EmailSender
	if ic.SES.Enabled {
		client, err := aws.NewSESClient(ctx, ic.Region)
		if err != nil {
			return fmt.Errorf("ses: %w", err)
		}
		sender = client
	}
	a.sharer = notify.NewSharer(sender, ic.SES.FromEmail, a.log)

	if ic.SNS.Enabled {
		client, err := aws.NewSNSClient(ctx, ic.Region)
		if err != nil {
			return fmt.Errorf("sns: %w", err)
		}
		a.publisher = notify.NewPublisher(client, ic.SNS.TopicARN, a.log)
	}
	return nil
}

// checks are the dependencies reported by the health endpoint.
func (a *app) checks() map[string]api.Pinger {
	checks := map[string]api.Pinger{"database": a.store}
	if a.redis != nil {
		checks["redis"] = a.redis
	}
	if a.es != nil {
		checks["elasticsearch"] = a.es
	}
	return checks
}

func (a *app) tokens() *auth.Tokens {
	var denylist auth.Denylist
	if a.redis != nil {
		denylist = auth.NewRedisDenylist(a.redis.Client)
	}
	return auth.NewTokens(a.cfg.Auth, denylist)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
