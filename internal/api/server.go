// Package api serves the BizPilot HTTP API.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bizpilot/internal/cache"
	"bizpilot/internal/common/auth"
	"bizpilot/internal/common/config"
	"bizpilot/internal/common/logger"
	"bizpilot/internal/common/observability"
	"bizpilot/internal/notify"
	"bizpilot/internal/planning"
	"bizpilot/internal/search"
	"bizpilot/internal/store"
	"bizpilot/internal/upload"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Pinger is a dependency reported by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server. Cache, Index, Sharer,
// Publisher and Obs may be nil; the features they back degrade to no-ops.
type Deps struct {
	Config    *config.Config
	Store     *store.Store
	Generator *planning.Generator
	Tokens    *auth.Tokens
	Cache     *cache.Cache
	Index     *search.PlanIndex
	Sharer    *notify.Sharer
	Publisher *notify.Publisher
	Uploads   *upload.Processor
	Obs       *observability.Observability
	Logger    logger.Logger
	// Checks are pinged by /api/health, keyed by dependency name.
	Checks map[string]Pinger
	// RateLimit is the number of /api requests a client may make per
	// RateWindow. Zero disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

type Server struct {
	cfg            *config.Config
	store          *store.Store
	generator      *planning.Generator
	tokens         *auth.Tokens
	cache          *cache.Cache
	index          *search.PlanIndex
	sharer         *notify.Sharer
	publisher      *notify.Publisher
	uploads        *upload.Processor
	obs            *observability.Observability
	log            logger.Logger
	checks         map[string]Pinger
	allowedOrigins []string
	limiter        *ipLimiter
	trustProxy     bool
	started        time.Time
	now            func() time.Time
}

func New(d Deps) *Server {
	log := d.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	s := &Server{
		cfg:            d.Config,
		store:          d.Store,
		generator:      d.Generator,
		tokens:         d.Tokens,
		cache:          d.Cache,
		index:          d.Index,
		sharer:         d.Sharer,
		publisher:      d.Publisher,
		uploads:        d.Uploads,
		obs:            d.Obs,
		log:            log.Named("api"),
		checks:         d.Checks,
		allowedOrigins: d.Config.Server.AllowedOrigins,
		trustProxy:     d.Config.Server.TrustProxy,
		now:            time.Now,
	}
	if s.sharer == nil {
		s.sharer = notify.NewSharer(nil, "", log)
	}
	if s.uploads == nil {
		s.uploads = upload.NewProcessor(d.Config.Upload, log)
	}
	if d.RateLimit > 0 && d.RateWindow > 0 {
		s.limiter = newIPLimiter(d.RateLimit, d.RateWindow)
	}
	s.started = s.now()
	return s
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /api/auth/register", s.handleRegister)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	mux.HandleFunc("GET /api/auth/me", s.protect(s.handleMe))
	mux.HandleFunc("PUT /api/auth/profile", s.protect(s.handleUpdateProfile))
	mux.HandleFunc("POST /api/auth/logout", s.protect(s.handleLogout))

	mux.HandleFunc("POST /api/business/ideas", s.protect(s.handleCreateIdea))
	mux.HandleFunc("POST /api/business/ideas/demo", s.handleDemoIdea)
	mux.HandleFunc("GET /api/business/ideas", s.protect(s.handleListIdeas))
	mux.HandleFunc("GET /api/business/ideas/{id}", s.protect(s.handleGetIdea))
	mux.HandleFunc("PUT /api/business/ideas/{id}", s.protect(s.handleUpdateIdea))
	mux.HandleFunc("DELETE /api/business/ideas/{id}", s.protect(s.handleDeleteIdea))
	mux.HandleFunc("GET /api/business/analytics", s.protect(s.handleAnalytics))

	mux.HandleFunc("GET /api/plans", s.protect(s.handleListPlans))
	mux.HandleFunc("GET /api/plans/search", s.protect(s.handleSearchPlans))
	mux.HandleFunc("GET /api/plans/{id}", s.protect(s.handleGetPlan))
	mux.HandleFunc("POST /api/plans/{id}/save", s.protect(s.handleSavePlan))
	mux.HandleFunc("POST /api/plans/{id}/archive", s.protect(s.handleArchivePlan))
	mux.HandleFunc("PUT /api/plans/{id}/tasks", s.protect(s.handleUpdateTask))
	mux.HandleFunc("GET /api/plans/{id}/export/{format}", s.protect(s.handleExportPlan))
	mux.HandleFunc("POST /api/plans/{id}/share", s.protect(s.handleSharePlan))
	mux.HandleFunc("POST /api/plans/{id}/feedback", s.protect(s.handleFeedback))

	mux.HandleFunc("GET /api/users/dashboard", s.protect(s.handleDashboard))

	mux.HandleFunc("POST /api/upload/business-image", s.protect(s.handleUploadImage))
	mux.HandleFunc("GET /api/upload/{filename}", s.handleServeUpload)

	return mux
}

// Handler returns the fully wrapped API handler.
func (s *Server) Handler() http.Handler {
	h := chain(s.routes(),
		s.withState,
		s.observe,
		s.recoverer,
		s.cors,
		s.rateLimit,
	)
	return otelhttp.NewHandler(h, "bizpilot-api",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

// ListenAndServe serves until ctx is cancelled, then drains in-flight
// requests for the configured shutdown timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Server.Address,
		Handler:      s.Handler(),
		ReadTimeout:  config.GetDuration(s.cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(s.cfg.Server.WriteTimeout),
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("HTTP server listening", map[string]interface{}{"address": srv.Addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("HTTP server shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.cfg.Server.ShutdownTimeout))
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
