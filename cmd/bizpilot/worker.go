// cmd/bizpilot/worker.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"bizpilot/internal/common/camunda"
	"bizpilot/internal/common/config"
	generatebusinessplans "bizpilot/internal/workers/planning/generate-business-plans"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// startPlanWorker connects to the broker and opens the plan generation job
// worker. The returned func stops the worker and closes the client.
func startPlanWorker(ctx context.Context, a *app) (func(), error) {
	wcfg := generatebusinessplans.LoadConfig(a.cfg)
	if !wcfg.Enabled {
		a.log.Info("worker disabled", map[string]interface{}{"taskType": generatebusinessplans.TaskType})
		return func() {}, nil
	}

	var client *camunda.Client
	err := retryWithBackoff(ctx, func() error {
		var err error
		client, err = camunda.NewClientWithConfig(ctx, &camunda.ClientConfig{
			GatewayAddress:         a.cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(a.cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, a.log, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}
	a.log.Info("Zeebe client connected", map[string]interface{}{"broker": a.cfg.Camunda.BrokerAddress})

	handler := generatebusinessplans.NewHandler(generatebusinessplans.HandlerOptions{
		Config:    wcfg,
		Store:     a.store,
		Generator: a.generator,
		Index:     a.index,
		Publisher: a.publisher,
		Camunda:   client,
		Logger:    a.log,
	})
	w := camunda.NewWorker(client.GetClient(), generatebusinessplans.TaskType, wcfg.MaxJobsActive, wcfg.Timeout, handler, a.log)

	return func() {
		w.Stop()
		if err := client.Close(); err != nil {
			a.log.Error("Error closing Zeebe client", map[string]interface{}{"error": err.Error()})
		}
	}, nil
}

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run only the plan generation workflow worker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(opts.configPath)
			if err != nil {
				return err
			}
			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			stop, err := startPlanWorker(ctx, a)
			if err != nil {
				return err
			}
			defer stop()

			srv := &http.Server{Addr: metricsAddr, Handler: workerMux(), ReadHeaderTimeout: 5 * time.Second}
			go func() {
				a.log.Info("Health/Metrics server listening", map[string]interface{}{"address": metricsAddr})
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
				}
			}()

			<-ctx.Done()
			a.log.Info("Shutdown signal received, stopping worker", nil)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":8080", "address of the health and metrics endpoints")
	return cmd
}

func workerMux() *http.ServeMux {
	mux := http.NewServeMux()
	status := func(s string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": s,
				"time":   time.Now().Format(time.RFC3339),
			})
		}
	}
	mux.HandleFunc("GET /health", status("healthy"))
	mux.HandleFunc("GET /ready", status("ready"))
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}
