// internal/llm/factory.go
package llm

import (
	"context"
	"fmt"
	"net/http"

	"bizpilot/internal/common/config"
	commonhttp "bizpilot/internal/common/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// New builds the configured provider. It returns a nil Client when no
// provider is configured or the key is missing; callers then use templates.
func New(ctx context.Context, cfg config.AIConfig, recorder LatencyRecorder) (Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	switch cfg.Provider {
	case "openai":
		timeout := config.GetDuration(cfg.Timeout)
		httpClient := commonhttp.NewClient(timeout,
			commonhttp.WithRetries(cfg.MaxRetries),
			commonhttp.WithHTTPClient(&http.Client{
				Timeout:   timeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			}),
		)
		return NewOpenAIClient(cfg.APIKey, cfg.BaseURL, cfg.Model, httpClient, recorder), nil
	case "gemini":
		client, err := NewGeminiClient(ctx, cfg.APIKey, cfg.Model, recorder)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
