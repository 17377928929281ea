// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"APP_ENVIRONMENT", "JWT_SECRET", "FRONTEND_URL", "DATABASE_DRIVER", "AI_PROVIDER", "AI_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

const sqliteConfig = `
database:
  driver: sqlite
  sqlite:
    path: ":memory:"
workers:
  generate-business-plans:
    enabled: true
`

func TestLoadFromFile_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFromFile(writeConfig(t, sqliteConfig))
	require.NoError(t, err)

	assert.Equal(t, "bizpilot", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "http://localhost:3000", cfg.App.FrontendURL)
	assert.Equal(t, ":5000", cfg.Server.Address)
	assert.Zero(t, cfg.Server.RateLimit)
	assert.Equal(t, 15*time.Minute, GetDuration(cfg.Server.RateWindow))
	assert.Equal(t, DevelopmentJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 7*24*time.Hour, GetDuration(cfg.Auth.JWTExpiry))
	assert.Equal(t, "none", cfg.AI.Provider)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, int64(5<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "/api/upload", cfg.Upload.PublicURL)

	w := GetWorkerConfig(cfg, "generate-business-plans")
	assert.Equal(t, WorkerConfig{Enabled: true, MaxJobsActive: 5, Timeout: 30000, MaxRetries: 3}, w)
}

func TestLoadFromFile_ProductionRateLimit(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENVIRONMENT", "production")
	t.Setenv("JWT_SECRET", "a-real-secret")

	cfg, err := LoadFromFile(writeConfig(t, sqliteConfig))
	require.NoError(t, err)
	assert.True(t, cfg.App.IsProduction())
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, "a-real-secret", cfg.Auth.JWTSecret)
}

func TestLoadFromFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown driver",
			body:    "database:\n  driver: mysql\n",
			wantErr: "database.driver",
		},
		{
			name:    "postgres without host",
			body:    "database:\n  driver: postgres\n",
			wantErr: "database.postgres.host",
		},
		{
			name:    "redis without address",
			body:    "database:\n  driver: sqlite\n  redis:\n    enabled: true\n",
			wantErr: "database.redis.address",
		},
		{
			name:    "production without secret",
			body:    sqliteConfig,
			env:     map[string]string{"APP_ENVIRONMENT": "production"},
			wantErr: "auth.jwt_secret",
		},
		{
			name:    "unknown ai provider",
			body:    sqliteConfig + "ai:\n  provider: claude\n",
			wantErr: "ai.provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestShareLink(t *testing.T) {
	cfg := &Config{App: AppConfig{FrontendURL: "https://bizpilot.app"}}
	assert.Equal(t, "https://bizpilot.app/plans/abc%20def", cfg.ShareLink("abc def"))
}

func TestGetWorkerConfig_Missing(t *testing.T) {
	w := GetWorkerConfig(&Config{}, "unknown")
	assert.True(t, w.Enabled)
	assert.Equal(t, 30*time.Second, GetDuration(w.Timeout))
}
