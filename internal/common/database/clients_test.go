// internal/common/database/clients_test.go
package database

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"bizpilot/internal/common/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     config.RedisConfig
		wantDB  int
		wantErr bool
	}{
		{name: "host and port", cfg: config.RedisConfig{Address: mr.Addr()}},
		{name: "url with db", cfg: config.RedisConfig{Address: "redis://" + mr.Addr() + "/2"}, wantDB: 2},
		{name: "config db wins", cfg: config.RedisConfig{Address: "redis://" + mr.Addr() + "/2", DB: 3}, wantDB: 3},
		{name: "bad url", cfg: config.RedisConfig{Address: "redis://" + mr.Addr() + "/notadb"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewRedis(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { c.Close() })

			assert.Equal(t, tt.wantDB, c.Client.Options().DB)
			assert.Equal(t, 10, c.Client.Options().PoolSize)
			assert.NoError(t, c.Ping(context.Background()))
		})
	}
}

func TestRedis_PingFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	c, err := NewRedis(config.RedisConfig{Address: mr.Addr(), PoolSize: 4})
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, 4, c.Client.Options().PoolSize)

	mr.Close()
	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis ping failed")
}

func elasticServer(t *testing.T, status func(n int32) int) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status(n))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestElasticsearch_PingRetriesUnavailable(t *testing.T) {
	srv, calls := elasticServer(t, func(n int32) int {
		if n == 1 {
			return http.StatusServiceUnavailable
		}
		return http.StatusOK
	})
	c, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}})
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestElasticsearch_PingError(t *testing.T) {
	srv, _ := elasticServer(t, func(int32) int { return http.StatusUnauthorized })
	c, err := NewElasticsearch(config.ElasticsearchConfig{Addresses: []string{srv.URL}, Username: "elastic", Password: "wrong"})
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
