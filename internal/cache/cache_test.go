package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"bizpilot/internal/common/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type summary struct {
	Ideas int `json:"ideas"`
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, New(client, time.Minute, logger.NewTestLogger(t))
}

func TestFetch_ReadThrough(t *testing.T) {
	mr, c := newMiniredis(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (summary, error) {
		loads++
		return summary{Ideas: 3}, nil
	}

	got, err := Fetch(ctx, c, KindDashboard, "u-1", load)
	require.NoError(t, err)
	assert.Equal(t, summary{Ideas: 3}, got)

	got, err = Fetch(ctx, c, KindDashboard, "u-1", load)
	require.NoError(t, err)
	assert.Equal(t, summary{Ideas: 3}, got)
	assert.Equal(t, 1, loads)

	assert.True(t, mr.Exists("bizpilot:dashboard:u-1"))
	assert.Equal(t, time.Minute, mr.TTL("bizpilot:dashboard:u-1"))

	c.Invalidate(ctx, "u-1")
	assert.False(t, mr.Exists("bizpilot:dashboard:u-1"))

	_, err = Fetch(ctx, c, KindDashboard, "u-1", load)
	require.NoError(t, err)
	assert.Equal(t, 2, loads)
}

func TestFetch_LoadErrorIsNotCached(t *testing.T) {
	mr, c := newMiniredis(t)
	boom := errors.New("db down")

	_, err := Fetch(context.Background(), c, KindAnalytics, "u-1", func(context.Context) (summary, error) {
		return summary{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("bizpilot:analytics:u-1"))
}

func TestFetch_CorruptEntryReloads(t *testing.T) {
	mr, c := newMiniredis(t)
	require.NoError(t, mr.Set("bizpilot:analytics:u-1", "{not json"))

	got, err := Fetch(context.Background(), c, KindAnalytics, "u-1", func(context.Context) (summary, error) {
		return summary{Ideas: 7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got.Ideas)
}

func TestFetch_RedisErrorFallsThrough(t *testing.T) {
	client, mock := redismock.NewClientMock()
	c := New(client, time.Minute, nil)

	mock.ExpectGet("bizpilot:dashboard:u-1").SetErr(errors.New("connection refused"))
	mock.ExpectSet("bizpilot:dashboard:u-1", []byte(`{"ideas":1}`), time.Minute).SetErr(errors.New("connection refused"))

	got, err := Fetch(context.Background(), c, KindDashboard, "u-1", func(context.Context) (summary, error) {
		return summary{Ideas: 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.Ideas)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNilCacheLoadsDirectly(t *testing.T) {
	var c *Cache
	got, err := Fetch(context.Background(), c, KindDashboard, "u-1", func(context.Context) (summary, error) {
		return summary{Ideas: 2}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, got.Ideas)
	c.Invalidate(context.Background(), "u-1")
}
