package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"bizpilot/internal/common/config"
	commonhttp "bizpilot/internal/common/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedLatency struct {
	provider string
	ok       bool
}

type fakeRecorder struct {
	calls []recordedLatency
}

func (f *fakeRecorder) RecordAILatency(_ context.Context, _ time.Duration, provider string, ok bool) {
	f.calls = append(f.calls, recordedLatency{provider, ok})
}

func newTestOpenAI(t *testing.T, handler http.HandlerFunc, rec LatencyRecorder) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	hc := commonhttp.NewClient(5*time.Second, commonhttp.WithRetries(1), commonhttp.WithBaseDelay(time.Millisecond))
	return NewOpenAIClient("sk-test", srv.URL+"/", "", hc, rec)
}

func TestOpenAIClient_Complete(t *testing.T) {
	var got chatRequest
	rec := &fakeRecorder{}
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"gpt-3.5-turbo-0125","choices":[{"message":{"role":"assistant","content":"  {\"title\":\"x\"}  "}}]}`))
	}, rec)

	resp, err := client.Complete(context.Background(), Request{
		System:      "sys",
		Prompt:      "user prompt",
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"title":"x"}`, resp.Text)
	assert.Equal(t, "gpt-3.5-turbo-0125", resp.Model)
	assert.Equal(t, DefaultOpenAIModel, got.Model)
	assert.Equal(t, 2000, got.MaxTokens)
	assert.Equal(t, 0.7, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, chatMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, chatMessage{Role: "user", Content: "user prompt"}, got.Messages[1])
	assert.Equal(t, []recordedLatency{{"openai", true}}, rec.calls)
}

func TestOpenAIClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}, nil)

	resp, err := client.Complete(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, DefaultOpenAIModel, resp.Model)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestOpenAIClient_Errors(t *testing.T) {
	t.Run("client error status", func(t *testing.T) {
		rec := &fakeRecorder{}
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
		}, rec)
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "401")
		assert.Equal(t, []recordedLatency{{"openai", false}}, rec.calls)
	})

	t.Run("no choices", func(t *testing.T) {
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		}, nil)
		_, err := client.Complete(context.Background(), Request{Prompt: "p"})
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("deadline", func(t *testing.T) {
		client := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}, nil)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := client.Complete(ctx, Request{Prompt: "p"})
		assert.ErrorIs(t, err, ErrTimeout)
	})
}

func TestNew_Disabled(t *testing.T) {
	for _, cfg := range []config.AIConfig{
		{Provider: "none", APIKey: "k"},
		{Provider: "openai"},
		{},
	} {
		client, err := New(context.Background(), cfg, nil)
		require.NoError(t, err)
		assert.Nil(t, client)
	}
}

func TestNew_OpenAI(t *testing.T) {
	client, err := New(context.Background(), config.AIConfig{
		Provider: "openai",
		APIKey:   "k",
		BaseURL:  "http://localhost",
		Model:    "gpt-4o-mini",
		Timeout:  1000,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, client)
	assert.Equal(t, "gpt-4o-mini", client.Model())
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), config.AIConfig{Provider: "llama", APIKey: "k"}, nil)
	assert.Error(t, err)
}
