// Package llm talks to the optional text generation providers used to
// draft business plans.
package llm

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when the provider does not answer in time.
	ErrTimeout = errors.New("llm: request timed out")
	// ErrInvalidOutput is returned when the response holds no usable JSON.
	ErrInvalidOutput = errors.New("llm: invalid output")
	// ErrEmptyResponse is returned when the provider answers with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Request is one completion call.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Response holds the raw text of a completion.
type Response struct {
	Text    string
	Model   string
	Latency time.Duration
}

// Client is a text generation provider.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
	Model() string
}

// LatencyRecorder receives the duration of every provider call.
type LatencyRecorder interface {
	RecordAILatency(ctx context.Context, d time.Duration, provider string, ok bool)
}

type noopRecorder struct{}

func (noopRecorder) RecordAILatency(context.Context, time.Duration, string, bool) {}

// timeoutErr maps a context deadline into ErrTimeout and leaves other errors alone.
func timeoutErr(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return err
}
