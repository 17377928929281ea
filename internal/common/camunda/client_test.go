// internal/common/camunda/client_test.go
package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"bizpilot/internal/common/errors"

	"github.com/stretchr/testify/assert"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, func(context.Context) error {
		calls++
		if calls < 2 {
			return stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	}, "complete job")

	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestExecuteWithRetry_GivesUp(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, func(context.Context) error {
		calls++
		return stderrors.New("deadline exceeded")
	}, "complete job")

	assert.Equal(t, 3, calls)
	assert.True(t, errors.Is(err, errors.ErrCodeWorkflowUnavailable))
}

func TestExecuteWithRetry_NonRetryable(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, func(context.Context) error {
		calls++
		return stderrors.New("job 42 not found")
	}, "complete job")

	assert.Equal(t, 1, calls)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}
