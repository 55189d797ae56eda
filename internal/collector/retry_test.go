package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetrySucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 3, 0.001, logrus.New(), "test", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), 2, 0.001, logrus.New(), "test", func() error {
		attempts++
		return errors.New("permanent")
	})
	require.Error(t, err)
	assert.Equal(t, 3, attempts, "retry_count=2 共尝试3次")
	assert.Contains(t, err.Error(), "permanent")
}

func TestRetryRespectsContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 5, 10, logrus.New(), "test", func() error {
		return errors.New("fail")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestThrottleZeroDelayNoWait(t *testing.T) {
	start := time.Now()
	require.NoError(t, Throttle(context.Background(), 0))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}
