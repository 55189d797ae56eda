package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Retry 带指数退避的有界重试：第i次失败后等待 baseDelay * 2^i 秒。
// retryCount 是失败后的追加尝试次数，总尝试 = retryCount + 1。
func Retry(ctx context.Context, retryCount int, baseDelay float64, logger *logrus.Logger, desc string, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retryCount; attempt++ {
		if attempt > 0 {
			delay := time.Duration(baseDelay*float64(int(1)<<(attempt-1))*1000) * time.Millisecond
			logger.WithFields(logrus.Fields{
				"op":      desc,
				"attempt": attempt,
				"delay":   delay,
			}).WithError(lastErr).Warn("请求失败，退避后重试")
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := op(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("%s: 重试%d次后仍失败: %w", desc, retryCount, lastErr)
}

// Throttle 相邻请求间的限速等待，requestDelay 单位秒
func Throttle(ctx context.Context, requestDelay float64) error {
	if requestDelay <= 0 {
		return nil
	}
	select {
	case <-time.After(time.Duration(requestDelay*1000) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
