package timeutil

import "time"

// Clock 时间提供者接口：聚合任务的"当前时间"统一从这里取，测试中可固定
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock 返回真实系统时钟
func SystemClock() Clock {
	return systemClock{}
}

// FixedClock 固定时钟（测试用）
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }
