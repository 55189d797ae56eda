package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"GameObservatory/internal/utils/timeutil"

	"github.com/sirupsen/logrus"
)

// PipelineService 调度入口：采集→聚合→清理→导出串成一轮流水线。
// 用互斥位保证同一时刻只有一轮在跑，cron触发与手动触发共用同一入口。
type PipelineService struct {
	collect     *CollectService
	aggregation *AggregationService
	export      *ExportService
	clock       timeutil.Clock
	logger      *logrus.Logger

	mu      sync.Mutex
	running bool
}

func NewPipelineService(collect *CollectService, aggregation *AggregationService,
	export *ExportService, clock timeutil.Clock, logger *logrus.Logger) *PipelineService {
	return &PipelineService{
		collect:     collect,
		aggregation: aggregation,
		export:      export,
		clock:       clock,
		logger:      logger,
	}
}

// ErrPipelineRunning 上一轮流水线尚未结束
var ErrPipelineRunning = fmt.Errorf("流水线正在运行中")

// PipelineResult 单轮流水线执行摘要
type PipelineResult struct {
	StartedAt      time.Time        `json:"started_at"`
	FinishedAt     time.Time        `json:"finished_at"`
	CollectResults []*CollectResult `json:"collect_results"`
	AggregateError string           `json:"aggregate_error,omitempty"`
	ExportError    string           `json:"export_error,omitempty"`
}

// Run 执行一轮完整流水线。采集失败不阻断聚合：已有样本仍应进桶；
// 聚合失败则跳过导出，避免把半成品桶刷进仪表盘文件。
func (p *PipelineService) Run(ctx context.Context) (*PipelineResult, error) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil, ErrPipelineRunning
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	result := &PipelineResult{StartedAt: p.clock.Now()}
	p.logger.Info("流水线开始")

	result.CollectResults = p.collect.CollectAll(ctx)

	if err := p.aggregation.RunAll(ctx); err != nil {
		p.logger.WithError(err).Error("聚合阶段失败，跳过导出")
		result.AggregateError = err.Error()
		result.FinishedAt = p.clock.Now()
		return result, err
	}

	if err := p.export.ExportAll(ctx); err != nil {
		p.logger.WithError(err).Error("导出阶段失败")
		result.ExportError = err.Error()
	}

	result.FinishedAt = p.clock.Now()
	p.logger.WithField("elapsed", result.FinishedAt.Sub(result.StartedAt).String()).Info("流水线结束")
	return result, nil
}

// Running 当前是否有流水线在执行
func (p *PipelineService) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}
