package main

import (
	"context"
	"fmt"
	"log"

	"GameObservatory/internal/api"
	"GameObservatory/internal/app"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. 初始化日志
	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)

	// 2. 加载配置、打开数据库、装配服务
	application, err := app.New(logger)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}
	cfg := application.Cfg
	logger.Info("配置文件加载成功")

	// 3. 注册定时流水线（cron触发与HTTP手动触发共用同一入口，内部互斥）
	scheduler := cron.New()
	if cfg.Sync.Cron != "" {
		_, err := scheduler.AddFunc(cfg.Sync.Cron, func() {
			if _, err := application.Pipeline.Run(context.Background()); err != nil {
				logger.WithError(err).Error("定时流水线执行失败")
			}
		})
		if err != nil {
			logger.Fatalf("注册定时任务失败: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.WithField("cron", cfg.Sync.Cron).Info("定时流水线已注册")
	}

	// 4. 配置Gin运行模式（从配置读取：debug/release）
	gin.SetMode(cfg.Server.Mode)
	r := gin.Default()

	// 注册pprof 方便调试和监测性能问题
	pprof.Register(r)
	logger.Infof("Gin运行模式: %s", cfg.Server.Mode)

	// 5. 注册API路由
	pipelineHandler := api.NewPipelineHandler(application.Pipeline, application.Collect,
		application.Discovery, logger)
	r.POST("/api/pipeline/run", pipelineHandler.RunPipeline)
	r.GET("/api/pipeline/status", pipelineHandler.PipelineStatus)
	r.POST("/api/collect/:platform", pipelineHandler.CollectPlatform)
	r.POST("/api/discovery/run", pipelineHandler.RunDiscovery)
	r.POST("/api/games/track/steam/:app_id", pipelineHandler.TrackSteamApp)

	// 查询接口（给前端仪表盘用）
	gameHandler := api.NewGameHandler(application.DB, logger)
	r.GET("/api/games", gameHandler.ListGames)
	r.GET("/api/games/:id", gameHandler.GetGame)
	r.POST("/api/games/:id/deactivate", gameHandler.DeactivateGame)
	r.GET("/api/rankings", gameHandler.GetRankings)
	r.GET("/api/kpis/daily", gameHandler.GetDailyKPIs)
	r.GET("/api/discovery/history", gameHandler.GetDiscoveryHistory)

	// 6. 启动服务（从配置读取端口）
	port := cfg.Server.Port
	logger.Infof("服务启动成功，端口：%d", port)
	if err := r.Run(fmt.Sprintf(":%d", port)); err != nil {
		logger.Fatalf("启动服务失败: %v", err)
	}
}
