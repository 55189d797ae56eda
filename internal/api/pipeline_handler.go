package api

import (
	"errors"
	"net/http"
	"strconv"

	"GameObservatory/internal/collector/igdb"
	"GameObservatory/internal/model"
	"GameObservatory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PipelineHandler 流水线触发接口：cron之外的手动入口
type PipelineHandler struct {
	pipeline  *service.PipelineService
	collect   *service.CollectService
	discovery *service.DiscoveryService
	logger    *logrus.Logger
}

func NewPipelineHandler(pipeline *service.PipelineService, collect *service.CollectService,
	discovery *service.DiscoveryService, logger *logrus.Logger) *PipelineHandler {
	return &PipelineHandler{
		pipeline:  pipeline,
		collect:   collect,
		discovery: discovery,
		logger:    logger,
	}
}

// RunPipeline 手动触发一轮完整流水线
// POST /api/pipeline/run
func (h *PipelineHandler) RunPipeline(c *gin.Context) {
	result, err := h.pipeline.Run(c.Request.Context())
	if err != nil {
		if errors.Is(err, service.ErrPipelineRunning) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).Error("手动触发流水线失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}

// PipelineStatus 查询流水线运行状态
// GET /api/pipeline/status
func (h *PipelineHandler) PipelineStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"running": h.pipeline.Running()})
}

// CollectPlatform 手动触发单平台采集
// POST /api/collect/:platform
func (h *PipelineHandler) CollectPlatform(c *gin.Context) {
	platform := model.PlatformType(c.Param("platform"))

	result, err := h.collect.CollectPlatform(c.Request.Context(), platform)
	if err != nil {
		h.logger.WithError(err).WithField("platform", platform).Error("手动采集失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TrackSteamApp 按Steam AppID手动纳入追踪
// POST /api/games/track/steam/:app_id
func (h *PipelineHandler) TrackSteamApp(c *gin.Context) {
	appID, err := strconv.ParseInt(c.Param("app_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_id必须为整数"})
		return
	}

	game, err := h.discovery.TrackSteamApp(c.Request.Context(), appID)
	if err != nil {
		if errors.Is(err, igdb.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.logger.WithError(err).WithField("app_id", appID).Error("手动纳入追踪失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, game)
}

// RunDiscovery 手动触发发现任务
// POST /api/discovery/run
func (h *PipelineHandler) RunDiscovery(c *gin.Context) {
	result, err := h.discovery.Run(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("手动触发发现失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
