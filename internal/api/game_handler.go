package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"GameObservatory/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// GameHandler 提供给前端的游戏与KPI查询接口
type GameHandler struct {
	gameRepo      repository.GameRepository
	kpiRepo       repository.KPIRepository
	discoveryRepo repository.DiscoveryRepository
	logger        *logrus.Logger
}

func NewGameHandler(db *gorm.DB, logger *logrus.Logger) *GameHandler {
	return &GameHandler{
		gameRepo:      repository.NewGameRepository(db),
		kpiRepo:       repository.NewKPIRepository(db),
		discoveryRepo: repository.NewDiscoveryRepository(db),
		logger:        logger,
	}
}

// ListGames 游戏列表
// GET /api/games?page=1&page_size=20
func (h *GameHandler) ListGames(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	games, total, err := h.gameRepo.ListGames(c.Request.Context(), page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListGames failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":     total,
		"page":      page,
		"page_size": pageSize,
		"games":     games,
	})
}

// GetGame 单个游戏详情，:id 为 IGDB ID
// GET /api/games/:id
func (h *GameHandler) GetGame(c *gin.Context) {
	igdbID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id必须是IGDB数字ID"})
		return
	}

	game, err := h.gameRepo.GetByIGDBID(c.Request.Context(), igdbID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "游戏不存在"})
			return
		}
		h.logger.WithError(err).Error("GetGame failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, game)
}

// DeactivateGame 软下线：停止采集但保留历史
// POST /api/games/:id/deactivate
func (h *GameHandler) DeactivateGame(c *gin.Context) {
	igdbID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id必须是IGDB数字ID"})
		return
	}

	if err := h.gameRepo.Deactivate(c.Request.Context(), igdbID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "游戏不存在"})
			return
		}
		h.logger.WithError(err).Error("DeactivateGame failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "已停止采集", "igdb_id": igdbID})
}

// GetRankings 按日峰值均值降序的排行
// GET /api/rankings
func (h *GameHandler) GetRankings(c *gin.Context) {
	rankings, err := h.kpiRepo.GameRankings(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("GetRankings failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rankings": rankings})
}

// GetDailyKPIs 窗口内的天桶查询
// GET /api/kpis/daily?platform=steam&from=2026-08-01&to=2026-08-29
func (h *GameHandler) GetDailyKPIs(c *gin.Context) {
	from, to, err := parseWindow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch c.DefaultQuery("platform", "steam") {
	case "steam":
		rows, err := h.kpiRepo.ListSteamDailyBetween(c.Request.Context(), from, to)
		if err != nil {
			h.logger.WithError(err).Error("GetDailyKPIs failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"kpis": rows})
	case "twitch":
		rows, err := h.kpiRepo.ListTwitchDailyBetween(c.Request.Context(), from, to)
		if err != nil {
			h.logger.WithError(err).Error("GetDailyKPIs failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"kpis": rows})
	case "igdb":
		rows, err := h.kpiRepo.ListIGDBSnapshotBetween(c.Request.Context(), from, to)
		if err != nil {
			h.logger.WithError(err).Error("GetDailyKPIs failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"kpis": rows})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "platform必须是steam/twitch/igdb"})
	}
}

// GetDiscoveryHistory 最近的发现任务审计记录
// GET /api/discovery/history?limit=50
func (h *GameHandler) GetDiscoveryHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	records, err := h.discoveryRepo.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.WithError(err).Error("GetDiscoveryHistory failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": records})
}

// parseWindow 解析 from/to 查询参数，缺省取最近7天，to为闭区间日期（内部转半开）
func parseWindow(c *gin.Context) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	now := time.Now()

	to := now
	if s := c.Query("to"); s != "" {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = t.AddDate(0, 0, 1)
	}
	from := to.AddDate(0, 0, -7)
	if s := c.Query("from"); s != "" {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	return from, to, nil
}
