package service

import (
	"context"
	"fmt"

	"GameObservatory/internal/collector"
	"GameObservatory/internal/config"
	"GameObservatory/internal/interfaces"
	"GameObservatory/internal/model"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/utils/timeutil"

	"github.com/sirupsen/logrus"
)

// CollectService 轮询采集服务：按追踪名单逐个游戏拉取当前指标，落原始样本表。
// 单个游戏失败只记日志跳过，不中断整轮采集。
type CollectService struct {
	gameRepo   repository.GameRepository
	sampleRepo repository.SampleRepository
	steam      interfaces.SteamCollector
	twitch     interfaces.TwitchCollector
	igdb       interfaces.IGDBCollector
	cfg        *config.Config
	clock      timeutil.Clock
	logger     *logrus.Logger
}

func NewCollectService(gameRepo repository.GameRepository, sampleRepo repository.SampleRepository,
	steam interfaces.SteamCollector, twitch interfaces.TwitchCollector, igdb interfaces.IGDBCollector,
	cfg *config.Config, clock timeutil.Clock, logger *logrus.Logger) *CollectService {
	return &CollectService{
		gameRepo:   gameRepo,
		sampleRepo: sampleRepo,
		steam:      steam,
		twitch:     twitch,
		igdb:       igdb,
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
	}
}

// CollectResult 单平台单轮采集结果
type CollectResult struct {
	Platform  string `json:"platform"`
	Collected int    `json:"collected"`
	Failed    int    `json:"failed"`
	Skipped   int    `json:"skipped"`
}

// CollectPlatform 采集单个平台的当前指标快照
func (c *CollectService) CollectPlatform(ctx context.Context, platform model.PlatformType) (*CollectResult, error) {
	switch platform {
	case model.PlatformSteam:
		return c.collectSteam(ctx)
	case model.PlatformTwitch:
		return c.collectTwitch(ctx)
	case model.PlatformIGDB:
		return c.collectIGDB(ctx)
	default:
		return nil, fmt.Errorf("未支持的平台: %s", platform)
	}
}

// CollectAll 依次采集所有启用的平台，单平台失败不影响其它平台
func (c *CollectService) CollectAll(ctx context.Context) []*CollectResult {
	var results []*CollectResult
	for _, platform := range c.cfg.Sync.EnabledPlatforms {
		result, err := c.CollectPlatform(ctx, model.PlatformType(platform))
		if err != nil {
			c.logger.WithError(err).WithField("platform", platform).Error("平台采集失败")
			results = append(results, &CollectResult{Platform: platform})
			continue
		}
		results = append(results, result)
	}
	return results
}

func (c *CollectService) collectSteam(ctx context.Context) (*CollectResult, error) {
	games, err := c.gameRepo.ActiveGamesFor(ctx, model.PlatformSteam)
	if err != nil {
		return nil, fmt.Errorf("查询steam追踪名单失败: %w", err)
	}

	result := &CollectResult{Platform: string(model.PlatformSteam)}
	now := c.clock.Now()
	delay := c.platformDelay(model.PlatformSteam)
	var samples []*model.SteamRawSample

	for i, game := range games {
		if game.SteamAppID == nil {
			result.Skipped++
			continue
		}
		if i > 0 {
			if err := collector.Throttle(ctx, delay); err != nil {
				return result, err
			}
		}
		count, err := c.steam.GetPlayerCount(ctx, *game.SteamAppID)
		if err != nil {
			c.logger.WithError(err).WithField("app_id", *game.SteamAppID).Warn("steam采集失败，跳过该游戏")
			result.Failed++
			continue
		}
		samples = append(samples, &model.SteamRawSample{
			Timestamp:   now,
			AppID:       *game.SteamAppID,
			GameName:    game.GameName,
			PlayerCount: count,
		})
		result.Collected++
	}

	if err := c.sampleRepo.SaveSteamSamples(ctx, samples); err != nil {
		return result, fmt.Errorf("steam样本入库失败: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"collected": result.Collected,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	}).Info("steam采集完成")
	return result, nil
}

func (c *CollectService) collectTwitch(ctx context.Context) (*CollectResult, error) {
	games, err := c.gameRepo.ActiveGamesFor(ctx, model.PlatformTwitch)
	if err != nil {
		return nil, fmt.Errorf("查询twitch追踪名单失败: %w", err)
	}

	result := &CollectResult{Platform: string(model.PlatformTwitch)}
	now := c.clock.Now()
	delay := c.platformDelay(model.PlatformTwitch)
	var samples []*model.TwitchRawSample

	for i, game := range games {
		if game.TwitchGameID == nil {
			result.Skipped++
			continue
		}
		if i > 0 {
			if err := collector.Throttle(ctx, delay); err != nil {
				return result, err
			}
		}
		viewership, err := c.twitch.GetGameViewership(ctx, *game.TwitchGameID)
		if err != nil {
			c.logger.WithError(err).WithField("twitch_game_id", *game.TwitchGameID).Warn("twitch采集失败，跳过该游戏")
			result.Failed++
			continue
		}
		samples = append(samples, &model.TwitchRawSample{
			Timestamp:    now,
			TwitchGameID: *game.TwitchGameID,
			GameName:     game.GameName,
			ViewerCount:  viewership.ViewerCount,
			ChannelCount: viewership.ChannelCount,
		})
		result.Collected++
	}

	if err := c.sampleRepo.SaveTwitchSamples(ctx, samples); err != nil {
		return result, fmt.Errorf("twitch样本入库失败: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"collected": result.Collected,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	}).Info("twitch采集完成")
	return result, nil
}

func (c *CollectService) collectIGDB(ctx context.Context) (*CollectResult, error) {
	games, err := c.gameRepo.ActiveGamesFor(ctx, model.PlatformIGDB)
	if err != nil {
		return nil, fmt.Errorf("查询igdb追踪名单失败: %w", err)
	}

	result := &CollectResult{Platform: string(model.PlatformIGDB)}
	now := c.clock.Now()
	delay := c.platformDelay(model.PlatformIGDB)
	var samples []*model.IGDBRatingSample

	for i, game := range games {
		if i > 0 {
			if err := collector.Throttle(ctx, delay); err != nil {
				return result, err
			}
		}
		rated, err := c.igdb.GetGameRatings(ctx, game.IGDBID)
		if err != nil {
			c.logger.WithError(err).WithField("igdb_id", game.IGDBID).Warn("igdb评分采集失败，跳过该游戏")
			result.Failed++
			continue
		}
		samples = append(samples, &model.IGDBRatingSample{
			Timestamp:        now,
			IGDBID:           game.IGDBID,
			GameName:         game.GameName,
			Rating:           rated.Rating,
			AggregatedRating: rated.AggregatedRating,
			RatingCount:      rated.TotalRatingCount,
		})
		result.Collected++
	}

	if err := c.sampleRepo.SaveIGDBSamples(ctx, samples); err != nil {
		return result, fmt.Errorf("igdb样本入库失败: %w", err)
	}
	c.logger.WithFields(logrus.Fields{
		"collected": result.Collected,
		"failed":    result.Failed,
	}).Info("igdb评分采集完成")
	return result, nil
}

func (c *CollectService) platformDelay(platform model.PlatformType) float64 {
	if p, ok := c.cfg.Platforms[string(platform)]; ok {
		return p.RequestDelay
	}
	return 0
}
