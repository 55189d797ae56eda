package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"GameObservatory/internal/collector"
	"GameObservatory/internal/collector/igdb"
	"GameObservatory/internal/config"
	"GameObservatory/internal/interfaces"
	"GameObservatory/internal/model"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/utils/timeutil"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// 发现来源标识，落 discovery_history.discovery_source
const (
	SourceIGDBPopular    = "igdb-popular"
	SourceIGDBRecent     = "igdb-recent"
	SourceIGDBTopRated   = "igdb-top-rated"
	SourceIGDBUpcoming   = "igdb-upcoming"
	SourceTwitchTrending = "twitch-trending"
	SourceManualSteam    = "manual-steam"
)

// 单轮发现的默认规模
const (
	defaultDiscoverLimit  = 100
	defaultRecentDaysBack = 90
	defaultMinRatings     = 50
	defaultUpcomingDays   = 180
	metadataBatchSize     = 50
)

// DiscoveryService 游戏发现与身份解析服务。
// 一切身份以 IGDB ID 为准：Twitch 等外部来源必须先经 external_games 反查出
// IGDB ID 才会入库，反查不到的条目跳过并记日志，不做名称模糊匹配。
type DiscoveryService struct {
	gameRepo      repository.GameRepository
	discoveryRepo repository.DiscoveryRepository
	igdb          interfaces.IGDBCollector
	twitch        interfaces.TwitchCollector
	steam         interfaces.SteamCollector
	cfg           *config.Config
	clock         timeutil.Clock
	logger        *logrus.Logger
}

func NewDiscoveryService(gameRepo repository.GameRepository, discoveryRepo repository.DiscoveryRepository,
	igdbCollector interfaces.IGDBCollector, twitchCollector interfaces.TwitchCollector,
	steamCollector interfaces.SteamCollector,
	cfg *config.Config, clock timeutil.Clock, logger *logrus.Logger) *DiscoveryService {
	return &DiscoveryService{
		gameRepo:      gameRepo,
		discoveryRepo: discoveryRepo,
		igdb:          igdbCollector,
		twitch:        twitchCollector,
		steam:         steamCollector,
		cfg:           cfg,
		clock:         clock,
		logger:        logger,
	}
}

// DiscoveryResult 单轮发现结果汇总
type DiscoveryResult struct {
	RunID          string `json:"run_id"`
	NewGames       int    `json:"new_games"`
	KnownGames     int    `json:"known_games"`
	Unresolved     int    `json:"unresolved"`
	MetadataFilled int    `json:"metadata_filled"`
}

// Run 执行一轮完整发现：多来源拉取→入发现队列→补全元数据→审计入库
func (d *DiscoveryService) Run(ctx context.Context) (*DiscoveryResult, error) {
	runID := uuid.New().String()
	started := d.clock.Now()
	result := &DiscoveryResult{RunID: runID}
	log := d.logger.WithField("run_id", runID)

	sources := []struct {
		name  string
		fetch func(ctx context.Context) ([]*model.GameListEntry, int, error)
	}{
		{SourceIGDBPopular, d.fetchIGDBPopular},
		{SourceIGDBRecent, d.fetchIGDBRecent},
		{SourceIGDBTopRated, d.fetchIGDBTopRated},
		{SourceIGDBUpcoming, d.fetchIGDBUpcoming},
		{SourceTwitchTrending, d.fetchTwitchTrending},
	}

	for _, src := range sources {
		entries, unresolved, err := src.fetch(ctx)
		if err != nil {
			// 单来源失败不中断整轮发现
			log.WithError(err).WithField("source", src.name).Error("发现来源拉取失败")
			continue
		}
		result.Unresolved += unresolved

		inserted, skipped, err := d.gameRepo.InsertDiscovered(ctx, entries)
		if err != nil {
			log.WithError(err).WithField("source", src.name).Error("发现队列入库失败")
			continue
		}
		result.NewGames += inserted
		result.KnownGames += skipped

		d.logHistory(ctx, runID, src.name, inserted, skipped, started)
		log.WithFields(logrus.Fields{
			"source": src.name,
			"new":    inserted,
			"known":  skipped,
		}).Info("发现来源处理完成")
	}

	filled, err := d.FillMetadata(ctx, metadataBatchSize)
	if err != nil {
		log.WithError(err).Error("元数据补全失败")
	}
	result.MetadataFilled = filled

	log.WithFields(logrus.Fields{
		"new_games":       result.NewGames,
		"known_games":     result.KnownGames,
		"unresolved":      result.Unresolved,
		"metadata_filled": result.MetadataFilled,
		"elapsed":         d.clock.Now().Sub(started).String(),
	}).Info("发现任务完成")
	return result, nil
}

func (d *DiscoveryService) fetchIGDBPopular(ctx context.Context) ([]*model.GameListEntry, int, error) {
	games, err := d.igdb.DiscoverPopular(ctx, defaultDiscoverLimit)
	if err != nil {
		return nil, 0, err
	}
	return d.toEntries(games, SourceIGDBPopular), 0, nil
}

func (d *DiscoveryService) fetchIGDBRecent(ctx context.Context) ([]*model.GameListEntry, int, error) {
	games, err := d.igdb.DiscoverRecent(ctx, defaultDiscoverLimit, defaultRecentDaysBack)
	if err != nil {
		return nil, 0, err
	}
	return d.toEntries(games, SourceIGDBRecent), 0, nil
}

func (d *DiscoveryService) fetchIGDBTopRated(ctx context.Context) ([]*model.GameListEntry, int, error) {
	games, err := d.igdb.DiscoverTopRated(ctx, defaultDiscoverLimit, defaultMinRatings)
	if err != nil {
		return nil, 0, err
	}
	return d.toEntries(games, SourceIGDBTopRated), 0, nil
}

func (d *DiscoveryService) fetchIGDBUpcoming(ctx context.Context) ([]*model.GameListEntry, int, error) {
	games, err := d.igdb.DiscoverUpcoming(ctx, defaultDiscoverLimit, defaultUpcomingDays)
	if err != nil {
		return nil, 0, err
	}
	return d.toEntries(games, SourceIGDBUpcoming), 0, nil
}

// fetchTwitchTrending Twitch热门榜条目需逐个反查IGDB ID，反查不到的计入unresolved
func (d *DiscoveryService) fetchTwitchTrending(ctx context.Context) ([]*model.GameListEntry, int, error) {
	topGames, err := d.twitch.TopGames(ctx, defaultDiscoverLimit)
	if err != nil {
		return nil, 0, err
	}

	delay := float64(0)
	if p, ok := d.cfg.Platforms[string(model.PlatformIGDB)]; ok {
		delay = p.RequestDelay
	}

	var entries []*model.GameListEntry
	unresolved := 0
	now := d.clock.Now()
	for i, tg := range topGames {
		if i > 0 {
			if err := collector.Throttle(ctx, delay); err != nil {
				return entries, unresolved, err
			}
		}
		igdbID, err := d.igdb.FindIGDBIDByTwitch(ctx, tg.ID)
		if err != nil {
			if errors.Is(err, igdb.ErrNotFound) {
				d.logger.WithFields(logrus.Fields{
					"twitch_game_id": tg.ID,
					"game_name":      tg.Name,
				}).Warn("twitch游戏无IGDB映射，跳过")
				unresolved++
				continue
			}
			d.logger.WithError(err).WithField("twitch_game_id", tg.ID).Warn("IGDB反查失败，跳过")
			unresolved++
			continue
		}
		entries = append(entries, &model.GameListEntry{
			IGDBID:          igdbID,
			GameName:        tg.Name,
			DiscoveredAt:    now,
			DiscoverySource: SourceTwitchTrending,
			DiscoveryRank:   i + 1,
		})
	}
	return entries, unresolved, nil
}

func (d *DiscoveryService) toEntries(games []model.IGDBGame, source string) []*model.GameListEntry {
	now := d.clock.Now()
	entries := make([]*model.GameListEntry, 0, len(games))
	for i, g := range games {
		if g.ID == 0 {
			continue
		}
		entries = append(entries, &model.GameListEntry{
			IGDBID:          g.ID,
			GameName:        g.Name,
			DiscoveredAt:    now,
			DiscoverySource: source,
			DiscoveryRank:   i + 1,
		})
	}
	return entries
}

// FillMetadata 对发现队列中未补全的条目拉取完整元数据并upsert到身份主表
func (d *DiscoveryService) FillMetadata(ctx context.Context, limit int) (int, error) {
	pending, err := d.gameRepo.ListNeedingMetadata(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("查询待补全队列失败: %w", err)
	}

	delay := float64(0)
	if p, ok := d.cfg.Platforms[string(model.PlatformIGDB)]; ok {
		delay = p.RequestDelay
	}

	filled := 0
	for i, entry := range pending {
		if i > 0 {
			if err := collector.Throttle(ctx, delay); err != nil {
				return filled, err
			}
		}
		if err := d.enrichOne(ctx, entry); err != nil {
			d.logger.WithError(err).WithField("igdb_id", entry.IGDBID).Warn("元数据补全失败，跳过该游戏")
			continue
		}
		filled++
	}
	return filled, nil
}

func (d *DiscoveryService) enrichOne(ctx context.Context, entry *model.GameListEntry) error {
	game, err := d.igdb.GetGameMetadata(ctx, entry.IGDBID)
	if err != nil {
		return err
	}
	externalIDs, err := d.igdb.GetExternalIDs(ctx, entry.IGDBID)
	if err != nil {
		// 外部映射非必需，缺失时仅靠IGDB本体数据
		d.logger.WithError(err).WithField("igdb_id", entry.IGDBID).Warn("外部平台映射获取失败")
		externalIDs = map[string]string{}
	}

	now := d.clock.Now()
	meta := &model.GameMetadata{
		IGDBID:          game.ID,
		GameName:        game.Name,
		Slug:            game.Slug,
		IGDBSummary:     game.Summary,
		CoverURL:        coverURL(game),
		DiscoverySource: entry.DiscoverySource,
		DiscoveryDate:   entry.DiscoveredAt,
		LastUpdated:     now,
		IsActive:        true,
		TrackSteam:      false,
		TrackTwitch:     false,
	}
	if game.FirstReleaseDate > 0 {
		t := time.Unix(game.FirstReleaseDate, 0)
		meta.FirstReleaseDate = &t
	}

	if uid, ok := externalIDs["steam"]; ok {
		if appID, err := strconv.ParseInt(uid, 10, 64); err == nil {
			meta.SteamAppID = &appID
			meta.TrackSteam = true
		}
	}
	if uid, ok := externalIDs["twitch"]; ok {
		meta.TwitchGameID = &uid
		meta.TrackTwitch = true
	}
	if uid, ok := externalIDs["youtube"]; ok {
		meta.YoutubeChannelID = &uid
	}
	if uid, ok := externalIDs["epic"]; ok {
		meta.EpicID = &uid
	}
	if uid, ok := externalIDs["gog"]; ok {
		meta.GogID = &uid
	}

	meta.Genres = namedToJSON(game.Genres)
	meta.Themes = namedToJSON(game.Themes)
	meta.Platforms = namedToJSON(game.Platforms)
	meta.GameModes = namedToJSON(game.GameModes)
	meta.Developers, meta.Publishers = companiesToJSON(game)
	meta.Websites = websitesToJSON(game)

	if meta.SteamAppID != nil {
		d.enrichSteamStore(ctx, meta)
	}

	if err := d.gameRepo.Upsert(ctx, meta); err != nil {
		return fmt.Errorf("upsert game_metadata 失败: %w", err)
	}
	return d.gameRepo.MarkMetadataCollected(ctx, entry.IGDBID)
}

// enrichSteamStore 商店简介、年龄分级与SteamSpy标签为补充数据，失败只告警不影响主流程
func (d *DiscoveryService) enrichSteamStore(ctx context.Context, meta *model.GameMetadata) {
	appID := *meta.SteamAppID
	details, err := d.steam.GetAppDetails(ctx, appID)
	if err != nil {
		d.logger.WithError(err).WithField("app_id", appID).Warn("steam商店元数据获取失败")
	} else {
		meta.SteamDescription = details.Data.ShortDescription
		meta.SteamRequiredAge = details.Data.RequiredAge
	}

	tags, err := d.steam.GetAppTags(ctx, appID)
	if err != nil {
		d.logger.WithError(err).WithField("app_id", appID).Warn("steamspy标签获取失败")
		return
	}
	if len(tags) > 0 {
		meta.SteamTags = mustJSON(tags)
	}
}

// TrackSteamApp 按Steam AppID手动纳入追踪：先反查IGDB统一身份，再走正常补全入库。
// 反查不到IGDB映射的应用拒绝纳入，不做名称匹配。
func (d *DiscoveryService) TrackSteamApp(ctx context.Context, appID int64) (*model.GameMetadata, error) {
	igdbID, err := d.igdb.FindIGDBIDBySteam(ctx, appID)
	if err != nil {
		if errors.Is(err, igdb.ErrNotFound) {
			return nil, fmt.Errorf("steam应用%d无IGDB映射: %w", appID, err)
		}
		return nil, fmt.Errorf("IGDB反查失败: %w", err)
	}

	entry := &model.GameListEntry{
		IGDBID:          igdbID,
		GameName:        fmt.Sprintf("steam-app-%d", appID), // 占位名，补全后身份主表以IGDB规范名为准
		DiscoveredAt:    d.clock.Now(),
		DiscoverySource: SourceManualSteam,
	}
	if _, _, err := d.gameRepo.InsertDiscovered(ctx, []*model.GameListEntry{entry}); err != nil {
		return nil, err
	}
	if err := d.enrichOne(ctx, entry); err != nil {
		return nil, err
	}
	return d.gameRepo.GetByIGDBID(ctx, igdbID)
}

func (d *DiscoveryService) logHistory(ctx context.Context, runID, source string, discovered, updated int, started time.Time) {
	record := &model.DiscoveryHistory{
		RunID:                runID,
		DiscoveryDate:        d.clock.Now(),
		DiscoverySource:      source,
		GamesDiscovered:      discovered,
		GamesUpdated:         updated,
		ExecutionTimeSeconds: d.clock.Now().Sub(started).Seconds(),
	}
	if err := d.discoveryRepo.Log(ctx, record); err != nil {
		d.logger.WithError(err).WithField("source", source).Error("发现审计入库失败")
	}
}

func coverURL(game *model.IGDBGame) string {
	if game.Cover == nil {
		return ""
	}
	return game.Cover.URL
}

func namedToJSON(items []model.IGDBNamed) datatypes.JSON {
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, item.Name)
	}
	return mustJSON(names)
}

func companiesToJSON(game *model.IGDBGame) (developers, publishers datatypes.JSON) {
	var devs, pubs []string
	for _, ic := range game.InvolvedCompanies {
		if ic.Developer {
			devs = append(devs, ic.Company.Name)
		}
		if ic.Publisher {
			pubs = append(pubs, ic.Company.Name)
		}
	}
	return mustJSON(devs), mustJSON(pubs)
}

func websitesToJSON(game *model.IGDBGame) datatypes.JSON {
	sites := make(map[string]string)
	for _, w := range game.Websites {
		category, ok := model.IGDBWebsiteCategory[w.Category]
		if !ok {
			continue
		}
		if _, exists := sites[category]; !exists {
			sites[category] = w.URL
		}
	}
	return mustJSON(sites)
}

func mustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return data
}
