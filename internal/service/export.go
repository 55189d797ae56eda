package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"GameObservatory/internal/config"
	"GameObservatory/internal/model"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/utils/timeutil"

	"github.com/sirupsen/logrus"
)

// 导出文件名固定，仪表盘端按名引用
const (
	fileLatestKPIs   = "latest_kpis.json"
	fileDailyKPIs    = "daily_kpis.json"
	fileWeeklyKPIs   = "weekly_kpis.json"
	fileMonthlyKPIs  = "monthly_kpis.json"
	fileGameRankings = "game_rankings.json"
	fileGameMetadata = "game-metadata.json"
	fileUnifiedDaily = "unified_daily_kpis.json"
)

const dateLayout = "2006-01-02"

// ExportService 仪表盘JSON导出：把聚合表按固定文件名落到输出目录。
// 所有浮点在序列化前清洗，NaN/±Inf 统一输出 null，日期统一ISO格式。
type ExportService struct {
	kpiRepo  repository.KPIRepository
	gameRepo repository.GameRepository
	cfg      *config.ExportConfig
	clock    timeutil.Clock
	logger   *logrus.Logger
}

func NewExportService(kpiRepo repository.KPIRepository, gameRepo repository.GameRepository,
	cfg *config.ExportConfig, clock timeutil.Clock, logger *logrus.Logger) *ExportService {
	return &ExportService{
		kpiRepo:  kpiRepo,
		gameRepo: gameRepo,
		cfg:      cfg,
		clock:    clock,
		logger:   logger,
	}
}

// ExportAll 导出全部仪表盘文件，单文件失败记日志继续，返回首个错误
func (e *ExportService) ExportAll(ctx context.Context) error {
	if err := os.MkdirAll(e.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("创建导出目录失败: %w", err)
	}

	var firstErr error
	exports := []struct {
		name string
		run  func(ctx context.Context) error
	}{
		{fileLatestKPIs, e.exportLatest},
		{fileDailyKPIs, e.exportDaily},
		{fileWeeklyKPIs, e.exportWeekly},
		{fileMonthlyKPIs, e.exportMonthly},
		{fileGameRankings, e.exportRankings},
		{fileGameMetadata, e.exportGameMetadata},
		{fileUnifiedDaily, e.exportUnifiedDaily},
	}
	for _, exp := range exports {
		if err := exp.run(ctx); err != nil {
			e.logger.WithError(err).WithField("file", exp.name).Error("导出失败")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// steamDailyJSON 导出用的天桶行，日期转字符串、浮点清洗
type steamDailyJSON struct {
	Date     string   `json:"date"`
	AppID    int64    `json:"app_id"`
	GameName string   `json:"game_name"`
	AvgCCU   *float64 `json:"avg_ccu"`
	PeakCCU  int64    `json:"peak_ccu"`
	MinCCU   int64    `json:"min_ccu"`
	Samples  int64    `json:"samples"`
}

type twitchDailyJSON struct {
	Date         string   `json:"date"`
	TwitchGameID string   `json:"twitch_game_id"`
	GameName     string   `json:"game_name"`
	AvgViewers   *float64 `json:"avg_viewers"`
	PeakViewers  int64    `json:"peak_viewers"`
	MinViewers   int64    `json:"min_viewers"`
	AvgChannels  *float64 `json:"avg_channels"`
	Samples      int64    `json:"samples"`
}

type igdbSnapshotJSON struct {
	Date             string   `json:"date"`
	IGDBID           int64    `json:"igdb_id"`
	GameName         string   `json:"game_name"`
	Rating           *float64 `json:"rating"`
	AggregatedRating *float64 `json:"aggregated_rating"`
	RatingCount      *int64   `json:"rating_count"`
}

func (e *ExportService) exportLatest(ctx context.Context) error {
	now := e.clock.Now()
	from := timeutil.StartOfDay(now).AddDate(0, 0, -(e.cfg.LatestDays - 1))
	return e.writeDailyWindow(ctx, fileLatestKPIs, from, now, e.cfg.LatestDays)
}

func (e *ExportService) exportDaily(ctx context.Context) error {
	// 全量天桶：窗口下界取零值时间
	return e.writeDailyWindow(ctx, fileDailyKPIs, time.Time{}, e.clock.Now(), 0)
}

func (e *ExportService) writeDailyWindow(ctx context.Context, filename string, from, to time.Time, windowDays int) error {
	steamRows, err := e.kpiRepo.ListSteamDailyBetween(ctx, from, to)
	if err != nil {
		return err
	}
	twitchRows, err := e.kpiRepo.ListTwitchDailyBetween(ctx, from, to)
	if err != nil {
		return err
	}
	igdbRows, err := e.kpiRepo.ListIGDBSnapshotBetween(ctx, from, to)
	if err != nil {
		return err
	}

	steam := make([]steamDailyJSON, 0, len(steamRows))
	for _, r := range steamRows {
		steam = append(steam, steamDailyJSON{
			Date:     r.Date.Format(dateLayout),
			AppID:    r.AppID,
			GameName: r.GameName,
			AvgCCU:   safeFloat(r.AvgCCU),
			PeakCCU:  r.PeakCCU,
			MinCCU:   r.MinCCU,
			Samples:  r.Samples,
		})
	}
	twitch := make([]twitchDailyJSON, 0, len(twitchRows))
	for _, r := range twitchRows {
		twitch = append(twitch, twitchDailyJSON{
			Date:         r.Date.Format(dateLayout),
			TwitchGameID: r.TwitchGameID,
			GameName:     r.GameName,
			AvgViewers:   safeFloat(r.AvgViewers),
			PeakViewers:  r.PeakViewers,
			MinViewers:   r.MinViewers,
			AvgChannels:  safeFloat(r.AvgChannels),
			Samples:      r.Samples,
		})
	}
	igdb := make([]igdbSnapshotJSON, 0, len(igdbRows))
	for _, r := range igdbRows {
		igdb = append(igdb, igdbSnapshotJSON{
			Date:             r.Date.Format(dateLayout),
			IGDBID:           r.IGDBID,
			GameName:         r.GameName,
			Rating:           safeFloatPtr(r.Rating),
			AggregatedRating: safeFloatPtr(r.AggregatedRating),
			RatingCount:      r.RatingCount,
		})
	}

	// 时间序列统一按桶日期降序、峰值降序
	sort.Slice(steam, func(i, j int) bool {
		if steam[i].Date != steam[j].Date {
			return steam[i].Date > steam[j].Date
		}
		return steam[i].PeakCCU > steam[j].PeakCCU
	})
	sort.Slice(twitch, func(i, j int) bool {
		if twitch[i].Date != twitch[j].Date {
			return twitch[i].Date > twitch[j].Date
		}
		return twitch[i].PeakViewers > twitch[j].PeakViewers
	})
	sort.Slice(igdb, func(i, j int) bool {
		if igdb[i].Date != igdb[j].Date {
			return igdb[i].Date > igdb[j].Date
		}
		return igdb[i].IGDBID < igdb[j].IGDBID
	})

	payload := map[string]interface{}{
		"generated_at": e.clock.Now().Format(time.RFC3339),
		"steam":        steam,
		"twitch":       twitch,
		"igdb":         igdb,
	}
	if windowDays > 0 {
		payload["window_days"] = windowDays
	}
	return e.writeJSON(filename, payload)
}

func (e *ExportService) exportWeekly(ctx context.Context) error {
	now := e.clock.Now()
	from := timeutil.StartOfWeek(now).AddDate(0, 0, -7*(e.cfg.WeeklyWindow-1))
	to := timeutil.StartOfWeek(now).AddDate(0, 0, 7)

	steamRows, err := e.kpiRepo.ListSteamWeeklyBetween(ctx, from, to)
	if err != nil {
		return err
	}
	twitchRows, err := e.kpiRepo.ListTwitchWeeklyBetween(ctx, from, to)
	if err != nil {
		return err
	}
	igdbRows, err := e.kpiRepo.ListIGDBWeeklyBetween(ctx, from, to)
	if err != nil {
		return err
	}

	type steamJSON struct {
		WeekStart    string   `json:"week_start"`
		AppID        int64    `json:"app_id"`
		GameName     string   `json:"game_name"`
		AvgPeak      *float64 `json:"avg_peak"`
		MaxPeak      int64    `json:"max_peak"`
		TotalSamples int64    `json:"total_samples"`
		DaysInWeek   int64    `json:"days_in_week"`
	}
	type twitchJSON struct {
		WeekStart    string   `json:"week_start"`
		TwitchGameID string   `json:"twitch_game_id"`
		GameName     string   `json:"game_name"`
		AvgPeak      *float64 `json:"avg_peak"`
		MaxPeak      int64    `json:"max_peak"`
		TotalSamples int64    `json:"total_samples"`
		DaysInWeek   int64    `json:"days_in_week"`
	}
	type igdbJSON struct {
		WeekStart      string   `json:"week_start"`
		IGDBID         int64    `json:"igdb_id"`
		GameName       string   `json:"game_name"`
		AvgRating      *float64 `json:"avg_rating"`
		AvgAggregated  *float64 `json:"avg_aggregated"`
		MaxRatingCount *int64   `json:"max_rating_count"`
		DaysInWeek     int64    `json:"days_in_week"`
	}

	steam := make([]steamJSON, 0, len(steamRows))
	for _, r := range steamRows {
		steam = append(steam, steamJSON{
			WeekStart:    r.WeekStart.Format(dateLayout),
			AppID:        r.AppID,
			GameName:     r.GameName,
			AvgPeak:      safeFloat(r.AvgPeak),
			MaxPeak:      r.MaxPeak,
			TotalSamples: r.TotalSamples,
			DaysInWeek:   r.DaysInWeek,
		})
	}
	twitch := make([]twitchJSON, 0, len(twitchRows))
	for _, r := range twitchRows {
		twitch = append(twitch, twitchJSON{
			WeekStart:    r.WeekStart.Format(dateLayout),
			TwitchGameID: r.TwitchGameID,
			GameName:     r.GameName,
			AvgPeak:      safeFloat(r.AvgPeak),
			MaxPeak:      r.MaxPeak,
			TotalSamples: r.TotalSamples,
			DaysInWeek:   r.DaysInWeek,
		})
	}
	igdb := make([]igdbJSON, 0, len(igdbRows))
	for _, r := range igdbRows {
		igdb = append(igdb, igdbJSON{
			WeekStart:      r.WeekStart.Format(dateLayout),
			IGDBID:         r.IGDBID,
			GameName:       r.GameName,
			AvgRating:      safeFloatPtr(r.AvgRating),
			AvgAggregated:  safeFloatPtr(r.AvgAggregated),
			MaxRatingCount: r.MaxRatingCount,
			DaysInWeek:     r.DaysInWeek,
		})
	}

	sort.Slice(steam, func(i, j int) bool {
		if steam[i].WeekStart != steam[j].WeekStart {
			return steam[i].WeekStart > steam[j].WeekStart
		}
		return steam[i].MaxPeak > steam[j].MaxPeak
	})
	sort.Slice(twitch, func(i, j int) bool {
		if twitch[i].WeekStart != twitch[j].WeekStart {
			return twitch[i].WeekStart > twitch[j].WeekStart
		}
		return twitch[i].MaxPeak > twitch[j].MaxPeak
	})
	sort.Slice(igdb, func(i, j int) bool {
		if igdb[i].WeekStart != igdb[j].WeekStart {
			return igdb[i].WeekStart > igdb[j].WeekStart
		}
		return igdb[i].IGDBID < igdb[j].IGDBID
	})

	return e.writeJSON(fileWeeklyKPIs, map[string]interface{}{
		"generated_at": e.clock.Now().Format(time.RFC3339),
		"window_weeks": e.cfg.WeeklyWindow,
		"steam":        steam,
		"twitch":       twitch,
		"igdb":         igdb,
	})
}

func (e *ExportService) exportMonthly(ctx context.Context) error {
	now := e.clock.Now()
	from := timeutil.StartOfMonth(now).AddDate(0, -(e.cfg.MonthlyWindow - 1), 0)
	to := timeutil.StartOfMonth(now).AddDate(0, 1, 0)

	steamRows, err := e.kpiRepo.ListSteamMonthlyBetween(ctx, from, to)
	if err != nil {
		return err
	}
	twitchRows, err := e.kpiRepo.ListTwitchMonthlyBetween(ctx, from, to)
	if err != nil {
		return err
	}
	igdbRows, err := e.kpiRepo.ListIGDBMonthlyBetween(ctx, from, to)
	if err != nil {
		return err
	}

	type steamJSON struct {
		MonthStart   string   `json:"month_start"`
		AppID        int64    `json:"app_id"`
		GameName     string   `json:"game_name"`
		AvgPeak      *float64 `json:"avg_peak"`
		MaxPeak      int64    `json:"max_peak"`
		TotalSamples int64    `json:"total_samples"`
		WeeksInMonth int64    `json:"weeks_in_month"`
	}
	type twitchJSON struct {
		MonthStart   string   `json:"month_start"`
		TwitchGameID string   `json:"twitch_game_id"`
		GameName     string   `json:"game_name"`
		AvgPeak      *float64 `json:"avg_peak"`
		MaxPeak      int64    `json:"max_peak"`
		TotalSamples int64    `json:"total_samples"`
		WeeksInMonth int64    `json:"weeks_in_month"`
	}
	type igdbJSON struct {
		MonthStart     string   `json:"month_start"`
		IGDBID         int64    `json:"igdb_id"`
		GameName       string   `json:"game_name"`
		AvgRating      *float64 `json:"avg_rating"`
		AvgAggregated  *float64 `json:"avg_aggregated"`
		MaxRatingCount *int64   `json:"max_rating_count"`
		WeeksInMonth   int64    `json:"weeks_in_month"`
	}

	steam := make([]steamJSON, 0, len(steamRows))
	for _, r := range steamRows {
		steam = append(steam, steamJSON{
			MonthStart:   r.MonthStart.Format(dateLayout),
			AppID:        r.AppID,
			GameName:     r.GameName,
			AvgPeak:      safeFloat(r.AvgPeak),
			MaxPeak:      r.MaxPeak,
			TotalSamples: r.TotalSamples,
			WeeksInMonth: r.WeeksInMonth,
		})
	}
	twitch := make([]twitchJSON, 0, len(twitchRows))
	for _, r := range twitchRows {
		twitch = append(twitch, twitchJSON{
			MonthStart:   r.MonthStart.Format(dateLayout),
			TwitchGameID: r.TwitchGameID,
			GameName:     r.GameName,
			AvgPeak:      safeFloat(r.AvgPeak),
			MaxPeak:      r.MaxPeak,
			TotalSamples: r.TotalSamples,
			WeeksInMonth: r.WeeksInMonth,
		})
	}
	igdb := make([]igdbJSON, 0, len(igdbRows))
	for _, r := range igdbRows {
		igdb = append(igdb, igdbJSON{
			MonthStart:     r.MonthStart.Format(dateLayout),
			IGDBID:         r.IGDBID,
			GameName:       r.GameName,
			AvgRating:      safeFloatPtr(r.AvgRating),
			AvgAggregated:  safeFloatPtr(r.AvgAggregated),
			MaxRatingCount: r.MaxRatingCount,
			WeeksInMonth:   r.WeeksInMonth,
		})
	}

	sort.Slice(steam, func(i, j int) bool {
		if steam[i].MonthStart != steam[j].MonthStart {
			return steam[i].MonthStart > steam[j].MonthStart
		}
		return steam[i].MaxPeak > steam[j].MaxPeak
	})
	sort.Slice(twitch, func(i, j int) bool {
		if twitch[i].MonthStart != twitch[j].MonthStart {
			return twitch[i].MonthStart > twitch[j].MonthStart
		}
		return twitch[i].MaxPeak > twitch[j].MaxPeak
	})
	sort.Slice(igdb, func(i, j int) bool {
		if igdb[i].MonthStart != igdb[j].MonthStart {
			return igdb[i].MonthStart > igdb[j].MonthStart
		}
		return igdb[i].IGDBID < igdb[j].IGDBID
	})

	return e.writeJSON(fileMonthlyKPIs, map[string]interface{}{
		"generated_at":  e.clock.Now().Format(time.RFC3339),
		"window_months": e.cfg.MonthlyWindow,
		"steam":         steam,
		"twitch":        twitch,
		"igdb":          igdb,
	})
}

func (e *ExportService) exportRankings(ctx context.Context) error {
	rankings, err := e.kpiRepo.GameRankings(ctx)
	if err != nil {
		return err
	}
	type rankJSON struct {
		Rank        int      `json:"rank"`
		AppID       int64    `json:"app_id"`
		GameName    string   `json:"game_name"`
		AvgPeakCCU  *float64 `json:"avg_peak_ccu"`
		AllTimePeak int64    `json:"all_time_peak_ccu"`
		DaysTracked int64    `json:"days_tracked"`
	}
	rows := make([]rankJSON, 0, len(rankings))
	for i, r := range rankings {
		rows = append(rows, rankJSON{
			Rank:        i + 1,
			AppID:       r.AppID,
			GameName:    r.GameName,
			AvgPeakCCU:  safeFloat(r.AvgPeak),
			AllTimePeak: r.AllTimePeak,
			DaysTracked: r.DaysTracked,
		})
	}
	return e.writeJSON(fileGameRankings, map[string]interface{}{
		"generated_at": e.clock.Now().Format(time.RFC3339),
		"rankings":     rows,
	})
}

func (e *ExportService) exportGameMetadata(ctx context.Context) error {
	games, err := e.gameRepo.ListAllGames(ctx)
	if err != nil {
		return err
	}

	type gameJSON struct {
		IGDBID           int64           `json:"igdb_id"`
		GameName         string          `json:"game_name"`
		Slug             string          `json:"slug"`
		SteamAppID       *int64          `json:"steam_app_id"`
		TwitchGameID     *string         `json:"twitch_game_id"`
		Summary          string          `json:"summary"`
		FirstReleaseDate *string         `json:"first_release_date"`
		CoverURL         string          `json:"cover_url"`
		SteamDescription string          `json:"steam_description"`
		SteamRequiredAge int             `json:"steam_required_age"`
		SteamTags        json.RawMessage `json:"steam_tags"`
		Genres           json.RawMessage `json:"genres"`
		Themes           json.RawMessage `json:"themes"`
		Platforms        json.RawMessage `json:"platforms"`
		GameModes        json.RawMessage `json:"game_modes"`
		Developers       json.RawMessage `json:"developers"`
		Publishers       json.RawMessage `json:"publishers"`
		Websites         json.RawMessage `json:"websites"`
		DiscoverySource  string          `json:"discovery_source"`
		IsActive         bool            `json:"is_active"`
	}

	rows := make([]gameJSON, 0, len(games))
	for _, g := range games {
		row := gameJSON{
			IGDBID:           g.IGDBID,
			GameName:         g.GameName,
			Slug:             g.Slug,
			SteamAppID:       g.SteamAppID,
			TwitchGameID:     g.TwitchGameID,
			Summary:          g.IGDBSummary,
			CoverURL:         g.CoverURL,
			SteamDescription: g.SteamDescription,
			SteamRequiredAge: g.SteamRequiredAge,
			SteamTags:        rawJSON(g.SteamTags),
			Genres:           rawJSON(g.Genres),
			Themes:           rawJSON(g.Themes),
			Platforms:        rawJSON(g.Platforms),
			GameModes:        rawJSON(g.GameModes),
			Developers:       rawJSON(g.Developers),
			Publishers:       rawJSON(g.Publishers),
			Websites:         rawJSON(g.Websites),
			DiscoverySource:  g.DiscoverySource,
			IsActive:         g.IsActive,
		}
		if g.FirstReleaseDate != nil {
			s := g.FirstReleaseDate.Format(dateLayout)
			row.FirstReleaseDate = &s
		}
		rows = append(rows, row)
	}

	return e.writeJSON(fileGameMetadata, map[string]interface{}{
		"generated_at": e.clock.Now().Format(time.RFC3339),
		"total":        len(rows),
		"games":        rows,
	})
}

// unifiedDailyJSON 跨平台统一日视图：以 (igdb_id, date) 为行，缺失平台输出null
type unifiedDailyJSON struct {
	IGDBID   int64            `json:"igdb_id"`
	Date     string           `json:"date"`
	GameName string           `json:"game_name"`
	Steam    *steamDailyJSON  `json:"steam"`
	Twitch   *twitchDailyJSON `json:"twitch"`
}

// exportUnifiedDaily 用身份主表把 steam/twitch 的天桶按 igdb_id 做全外连接。
// sqlite 不支持 FULL OUTER JOIN，这里在内存里并表。
func (e *ExportService) exportUnifiedDaily(ctx context.Context) error {
	now := e.clock.Now()
	from := timeutil.StartOfDay(now).AddDate(0, 0, -(e.cfg.LatestDays - 1))

	steamRows, err := e.kpiRepo.ListSteamDailyBetween(ctx, from, now)
	if err != nil {
		return err
	}
	twitchRows, err := e.kpiRepo.ListTwitchDailyBetween(ctx, from, now)
	if err != nil {
		return err
	}
	games, err := e.gameRepo.ListAllGames(ctx)
	if err != nil {
		return err
	}

	steamToIGDB := make(map[int64]*model.GameMetadata)
	twitchToIGDB := make(map[string]*model.GameMetadata)
	for _, g := range games {
		if g.SteamAppID != nil {
			steamToIGDB[*g.SteamAppID] = g
		}
		if g.TwitchGameID != nil {
			twitchToIGDB[*g.TwitchGameID] = g
		}
	}

	type key struct {
		igdbID int64
		date   string
	}
	merged := make(map[key]*unifiedDailyJSON)

	for _, r := range steamRows {
		game, ok := steamToIGDB[r.AppID]
		if !ok {
			// 身份主表没有该app的映射，无法归并到统一视图
			continue
		}
		k := key{igdbID: game.IGDBID, date: r.Date.Format(dateLayout)}
		row, ok := merged[k]
		if !ok {
			row = &unifiedDailyJSON{IGDBID: game.IGDBID, Date: k.date, GameName: game.GameName}
			merged[k] = row
		}
		row.Steam = &steamDailyJSON{
			Date:     k.date,
			AppID:    r.AppID,
			GameName: r.GameName,
			AvgCCU:   safeFloat(r.AvgCCU),
			PeakCCU:  r.PeakCCU,
			MinCCU:   r.MinCCU,
			Samples:  r.Samples,
		}
	}
	for _, r := range twitchRows {
		game, ok := twitchToIGDB[r.TwitchGameID]
		if !ok {
			continue
		}
		k := key{igdbID: game.IGDBID, date: r.Date.Format(dateLayout)}
		row, ok := merged[k]
		if !ok {
			row = &unifiedDailyJSON{IGDBID: game.IGDBID, Date: k.date, GameName: game.GameName}
			merged[k] = row
		}
		row.Twitch = &twitchDailyJSON{
			Date:         k.date,
			TwitchGameID: r.TwitchGameID,
			GameName:     r.GameName,
			AvgViewers:   safeFloat(r.AvgViewers),
			PeakViewers:  r.PeakViewers,
			MinViewers:   r.MinViewers,
			AvgChannels:  safeFloat(r.AvgChannels),
			Samples:      r.Samples,
		}
	}

	rows := make([]*unifiedDailyJSON, 0, len(merged))
	for _, row := range merged {
		rows = append(rows, row)
	}
	// 行序：日期降序，同日期按跨平台最高峰值降序
	peak := func(r *unifiedDailyJSON) int64 {
		var p int64
		if r.Steam != nil && r.Steam.PeakCCU > p {
			p = r.Steam.PeakCCU
		}
		if r.Twitch != nil && r.Twitch.PeakViewers > p {
			p = r.Twitch.PeakViewers
		}
		return p
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date > rows[j].Date
		}
		if pi, pj := peak(rows[i]), peak(rows[j]); pi != pj {
			return pi > pj
		}
		return rows[i].IGDBID < rows[j].IGDBID
	})

	return e.writeJSON(fileUnifiedDaily, map[string]interface{}{
		"generated_at": e.clock.Now().Format(time.RFC3339),
		"window_days":  e.cfg.LatestDays,
		"rows":         rows,
	})
}

// writeJSON 先写临时文件再rename，避免仪表盘读到半截文件
func (e *ExportService) writeJSON(filename string, payload interface{}) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化%s失败: %w", filename, err)
	}

	target := filepath.Join(e.cfg.OutputDir, filename)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入%s失败: %w", filename, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("替换%s失败: %w", filename, err)
	}

	e.logger.WithFields(logrus.Fields{"file": filename, "bytes": len(data)}).Info("导出完成")
	return nil
}

func safeFloat(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func safeFloatPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return safeFloat(*v)
}

func rawJSON(data []byte) json.RawMessage {
	if len(data) == 0 {
		return json.RawMessage("null")
	}
	return json.RawMessage(data)
}
