package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"GameObservatory/internal/config"
	"GameObservatory/internal/model"
	"GameObservatory/internal/repository"
	"GameObservatory/internal/utils/timeutil"

	"github.com/sirupsen/logrus"
)

// AggregationService 级联增量聚合引擎：原始样本→小时/天→周→月。
// 每次运行只重算当前打开的桶（小时表额外回看补算），整行upsert保证幂等；
// 已关闭的历史桶不再触碰。清理必须在当日聚合之后执行，保证样本先进桶再出库。
type AggregationService struct {
	sampleRepo repository.SampleRepository
	kpiRepo    repository.KPIRepository
	cfg        *config.AggregationConfig
	clock      timeutil.Clock
	logger     *logrus.Logger
}

func NewAggregationService(sampleRepo repository.SampleRepository, kpiRepo repository.KPIRepository,
	cfg *config.AggregationConfig, clock timeutil.Clock, logger *logrus.Logger) *AggregationService {
	return &AggregationService{
		sampleRepo: sampleRepo,
		kpiRepo:    kpiRepo,
		cfg:        cfg,
		clock:      clock,
		logger:     logger,
	}
}

// bucketStats 单个桶内的流式统计
type bucketStats struct {
	sum   float64
	min   int64
	max   int64
	count int64
	name  string
}

func (b *bucketStats) add(v int64, name string) {
	if b.count == 0 || v < b.min {
		b.min = v
	}
	if v > b.max {
		b.max = v
	}
	b.sum += float64(v)
	b.count++
	if name != "" {
		b.name = name
	}
}

func (b *bucketStats) avg() float64 {
	if b.count == 0 {
		return 0
	}
	return b.sum / float64(b.count)
}

// AggregateHourly 重算回看窗口内的全部小时桶。
// 窗口覆盖晚到样本：采集中断恢复后，补写的样本会在下次运行进入正确的小时桶。
// 各平台互不依赖，单平台失败不阻塞其他平台的同粒度步骤。
func (s *AggregationService) AggregateHourly(ctx context.Context) error {
	now := s.clock.Now()
	from := timeutil.StartOfHour(now.Add(-time.Duration(s.cfg.HourlyLookbackHours) * time.Hour))

	var errs []error
	if err := s.aggregateSteamHourly(ctx, from, now); err != nil {
		errs = append(errs, fmt.Errorf("steam小时聚合失败: %w", err))
	}
	if err := s.aggregateTwitchHourly(ctx, from, now); err != nil {
		errs = append(errs, fmt.Errorf("twitch小时聚合失败: %w", err))
	}
	return errors.Join(errs...)
}

func (s *AggregationService) aggregateSteamHourly(ctx context.Context, from, to time.Time) error {
	samples, err := s.sampleRepo.ListSteamBetween(ctx, from, to)
	if err != nil {
		return err
	}

	type key struct {
		hour  time.Time
		appID int64
	}
	buckets := make(map[key]*bucketStats)
	for _, sample := range samples {
		if sample.PlayerCount < 0 {
			s.logger.WithField("app_id", sample.AppID).Warn("玩家数为负，跳过该样本")
			continue
		}
		k := key{hour: timeutil.StartOfHour(sample.Timestamp), appID: sample.AppID}
		b, ok := buckets[k]
		if !ok {
			b = &bucketStats{}
			buckets[k] = b
		}
		b.add(sample.PlayerCount, sample.GameName)
	}

	rows := make([]*model.SteamHourlyKPI, 0, len(buckets))
	for k, b := range buckets {
		rows = append(rows, &model.SteamHourlyKPI{
			HourStart: k.hour,
			AppID:     k.appID,
			GameName:  b.name,
			AvgCCU:    b.avg(),
			PeakCCU:   b.max,
			MinCCU:    b.min,
			Samples:   b.count,
		})
	}
	if err := s.kpiRepo.UpsertSteamHourly(ctx, rows); err != nil {
		return err
	}
	s.logger.WithField("buckets", len(rows)).Info("steam小时桶聚合完成")
	return nil
}

func (s *AggregationService) aggregateTwitchHourly(ctx context.Context, from, to time.Time) error {
	samples, err := s.sampleRepo.ListTwitchBetween(ctx, from, to)
	if err != nil {
		return err
	}

	type key struct {
		hour   time.Time
		gameID string
	}
	viewers := make(map[key]*bucketStats)
	channels := make(map[key]*bucketStats)
	for _, sample := range samples {
		if sample.ViewerCount < 0 || sample.ChannelCount < 0 {
			s.logger.WithField("twitch_game_id", sample.TwitchGameID).Warn("观看数为负，跳过该样本")
			continue
		}
		k := key{hour: timeutil.StartOfHour(sample.Timestamp), gameID: sample.TwitchGameID}
		vb, ok := viewers[k]
		if !ok {
			vb = &bucketStats{}
			viewers[k] = vb
			channels[k] = &bucketStats{}
		}
		vb.add(sample.ViewerCount, sample.GameName)
		channels[k].add(sample.ChannelCount, "")
	}

	rows := make([]*model.TwitchHourlyKPI, 0, len(viewers))
	for k, vb := range viewers {
		rows = append(rows, &model.TwitchHourlyKPI{
			HourStart:    k.hour,
			TwitchGameID: k.gameID,
			GameName:     vb.name,
			AvgViewers:   vb.avg(),
			PeakViewers:  vb.max,
			MinViewers:   vb.min,
			AvgChannels:  channels[k].avg(),
			Samples:      vb.count,
		})
	}
	if err := s.kpiRepo.UpsertTwitchHourly(ctx, rows); err != nil {
		return err
	}
	s.logger.WithField("buckets", len(rows)).Info("twitch小时桶聚合完成")
	return nil
}

// AggregateDaily 只重算今天的天桶。昨天及更早的天桶在跨日时已定稿。
func (s *AggregationService) AggregateDaily(ctx context.Context) error {
	now := s.clock.Now()
	dayStart := timeutil.StartOfDay(now)

	var errs []error
	if err := s.aggregateSteamDaily(ctx, dayStart, now); err != nil {
		errs = append(errs, fmt.Errorf("steam天聚合失败: %w", err))
	}
	if err := s.aggregateTwitchDaily(ctx, dayStart, now); err != nil {
		errs = append(errs, fmt.Errorf("twitch天聚合失败: %w", err))
	}
	if err := s.snapshotIGDBDaily(ctx, dayStart, now); err != nil {
		errs = append(errs, fmt.Errorf("igdb日快照失败: %w", err))
	}
	return errors.Join(errs...)
}

func (s *AggregationService) aggregateSteamDaily(ctx context.Context, dayStart, now time.Time) error {
	samples, err := s.sampleRepo.ListSteamBetween(ctx, dayStart, now)
	if err != nil {
		return err
	}

	buckets := make(map[int64]*bucketStats)
	for _, sample := range samples {
		if sample.PlayerCount < 0 {
			continue
		}
		b, ok := buckets[sample.AppID]
		if !ok {
			b = &bucketStats{}
			buckets[sample.AppID] = b
		}
		b.add(sample.PlayerCount, sample.GameName)
	}

	rows := make([]*model.SteamDailyKPI, 0, len(buckets))
	for appID, b := range buckets {
		rows = append(rows, &model.SteamDailyKPI{
			Date:     dayStart,
			AppID:    appID,
			GameName: b.name,
			AvgCCU:   b.avg(),
			PeakCCU:  b.max,
			MinCCU:   b.min,
			Samples:  b.count,
		})
	}
	if err := s.kpiRepo.UpsertSteamDaily(ctx, rows); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"date": dayStart.Format("2006-01-02"), "games": len(rows)}).Info("steam天桶聚合完成")
	return nil
}

func (s *AggregationService) aggregateTwitchDaily(ctx context.Context, dayStart, now time.Time) error {
	samples, err := s.sampleRepo.ListTwitchBetween(ctx, dayStart, now)
	if err != nil {
		return err
	}

	viewers := make(map[string]*bucketStats)
	channels := make(map[string]*bucketStats)
	for _, sample := range samples {
		if sample.ViewerCount < 0 || sample.ChannelCount < 0 {
			continue
		}
		vb, ok := viewers[sample.TwitchGameID]
		if !ok {
			vb = &bucketStats{}
			viewers[sample.TwitchGameID] = vb
			channels[sample.TwitchGameID] = &bucketStats{}
		}
		vb.add(sample.ViewerCount, sample.GameName)
		channels[sample.TwitchGameID].add(sample.ChannelCount, "")
	}

	rows := make([]*model.TwitchDailyKPI, 0, len(viewers))
	for gameID, vb := range viewers {
		rows = append(rows, &model.TwitchDailyKPI{
			Date:         dayStart,
			TwitchGameID: gameID,
			GameName:     vb.name,
			AvgViewers:   vb.avg(),
			PeakViewers:  vb.max,
			MinViewers:   vb.min,
			AvgChannels:  channels[gameID].avg(),
			Samples:      vb.count,
		})
	}
	if err := s.kpiRepo.UpsertTwitchDaily(ctx, rows); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"date": dayStart.Format("2006-01-02"), "games": len(rows)}).Info("twitch天桶聚合完成")
	return nil
}

// snapshotIGDBDaily 评分是慢变量，日快照取当日最后一次观测值而非均值
func (s *AggregationService) snapshotIGDBDaily(ctx context.Context, dayStart, now time.Time) error {
	samples, err := s.sampleRepo.ListIGDBBetween(ctx, dayStart, now)
	if err != nil {
		return err
	}

	type lastObs struct {
		sample *model.IGDBRatingSample
		count  int64
	}
	latest := make(map[int64]*lastObs)
	for _, sample := range samples {
		obs, ok := latest[sample.IGDBID]
		if !ok {
			latest[sample.IGDBID] = &lastObs{sample: sample, count: 1}
			continue
		}
		obs.count++
		// ListIGDBBetween 按时间升序，后出现的即更新的观测
		obs.sample = sample
	}

	rows := make([]*model.IGDBRatingSnapshot, 0, len(latest))
	for igdbID, obs := range latest {
		rows = append(rows, &model.IGDBRatingSnapshot{
			Date:             dayStart,
			IGDBID:           igdbID,
			GameName:         obs.sample.GameName,
			Rating:           obs.sample.Rating,
			AggregatedRating: obs.sample.AggregatedRating,
			RatingCount:      obs.sample.RatingCount,
			Samples:          obs.count,
		})
	}
	if err := s.kpiRepo.UpsertIGDBSnapshot(ctx, rows); err != nil {
		return err
	}
	s.logger.WithFields(logrus.Fields{"date": dayStart.Format("2006-01-02"), "games": len(rows)}).Info("igdb日快照完成")
	return nil
}

// AggregateWeekly 只重算当前周的周桶（周一为一周起点），输入为本周内已有的天桶
func (s *AggregationService) AggregateWeekly(ctx context.Context) error {
	now := s.clock.Now()
	weekStart := timeutil.StartOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)

	var errs []error
	if err := s.aggregateSteamWeekly(ctx, weekStart, weekEnd); err != nil {
		errs = append(errs, fmt.Errorf("steam周聚合失败: %w", err))
	}
	if err := s.aggregateTwitchWeekly(ctx, weekStart, weekEnd); err != nil {
		errs = append(errs, fmt.Errorf("twitch周聚合失败: %w", err))
	}
	if err := s.aggregateIGDBWeekly(ctx, weekStart, weekEnd); err != nil {
		errs = append(errs, fmt.Errorf("igdb周聚合失败: %w", err))
	}
	return errors.Join(errs...)
}

func (s *AggregationService) aggregateSteamWeekly(ctx context.Context, weekStart, weekEnd time.Time) error {
	dailies, err := s.kpiRepo.ListSteamDailyBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}

	type acc struct {
		name    string
		peakSum float64
		maxPeak int64
		samples int64
		days    int64
	}
	byGame := make(map[int64]*acc)
	for _, d := range dailies {
		a, ok := byGame[d.AppID]
		if !ok {
			a = &acc{}
			byGame[d.AppID] = a
		}
		a.name = d.GameName
		a.peakSum += float64(d.PeakCCU)
		if d.PeakCCU > a.maxPeak {
			a.maxPeak = d.PeakCCU
		}
		a.samples += d.Samples
		a.days++
	}

	rows := make([]*model.SteamWeeklyKPI, 0, len(byGame))
	for appID, a := range byGame {
		rows = append(rows, &model.SteamWeeklyKPI{
			WeekStart:    weekStart,
			AppID:        appID,
			GameName:     a.name,
			AvgPeak:      a.peakSum / float64(a.days),
			MaxPeak:      a.maxPeak,
			TotalSamples: a.samples,
			DaysInWeek:   a.days,
		})
	}
	return s.kpiRepo.UpsertSteamWeekly(ctx, rows)
}

func (s *AggregationService) aggregateTwitchWeekly(ctx context.Context, weekStart, weekEnd time.Time) error {
	dailies, err := s.kpiRepo.ListTwitchDailyBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}

	type acc struct {
		name    string
		peakSum float64
		maxPeak int64
		samples int64
		days    int64
	}
	byGame := make(map[string]*acc)
	for _, d := range dailies {
		a, ok := byGame[d.TwitchGameID]
		if !ok {
			a = &acc{}
			byGame[d.TwitchGameID] = a
		}
		a.name = d.GameName
		a.peakSum += float64(d.PeakViewers)
		if d.PeakViewers > a.maxPeak {
			a.maxPeak = d.PeakViewers
		}
		a.samples += d.Samples
		a.days++
	}

	rows := make([]*model.TwitchWeeklyKPI, 0, len(byGame))
	for gameID, a := range byGame {
		rows = append(rows, &model.TwitchWeeklyKPI{
			WeekStart:    weekStart,
			TwitchGameID: gameID,
			GameName:     a.name,
			AvgPeak:      a.peakSum / float64(a.days),
			MaxPeak:      a.maxPeak,
			TotalSamples: a.samples,
			DaysInWeek:   a.days,
		})
	}
	return s.kpiRepo.UpsertTwitchWeekly(ctx, rows)
}

func (s *AggregationService) aggregateIGDBWeekly(ctx context.Context, weekStart, weekEnd time.Time) error {
	snapshots, err := s.kpiRepo.ListIGDBSnapshotBetween(ctx, weekStart, weekEnd)
	if err != nil {
		return err
	}

	type acc struct {
		name         string
		ratingSum    float64
		ratingN      int64
		aggSum       float64
		aggN         int64
		maxRatingCnt *int64
		days         int64
	}
	byGame := make(map[int64]*acc)
	for _, snap := range snapshots {
		a, ok := byGame[snap.IGDBID]
		if !ok {
			a = &acc{}
			byGame[snap.IGDBID] = a
		}
		a.name = snap.GameName
		if snap.Rating != nil {
			a.ratingSum += *snap.Rating
			a.ratingN++
		}
		if snap.AggregatedRating != nil {
			a.aggSum += *snap.AggregatedRating
			a.aggN++
		}
		if snap.RatingCount != nil && (a.maxRatingCnt == nil || *snap.RatingCount > *a.maxRatingCnt) {
			v := *snap.RatingCount
			a.maxRatingCnt = &v
		}
		a.days++
	}

	rows := make([]*model.IGDBRatingWeekly, 0, len(byGame))
	for igdbID, a := range byGame {
		row := &model.IGDBRatingWeekly{
			WeekStart:      weekStart,
			IGDBID:         igdbID,
			GameName:       a.name,
			MaxRatingCount: a.maxRatingCnt,
			DaysInWeek:     a.days,
		}
		if a.ratingN > 0 {
			v := a.ratingSum / float64(a.ratingN)
			row.AvgRating = &v
		}
		if a.aggN > 0 {
			v := a.aggSum / float64(a.aggN)
			row.AvgAggregated = &v
		}
		rows = append(rows, row)
	}
	return s.kpiRepo.UpsertIGDBWeekly(ctx, rows)
}

// AggregateMonthly 只重算当前月的月桶，输入为起点落在本月内的周桶
func (s *AggregationService) AggregateMonthly(ctx context.Context) error {
	now := s.clock.Now()
	monthStart := timeutil.StartOfMonth(now)
	monthEnd := monthStart.AddDate(0, 1, 0)

	var errs []error
	if err := s.aggregateSteamMonthly(ctx, monthStart, monthEnd); err != nil {
		errs = append(errs, fmt.Errorf("steam月聚合失败: %w", err))
	}
	if err := s.aggregateTwitchMonthly(ctx, monthStart, monthEnd); err != nil {
		errs = append(errs, fmt.Errorf("twitch月聚合失败: %w", err))
	}
	if err := s.aggregateIGDBMonthly(ctx, monthStart, monthEnd); err != nil {
		errs = append(errs, fmt.Errorf("igdb月聚合失败: %w", err))
	}
	return errors.Join(errs...)
}

func (s *AggregationService) aggregateSteamMonthly(ctx context.Context, monthStart, monthEnd time.Time) error {
	weeklies, err := s.kpiRepo.ListSteamWeeklyBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return err
	}

	type acc struct {
		name    string
		peakSum float64
		maxPeak int64
		samples int64
		weeks   int64
	}
	byGame := make(map[int64]*acc)
	for _, w := range weeklies {
		a, ok := byGame[w.AppID]
		if !ok {
			a = &acc{}
			byGame[w.AppID] = a
		}
		a.name = w.GameName
		a.peakSum += w.AvgPeak
		if w.MaxPeak > a.maxPeak {
			a.maxPeak = w.MaxPeak
		}
		a.samples += w.TotalSamples
		a.weeks++
	}

	rows := make([]*model.SteamMonthlyKPI, 0, len(byGame))
	for appID, a := range byGame {
		rows = append(rows, &model.SteamMonthlyKPI{
			MonthStart:   monthStart,
			AppID:        appID,
			GameName:     a.name,
			AvgPeak:      a.peakSum / float64(a.weeks),
			MaxPeak:      a.maxPeak,
			TotalSamples: a.samples,
			WeeksInMonth: a.weeks,
		})
	}
	return s.kpiRepo.UpsertSteamMonthly(ctx, rows)
}

func (s *AggregationService) aggregateTwitchMonthly(ctx context.Context, monthStart, monthEnd time.Time) error {
	weeklies, err := s.kpiRepo.ListTwitchWeeklyBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return err
	}

	type acc struct {
		name    string
		peakSum float64
		maxPeak int64
		samples int64
		weeks   int64
	}
	byGame := make(map[string]*acc)
	for _, w := range weeklies {
		a, ok := byGame[w.TwitchGameID]
		if !ok {
			a = &acc{}
			byGame[w.TwitchGameID] = a
		}
		a.name = w.GameName
		a.peakSum += w.AvgPeak
		if w.MaxPeak > a.maxPeak {
			a.maxPeak = w.MaxPeak
		}
		a.samples += w.TotalSamples
		a.weeks++
	}

	rows := make([]*model.TwitchMonthlyKPI, 0, len(byGame))
	for gameID, a := range byGame {
		rows = append(rows, &model.TwitchMonthlyKPI{
			MonthStart:   monthStart,
			TwitchGameID: gameID,
			GameName:     a.name,
			AvgPeak:      a.peakSum / float64(a.weeks),
			MaxPeak:      a.maxPeak,
			TotalSamples: a.samples,
			WeeksInMonth: a.weeks,
		})
	}
	return s.kpiRepo.UpsertTwitchMonthly(ctx, rows)
}

func (s *AggregationService) aggregateIGDBMonthly(ctx context.Context, monthStart, monthEnd time.Time) error {
	weeklies, err := s.kpiRepo.ListIGDBWeeklyBetween(ctx, monthStart, monthEnd)
	if err != nil {
		return err
	}

	type acc struct {
		name         string
		ratingSum    float64
		ratingN      int64
		aggSum       float64
		aggN         int64
		maxRatingCnt *int64
		weeks        int64
	}
	byGame := make(map[int64]*acc)
	for _, w := range weeklies {
		a, ok := byGame[w.IGDBID]
		if !ok {
			a = &acc{}
			byGame[w.IGDBID] = a
		}
		a.name = w.GameName
		if w.AvgRating != nil {
			a.ratingSum += *w.AvgRating
			a.ratingN++
		}
		if w.AvgAggregated != nil {
			a.aggSum += *w.AvgAggregated
			a.aggN++
		}
		if w.MaxRatingCount != nil && (a.maxRatingCnt == nil || *w.MaxRatingCount > *a.maxRatingCnt) {
			v := *w.MaxRatingCount
			a.maxRatingCnt = &v
		}
		a.weeks++
	}

	rows := make([]*model.IGDBRatingMonthly, 0, len(byGame))
	for igdbID, a := range byGame {
		row := &model.IGDBRatingMonthly{
			MonthStart:     monthStart,
			IGDBID:         igdbID,
			GameName:       a.name,
			MaxRatingCount: a.maxRatingCnt,
			WeeksInMonth:   a.weeks,
		}
		if a.ratingN > 0 {
			v := a.ratingSum / float64(a.ratingN)
			row.AvgRating = &v
		}
		if a.aggN > 0 {
			v := a.aggSum / float64(a.aggN)
			row.AvgAggregated = &v
		}
		rows = append(rows, row)
	}
	return s.kpiRepo.UpsertIGDBMonthly(ctx, rows)
}

// CleanupRaw 删除超过保留期的原始样本，返回各平台删除行数。
// retentionDays<=0 时用配置默认值。必须在AggregateDaily之后调用。
func (s *AggregationService) CleanupRaw(ctx context.Context, retentionDays int) (map[model.PlatformType]int64, error) {
	if retentionDays <= 0 {
		retentionDays = s.cfg.RawRetentionDays
	}
	cutoff := timeutil.StartOfDay(s.clock.Now()).AddDate(0, 0, -retentionDays)
	deleted := make(map[model.PlatformType]int64)

	steamN, err := s.sampleRepo.DeleteSteamBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("清理steam原始样本失败: %w", err)
	}
	deleted[model.PlatformSteam] = steamN
	twitchN, err := s.sampleRepo.DeleteTwitchBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("清理twitch原始样本失败: %w", err)
	}
	deleted[model.PlatformTwitch] = twitchN
	igdbN, err := s.sampleRepo.DeleteIGDBBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("清理igdb原始样本失败: %w", err)
	}
	deleted[model.PlatformIGDB] = igdbN

	s.logger.WithFields(logrus.Fields{
		"cutoff": cutoff.Format("2006-01-02"),
		"steam":  steamN,
		"twitch": twitchN,
		"igdb":   igdbN,
	}).Info("原始样本清理完成")
	return deleted, nil
}

// CleanupHourly 小时表保留期独立于原始样本，超期的小时桶直接删除
func (s *AggregationService) CleanupHourly(ctx context.Context, retentionDays int) (map[model.PlatformType]int64, error) {
	if retentionDays <= 0 {
		retentionDays = s.cfg.HourlyRetentionDays
	}
	cutoff := timeutil.StartOfDay(s.clock.Now()).AddDate(0, 0, -retentionDays)
	deleted := make(map[model.PlatformType]int64)

	steamN, err := s.kpiRepo.DeleteSteamHourlyBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("清理steam小时桶失败: %w", err)
	}
	deleted[model.PlatformSteam] = steamN
	twitchN, err := s.kpiRepo.DeleteTwitchHourlyBefore(ctx, cutoff)
	if err != nil {
		return deleted, fmt.Errorf("清理twitch小时桶失败: %w", err)
	}
	deleted[model.PlatformTwitch] = twitchN

	s.logger.WithFields(logrus.Fields{
		"cutoff": cutoff.Format("2006-01-02"),
		"steam":  steamN,
		"twitch": twitchN,
	}).Info("小时桶清理完成")
	return deleted, nil
}

// RunAll 按级联顺序执行全部聚合与清理：小时→天→周→月→清理。
// 失败按平台隔离：某平台在任一粒度失败后，只跳过该平台的后续级联与清理，
// 其他平台照常推进；清理只作用于当轮聚合全部成功的平台，保证样本先进桶再出库。
func (s *AggregationService) RunAll(ctx context.Context) error {
	now := s.clock.Now()
	hourlyFrom := timeutil.StartOfHour(now.Add(-time.Duration(s.cfg.HourlyLookbackHours) * time.Hour))
	dayStart := timeutil.StartOfDay(now)
	weekStart := timeutil.StartOfWeek(now)
	weekEnd := weekStart.AddDate(0, 0, 7)
	monthStart := timeutil.StartOfMonth(now)
	monthEnd := monthStart.AddDate(0, 1, 0)

	failed := make(map[model.PlatformType]error)
	fail := func(platform model.PlatformType, step string, err error) {
		if _, done := failed[platform]; !done {
			failed[platform] = fmt.Errorf("%s: %w", step, err)
		}
		s.logger.WithError(err).WithFields(logrus.Fields{
			"platform": platform,
			"step":     step,
		}).Error("聚合步骤失败，跳过该平台的后续级联")
	}
	alive := func(platform model.PlatformType) bool {
		_, bad := failed[platform]
		return !bad
	}

	if err := s.aggregateSteamHourly(ctx, hourlyFrom, now); err != nil {
		fail(model.PlatformSteam, "hourly", err)
	}
	if err := s.aggregateTwitchHourly(ctx, hourlyFrom, now); err != nil {
		fail(model.PlatformTwitch, "hourly", err)
	}

	if alive(model.PlatformSteam) {
		if err := s.aggregateSteamDaily(ctx, dayStart, now); err != nil {
			fail(model.PlatformSteam, "daily", err)
		}
	}
	if alive(model.PlatformTwitch) {
		if err := s.aggregateTwitchDaily(ctx, dayStart, now); err != nil {
			fail(model.PlatformTwitch, "daily", err)
		}
	}
	if err := s.snapshotIGDBDaily(ctx, dayStart, now); err != nil {
		fail(model.PlatformIGDB, "daily", err)
	}

	if alive(model.PlatformSteam) {
		if err := s.aggregateSteamWeekly(ctx, weekStart, weekEnd); err != nil {
			fail(model.PlatformSteam, "weekly", err)
		}
	}
	if alive(model.PlatformTwitch) {
		if err := s.aggregateTwitchWeekly(ctx, weekStart, weekEnd); err != nil {
			fail(model.PlatformTwitch, "weekly", err)
		}
	}
	if alive(model.PlatformIGDB) {
		if err := s.aggregateIGDBWeekly(ctx, weekStart, weekEnd); err != nil {
			fail(model.PlatformIGDB, "weekly", err)
		}
	}

	if alive(model.PlatformSteam) {
		if err := s.aggregateSteamMonthly(ctx, monthStart, monthEnd); err != nil {
			fail(model.PlatformSteam, "monthly", err)
		}
	}
	if alive(model.PlatformTwitch) {
		if err := s.aggregateTwitchMonthly(ctx, monthStart, monthEnd); err != nil {
			fail(model.PlatformTwitch, "monthly", err)
		}
	}
	if alive(model.PlatformIGDB) {
		if err := s.aggregateIGDBMonthly(ctx, monthStart, monthEnd); err != nil {
			fail(model.PlatformIGDB, "monthly", err)
		}
	}

	rawCutoff := dayStart.AddDate(0, 0, -s.cfg.RawRetentionDays)
	if alive(model.PlatformSteam) {
		if _, err := s.sampleRepo.DeleteSteamBefore(ctx, rawCutoff); err != nil {
			fail(model.PlatformSteam, "cleanup-raw", err)
		}
	}
	if alive(model.PlatformTwitch) {
		if _, err := s.sampleRepo.DeleteTwitchBefore(ctx, rawCutoff); err != nil {
			fail(model.PlatformTwitch, "cleanup-raw", err)
		}
	}
	if alive(model.PlatformIGDB) {
		if _, err := s.sampleRepo.DeleteIGDBBefore(ctx, rawCutoff); err != nil {
			fail(model.PlatformIGDB, "cleanup-raw", err)
		}
	}

	hourlyCutoff := dayStart.AddDate(0, 0, -s.cfg.HourlyRetentionDays)
	if alive(model.PlatformSteam) {
		if _, err := s.kpiRepo.DeleteSteamHourlyBefore(ctx, hourlyCutoff); err != nil {
			fail(model.PlatformSteam, "cleanup-hourly", err)
		}
	}
	if alive(model.PlatformTwitch) {
		if _, err := s.kpiRepo.DeleteTwitchHourlyBefore(ctx, hourlyCutoff); err != nil {
			fail(model.PlatformTwitch, "cleanup-hourly", err)
		}
	}

	var errs []error
	for _, platform := range []model.PlatformType{model.PlatformSteam, model.PlatformTwitch, model.PlatformIGDB} {
		if err, bad := failed[platform]; bad {
			errs = append(errs, fmt.Errorf("%s聚合级联失败: %w", platform, err))
		}
	}
	return errors.Join(errs...)
}
