package repository

import (
	"context"
	"time"

	"GameObservatory/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRanking 排行视图行：按游戏聚合全部天桶得出，导出层直接序列化
type GameRanking struct {
	AppID       int64   `gorm:"column:app_id" json:"app_id"`
	GameName    string  `gorm:"column:game_name" json:"game_name"`
	AvgPeak     float64 `gorm:"column:avg_peak" json:"avg_peak_ccu"`
	AllTimePeak int64   `gorm:"column:all_time_peak" json:"all_time_peak_ccu"`
	DaysTracked int64   `gorm:"column:days_tracked" json:"days_tracked"`
}

// KPIRepository 聚合桶仓储：所有写入都是对 (桶起点, 游戏ID) 唯一键的整行 upsert，
// 同一桶重复聚合产生相同结果，保证引擎幂等
type KPIRepository interface {
	UpsertSteamHourly(ctx context.Context, rows []*model.SteamHourlyKPI) error
	UpsertSteamDaily(ctx context.Context, rows []*model.SteamDailyKPI) error
	UpsertSteamWeekly(ctx context.Context, rows []*model.SteamWeeklyKPI) error
	UpsertSteamMonthly(ctx context.Context, rows []*model.SteamMonthlyKPI) error

	UpsertTwitchHourly(ctx context.Context, rows []*model.TwitchHourlyKPI) error
	UpsertTwitchDaily(ctx context.Context, rows []*model.TwitchDailyKPI) error
	UpsertTwitchWeekly(ctx context.Context, rows []*model.TwitchWeeklyKPI) error
	UpsertTwitchMonthly(ctx context.Context, rows []*model.TwitchMonthlyKPI) error

	UpsertIGDBSnapshot(ctx context.Context, rows []*model.IGDBRatingSnapshot) error
	UpsertIGDBWeekly(ctx context.Context, rows []*model.IGDBRatingWeekly) error
	UpsertIGDBMonthly(ctx context.Context, rows []*model.IGDBRatingMonthly) error

	// 级联输入与导出共用的窗口读取，半开区间 [from, to)
	ListSteamDailyBetween(ctx context.Context, from, to time.Time) ([]*model.SteamDailyKPI, error)
	ListSteamWeeklyBetween(ctx context.Context, from, to time.Time) ([]*model.SteamWeeklyKPI, error)
	ListSteamMonthlyBetween(ctx context.Context, from, to time.Time) ([]*model.SteamMonthlyKPI, error)
	ListTwitchDailyBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchDailyKPI, error)
	ListTwitchWeeklyBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchWeeklyKPI, error)
	ListTwitchMonthlyBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchMonthlyKPI, error)
	ListIGDBSnapshotBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingSnapshot, error)
	ListIGDBWeeklyBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingWeekly, error)
	ListIGDBMonthlyBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingMonthly, error)

	DeleteSteamHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteTwitchHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// GameRankings 按日峰值均值降序的全量排行
	GameRankings(ctx context.Context) ([]*GameRanking, error)
}

type kpiRepository struct {
	db *gorm.DB
}

func NewKPIRepository(db *gorm.DB) KPIRepository {
	return &kpiRepository{db: db}
}

func upsertOn(db *gorm.DB, keyCols []string, valueCols []string) *gorm.DB {
	cols := make([]clause.Column, 0, len(keyCols))
	for _, c := range keyCols {
		cols = append(cols, clause.Column{Name: c})
	}
	return db.Clauses(clause.OnConflict{
		Columns:   cols,
		DoUpdates: clause.AssignmentColumns(valueCols),
	})
}

func (r *kpiRepository) UpsertSteamHourly(ctx context.Context, rows []*model.SteamHourlyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"hour_start", "app_id"},
		[]string{"game_name", "avg_ccu", "peak_ccu", "min_ccu", "samples"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertSteamDaily(ctx context.Context, rows []*model.SteamDailyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"date", "app_id"},
		[]string{"game_name", "avg_ccu", "peak_ccu", "min_ccu", "samples"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertSteamWeekly(ctx context.Context, rows []*model.SteamWeeklyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"week_start", "app_id"},
		[]string{"game_name", "avg_peak", "max_peak", "total_samples", "days_in_week"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertSteamMonthly(ctx context.Context, rows []*model.SteamMonthlyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"month_start", "app_id"},
		[]string{"game_name", "avg_peak", "max_peak", "total_samples", "weeks_in_month"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertTwitchHourly(ctx context.Context, rows []*model.TwitchHourlyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"hour_start", "twitch_game_id"},
		[]string{"game_name", "avg_viewers", "peak_viewers", "min_viewers", "avg_channels", "samples"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertTwitchDaily(ctx context.Context, rows []*model.TwitchDailyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"date", "twitch_game_id"},
		[]string{"game_name", "avg_viewers", "peak_viewers", "min_viewers", "avg_channels", "samples"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertTwitchWeekly(ctx context.Context, rows []*model.TwitchWeeklyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"week_start", "twitch_game_id"},
		[]string{"game_name", "avg_peak", "max_peak", "total_samples", "days_in_week"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertTwitchMonthly(ctx context.Context, rows []*model.TwitchMonthlyKPI) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"month_start", "twitch_game_id"},
		[]string{"game_name", "avg_peak", "max_peak", "total_samples", "weeks_in_month"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertIGDBSnapshot(ctx context.Context, rows []*model.IGDBRatingSnapshot) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"date", "igdb_id"},
		[]string{"game_name", "rating", "aggregated_rating", "rating_count", "samples"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertIGDBWeekly(ctx context.Context, rows []*model.IGDBRatingWeekly) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"week_start", "igdb_id"},
		[]string{"game_name", "avg_rating", "avg_aggregated", "max_rating_count", "days_in_week"},
	).Create(rows).Error
}

func (r *kpiRepository) UpsertIGDBMonthly(ctx context.Context, rows []*model.IGDBRatingMonthly) error {
	if len(rows) == 0 {
		return nil
	}
	return upsertOn(r.db.WithContext(ctx),
		[]string{"month_start", "igdb_id"},
		[]string{"game_name", "avg_rating", "avg_aggregated", "max_rating_count", "weeks_in_month"},
	).Create(rows).Error
}

func (r *kpiRepository) ListSteamDailyBetween(ctx context.Context, from, to time.Time) ([]*model.SteamDailyKPI, error) {
	var rows []*model.SteamDailyKPI
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListSteamWeeklyBetween(ctx context.Context, from, to time.Time) ([]*model.SteamWeeklyKPI, error) {
	var rows []*model.SteamWeeklyKPI
	err := r.db.WithContext(ctx).
		Where("week_start >= ? AND week_start < ?", from, to).
		Order("week_start ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListSteamMonthlyBetween(ctx context.Context, from, to time.Time) ([]*model.SteamMonthlyKPI, error) {
	var rows []*model.SteamMonthlyKPI
	err := r.db.WithContext(ctx).
		Where("month_start >= ? AND month_start < ?", from, to).
		Order("month_start ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListTwitchDailyBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchDailyKPI, error) {
	var rows []*model.TwitchDailyKPI
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListTwitchWeeklyBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchWeeklyKPI, error) {
	var rows []*model.TwitchWeeklyKPI
	err := r.db.WithContext(ctx).
		Where("week_start >= ? AND week_start < ?", from, to).
		Order("week_start ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListTwitchMonthlyBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchMonthlyKPI, error) {
	var rows []*model.TwitchMonthlyKPI
	err := r.db.WithContext(ctx).
		Where("month_start >= ? AND month_start < ?", from, to).
		Order("month_start ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListIGDBSnapshotBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingSnapshot, error) {
	var rows []*model.IGDBRatingSnapshot
	err := r.db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to).
		Order("date ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListIGDBWeeklyBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingWeekly, error) {
	var rows []*model.IGDBRatingWeekly
	err := r.db.WithContext(ctx).
		Where("week_start >= ? AND week_start < ?", from, to).
		Order("week_start ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) ListIGDBMonthlyBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingMonthly, error) {
	var rows []*model.IGDBRatingMonthly
	err := r.db.WithContext(ctx).
		Where("month_start >= ? AND month_start < ?", from, to).
		Order("month_start ASC").Find(&rows).Error
	return rows, err
}

func (r *kpiRepository) DeleteSteamHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("hour_start < ?", cutoff).Delete(&model.SteamHourlyKPI{})
	return res.RowsAffected, res.Error
}

func (r *kpiRepository) DeleteTwitchHourlyBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("hour_start < ?", cutoff).Delete(&model.TwitchHourlyKPI{})
	return res.RowsAffected, res.Error
}

func (r *kpiRepository) GameRankings(ctx context.Context) ([]*GameRanking, error) {
	var rows []*GameRanking
	err := r.db.WithContext(ctx).Raw(`
		SELECT app_id,
		       game_name,
		       AVG(peak_ccu)        AS avg_peak,
		       MAX(peak_ccu)        AS all_time_peak,
		       COUNT(DISTINCT date) AS days_tracked
		FROM steam_daily_kpis
		GROUP BY app_id, game_name
		ORDER BY avg_peak DESC
	`).Scan(&rows).Error
	return rows, err
}
