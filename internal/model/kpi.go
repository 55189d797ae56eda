package model

import "time"

// KPI 聚合桶表：每个平台每个粒度一张表，一行 = 一个 (桶起点, 平台游戏ID)。
// 桶起点统一由 timeutil 截断规则计算；行整体重算后 upsert，不做增量累加。
// 跨平台统一视图在导出层经 game_metadata 以 igdb_id 外连接得到。

// SteamHourlyKPI Steam 小时桶
type SteamHourlyKPI struct {
	HourStart time.Time `gorm:"column:hour_start;type:timestamp;not null;uniqueIndex:uk_steam_hourly,priority:1"`
	AppID     int64     `gorm:"column:app_id;not null;uniqueIndex:uk_steam_hourly,priority:2"`
	GameName  string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgCCU    float64   `gorm:"column:avg_ccu;comment:桶内样本均值"`
	PeakCCU   int64     `gorm:"column:peak_ccu;comment:桶内最大值"`
	MinCCU    int64     `gorm:"column:min_ccu;comment:桶内最小值"`
	Samples   int64     `gorm:"column:samples;comment:桶内样本数，用于评估统计置信度"`
}

func (SteamHourlyKPI) TableName() string { return "steam_hourly_kpis" }

// SteamDailyKPI Steam 天桶
type SteamDailyKPI struct {
	Date     time.Time `gorm:"column:date;type:timestamp;not null;uniqueIndex:uk_steam_daily,priority:1"`
	AppID    int64     `gorm:"column:app_id;not null;uniqueIndex:uk_steam_daily,priority:2"`
	GameName string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgCCU   float64   `gorm:"column:avg_ccu"`
	PeakCCU  int64     `gorm:"column:peak_ccu"`
	MinCCU   int64     `gorm:"column:min_ccu"`
	Samples  int64     `gorm:"column:samples"`
}

func (SteamDailyKPI) TableName() string { return "steam_daily_kpis" }

// SteamWeeklyKPI Steam 周桶（由天桶级联）
type SteamWeeklyKPI struct {
	WeekStart    time.Time `gorm:"column:week_start;type:timestamp;not null;uniqueIndex:uk_steam_weekly,priority:1"`
	AppID        int64     `gorm:"column:app_id;not null;uniqueIndex:uk_steam_weekly,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgPeak      float64   `gorm:"column:avg_peak;comment:各日峰值的均值"`
	MaxPeak      int64     `gorm:"column:max_peak;comment:本周最大峰值"`
	TotalSamples int64     `gorm:"column:total_samples"`
	DaysInWeek   int64     `gorm:"column:days_in_week;comment:有数据的天数"`
}

func (SteamWeeklyKPI) TableName() string { return "steam_weekly_kpis" }

// SteamMonthlyKPI Steam 月桶（由周桶级联）
type SteamMonthlyKPI struct {
	MonthStart   time.Time `gorm:"column:month_start;type:timestamp;not null;uniqueIndex:uk_steam_monthly,priority:1"`
	AppID        int64     `gorm:"column:app_id;not null;uniqueIndex:uk_steam_monthly,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgPeak      float64   `gorm:"column:avg_peak"`
	MaxPeak      int64     `gorm:"column:max_peak"`
	TotalSamples int64     `gorm:"column:total_samples"`
	WeeksInMonth int64     `gorm:"column:weeks_in_month;comment:有数据的周数"`
}

func (SteamMonthlyKPI) TableName() string { return "steam_monthly_kpis" }

// TwitchHourlyKPI Twitch 小时桶
type TwitchHourlyKPI struct {
	HourStart    time.Time `gorm:"column:hour_start;type:timestamp;not null;uniqueIndex:uk_twitch_hourly,priority:1"`
	TwitchGameID string    `gorm:"column:twitch_game_id;type:varchar(64);not null;uniqueIndex:uk_twitch_hourly,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgViewers   float64   `gorm:"column:avg_viewers"`
	PeakViewers  int64     `gorm:"column:peak_viewers"`
	MinViewers   int64     `gorm:"column:min_viewers"`
	AvgChannels  float64   `gorm:"column:avg_channels;comment:在播频道数均值"`
	Samples      int64     `gorm:"column:samples"`
}

func (TwitchHourlyKPI) TableName() string { return "twitch_hourly_kpis" }

// TwitchDailyKPI Twitch 天桶
type TwitchDailyKPI struct {
	Date         time.Time `gorm:"column:date;type:timestamp;not null;uniqueIndex:uk_twitch_daily,priority:1"`
	TwitchGameID string    `gorm:"column:twitch_game_id;type:varchar(64);not null;uniqueIndex:uk_twitch_daily,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgViewers   float64   `gorm:"column:avg_viewers"`
	PeakViewers  int64     `gorm:"column:peak_viewers"`
	MinViewers   int64     `gorm:"column:min_viewers"`
	AvgChannels  float64   `gorm:"column:avg_channels"`
	Samples      int64     `gorm:"column:samples"`
}

func (TwitchDailyKPI) TableName() string { return "twitch_daily_kpis" }

// TwitchWeeklyKPI Twitch 周桶
type TwitchWeeklyKPI struct {
	WeekStart    time.Time `gorm:"column:week_start;type:timestamp;not null;uniqueIndex:uk_twitch_weekly,priority:1"`
	TwitchGameID string    `gorm:"column:twitch_game_id;type:varchar(64);not null;uniqueIndex:uk_twitch_weekly,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgPeak      float64   `gorm:"column:avg_peak"`
	MaxPeak      int64     `gorm:"column:max_peak"`
	TotalSamples int64     `gorm:"column:total_samples"`
	DaysInWeek   int64     `gorm:"column:days_in_week"`
}

func (TwitchWeeklyKPI) TableName() string { return "twitch_weekly_kpis" }

// TwitchMonthlyKPI Twitch 月桶
type TwitchMonthlyKPI struct {
	MonthStart   time.Time `gorm:"column:month_start;type:timestamp;not null;uniqueIndex:uk_twitch_monthly,priority:1"`
	TwitchGameID string    `gorm:"column:twitch_game_id;type:varchar(64);not null;uniqueIndex:uk_twitch_monthly,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgPeak      float64   `gorm:"column:avg_peak"`
	MaxPeak      int64     `gorm:"column:max_peak"`
	TotalSamples int64     `gorm:"column:total_samples"`
	WeeksInMonth int64     `gorm:"column:weeks_in_month"`
}

func (TwitchMonthlyKPI) TableName() string { return "twitch_monthly_kpis" }

// IGDBRatingSnapshot IGDB 评分日快照（取当日最后一次观测值）
type IGDBRatingSnapshot struct {
	Date             time.Time `gorm:"column:date;type:timestamp;not null;uniqueIndex:uk_igdb_snapshot,priority:1"`
	IGDBID           int64     `gorm:"column:igdb_id;not null;uniqueIndex:uk_igdb_snapshot,priority:2"`
	GameName         string    `gorm:"column:game_name;type:varchar(256);not null"`
	Rating           *float64  `gorm:"column:rating"`
	AggregatedRating *float64  `gorm:"column:aggregated_rating"`
	RatingCount      *int64    `gorm:"column:rating_count"`
	Samples          int64     `gorm:"column:samples"`
}

func (IGDBRatingSnapshot) TableName() string { return "igdb_ratings_snapshot" }

// IGDBRatingWeekly IGDB 评分周均值
type IGDBRatingWeekly struct {
	WeekStart      time.Time `gorm:"column:week_start;type:timestamp;not null;uniqueIndex:uk_igdb_weekly,priority:1"`
	IGDBID         int64     `gorm:"column:igdb_id;not null;uniqueIndex:uk_igdb_weekly,priority:2"`
	GameName       string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgRating      *float64  `gorm:"column:avg_rating"`
	AvgAggregated  *float64  `gorm:"column:avg_aggregated"`
	MaxRatingCount *int64    `gorm:"column:max_rating_count"`
	DaysInWeek     int64     `gorm:"column:days_in_week"`
}

func (IGDBRatingWeekly) TableName() string { return "igdb_ratings_weekly" }

// IGDBRatingMonthly IGDB 评分月均值
type IGDBRatingMonthly struct {
	MonthStart     time.Time `gorm:"column:month_start;type:timestamp;not null;uniqueIndex:uk_igdb_monthly,priority:1"`
	IGDBID         int64     `gorm:"column:igdb_id;not null;uniqueIndex:uk_igdb_monthly,priority:2"`
	GameName       string    `gorm:"column:game_name;type:varchar(256);not null"`
	AvgRating      *float64  `gorm:"column:avg_rating"`
	AvgAggregated  *float64  `gorm:"column:avg_aggregated"`
	MaxRatingCount *int64    `gorm:"column:max_rating_count"`
	WeeksInMonth   int64     `gorm:"column:weeks_in_month"`
}

func (IGDBRatingMonthly) TableName() string { return "igdb_ratings_monthly" }
