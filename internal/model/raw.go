package model

import "time"

// 原始样本表：追加写入，(timestamp, 平台游戏ID) 唯一。
// 同键重复写入走 upsert（后写覆盖），由各仓储的 OnConflict 保证不产生重复行。
// 原始行只保留 retention 窗口内的数据，折叠进日聚合后由 CleanupRaw 删除。

// SteamRawSample Steam 每次采集的在线人数样本
type SteamRawSample struct {
	ID          uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp   time.Time `gorm:"column:timestamp;type:timestamp;not null;uniqueIndex:uk_steam_raw_ts_app,priority:1"`
	AppID       int64     `gorm:"column:app_id;not null;uniqueIndex:uk_steam_raw_ts_app,priority:2"`
	GameName    string    `gorm:"column:game_name;type:varchar(256);not null"`
	PlayerCount int64     `gorm:"column:player_count;not null;comment:当前在线人数（CCU）"`
}

func (SteamRawSample) TableName() string { return "steam_raw" }

// TwitchRawSample Twitch 每次采集的观看数据样本
type TwitchRawSample struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp    time.Time `gorm:"column:timestamp;type:timestamp;not null;uniqueIndex:uk_twitch_raw_ts_game,priority:1"`
	TwitchGameID string    `gorm:"column:twitch_game_id;type:varchar(64);not null;uniqueIndex:uk_twitch_raw_ts_game,priority:2"`
	GameName     string    `gorm:"column:game_name;type:varchar(256);not null"`
	ViewerCount  int64     `gorm:"column:viewer_count;not null;comment:总观看人数"`
	ChannelCount int64     `gorm:"column:channel_count;not null;comment:在播频道数"`
}

func (TwitchRawSample) TableName() string { return "twitch_raw" }

// IGDBRatingSample IGDB 评分快照样本
type IGDBRatingSample struct {
	ID               uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	Timestamp        time.Time `gorm:"column:timestamp;type:timestamp;not null;uniqueIndex:uk_igdb_raw_ts_game,priority:1"`
	IGDBID           int64     `gorm:"column:igdb_id;not null;uniqueIndex:uk_igdb_raw_ts_game,priority:2"`
	GameName         string    `gorm:"column:game_name;type:varchar(256);not null"`
	Rating           *float64  `gorm:"column:rating;comment:用户评分"`
	AggregatedRating *float64  `gorm:"column:aggregated_rating;comment:媒体综合评分"`
	RatingCount      *int64    `gorm:"column:rating_count;comment:评分人数"`
}

func (IGDBRatingSample) TableName() string { return "igdb_ratings_raw" }
