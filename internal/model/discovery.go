package model

import "time"

// DiscoveryHistory 发现任务审计日志：只追加，入库后不再修改
type DiscoveryHistory struct {
	ID                   uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	RunID                string    `gorm:"column:run_id;type:varchar(64);not null;comment:本次发现任务的UUID"`
	DiscoveryDate        time.Time `gorm:"column:discovery_date;type:timestamp;not null"`
	DiscoverySource      string    `gorm:"column:discovery_source;type:varchar(64);not null;comment:来源：igdb-popular/igdb-recent/twitch-trending等"`
	GamesDiscovered      int       `gorm:"column:games_discovered;comment:新发现的游戏数"`
	GamesUpdated         int       `gorm:"column:games_updated;comment:更新的已有游戏数"`
	ExecutionTimeSeconds float64   `gorm:"column:execution_time_seconds;comment:执行耗时（秒）"`
	Notes                string    `gorm:"column:notes;type:text"`
}

func (DiscoveryHistory) TableName() string { return "discovery_history" }
