package model

import (
	"time"

	"gorm.io/datatypes"
)

// PlatformType 平台类型枚举
type PlatformType string

const (
	PlatformSteam  PlatformType = "steam"
	PlatformTwitch PlatformType = "twitch"
	PlatformIGDB   PlatformType = "igdb"
)

// GameMetadata 游戏身份主表：以 IGDB ID 为全平台统一主键，一个游戏一行。
// 各平台外键列可空；首次发现时创建，之后只更新不删除，is_active=false 做软下线。
type GameMetadata struct {
	IGDBID   int64  `gorm:"column:igdb_id;primaryKey;comment:IGDB ID，全平台统一主键，分配后不变"`
	GameName string `gorm:"column:game_name;type:varchar(256);not null;comment:规范游戏名"`
	Slug     string `gorm:"column:slug;type:varchar(256);comment:IGDB slug"`

	// 各平台外键（均可空）
	SteamAppID       *int64  `gorm:"column:steam_app_id;index:idx_game_metadata_steam;comment:Steam应用ID"`
	TwitchGameID     *string `gorm:"column:twitch_game_id;type:varchar(64);index:idx_game_metadata_twitch;comment:Twitch游戏ID"`
	YoutubeChannelID *string `gorm:"column:youtube_channel_id;type:varchar(64);comment:YouTube频道ID"`
	EpicID           *string `gorm:"column:epic_id;type:varchar(64);comment:Epic商店ID"`
	GogID            *string `gorm:"column:gog_id;type:varchar(64);comment:GOG商店ID"`

	// 静态元数据（发现/补全时写入，可按需刷新）
	IGDBSummary      string     `gorm:"column:igdb_summary;type:text;comment:IGDB简介"`
	FirstReleaseDate *time.Time `gorm:"column:first_release_date;type:timestamp;comment:首发时间"`
	CoverURL         string     `gorm:"column:cover_url;type:varchar(512);comment:封面图URL"`

	// Steam商店/SteamSpy补充元数据（仅steam_app_id已解析的游戏）
	SteamDescription string         `gorm:"column:steam_description;type:text;comment:Steam商店简介"`
	SteamRequiredAge int            `gorm:"column:steam_required_age;comment:Steam年龄分级"`
	SteamTags        datatypes.JSON `gorm:"column:steam_tags;comment:SteamSpy标签及票数"`

	// 分类属性（结构化JSON列，读取时不需要二次解析字符串）
	Genres     datatypes.JSON `gorm:"column:genres;comment:类型列表"`
	Themes     datatypes.JSON `gorm:"column:themes;comment:题材列表"`
	Platforms  datatypes.JSON `gorm:"column:platforms;comment:可玩平台列表"`
	GameModes  datatypes.JSON `gorm:"column:game_modes;comment:游戏模式列表"`
	Developers datatypes.JSON `gorm:"column:developers;comment:开发商列表"`
	Publishers datatypes.JSON `gorm:"column:publishers;comment:发行商列表"`
	Websites   datatypes.JSON `gorm:"column:websites;comment:分类网站链接"`

	// 追踪字段
	// 布尔列不挂default标签：gorm对带default的零值字段在INSERT时会省略，
	// false会被数据库默认值顶回true，软下线与关闭追踪就写不进去了
	DiscoverySource string    `gorm:"column:discovery_source;type:varchar(64);comment:发现来源"`
	DiscoveryDate   time.Time `gorm:"column:discovery_date;type:timestamp;comment:首次发现时间"`
	LastUpdated     time.Time `gorm:"column:last_updated;type:timestamp;comment:最近一次元数据刷新时间"`
	IsActive        bool      `gorm:"column:is_active;type:boolean;index:idx_game_metadata_active;comment:是否活跃（false=停止采集但保留历史）"`
	TrackSteam      bool      `gorm:"column:track_steam;type:boolean;comment:是否采集Steam指标"`
	TrackTwitch     bool      `gorm:"column:track_twitch;type:boolean;comment:是否采集Twitch指标"`
}

func (GameMetadata) TableName() string { return "game_metadata" }

// GameListEntry 发现队列：把"发现"与"元数据补全"解耦的轻量表
type GameListEntry struct {
	IGDBID            int64     `gorm:"column:igdb_id;primaryKey"`
	GameName          string    `gorm:"column:game_name;type:varchar(256);not null"`
	MetadataCollected bool      `gorm:"column:metadata_collected;type:boolean;default:false;index:idx_game_list_metadata_collected"`
	DiscoveredAt      time.Time `gorm:"column:discovered_at;type:timestamp;not null"`
	DiscoverySource   string    `gorm:"column:discovery_source;type:varchar(64);not null;index:idx_game_list_source"`
	DiscoveryRank     int       `gorm:"column:discovery_rank;type:int"`
}

func (GameListEntry) TableName() string { return "game_list" }
