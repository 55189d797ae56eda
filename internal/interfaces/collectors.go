package interfaces

import (
	"context"

	"GameObservatory/internal/model"
)

// 采集器接口：核心流水线只依赖这些契约，不关心数据是HTTP轮询还是批量文件来的。
// 服务层注入实现，测试注入假实现。

// SteamCollector Steam 在线人数与商店元数据
type SteamCollector interface {
	GetPlayerCount(ctx context.Context, appID int64) (int64, error)
	GetAppDetails(ctx context.Context, appID int64) (*model.SteamAppDetails, error)
	GetAppTags(ctx context.Context, appID int64) (map[string]int, error)
}

// TwitchCollector Twitch 观看数据与热门榜
type TwitchCollector interface {
	GetGameViewership(ctx context.Context, twitchGameID string) (*model.TwitchViewership, error)
	TopGames(ctx context.Context, limit int) ([]model.TwitchGame, error)
}

// IGDBCollector IGDB 发现、元数据补全与评分
type IGDBCollector interface {
	DiscoverPopular(ctx context.Context, limit int) ([]model.IGDBGame, error)
	DiscoverRecent(ctx context.Context, limit, daysBack int) ([]model.IGDBGame, error)
	DiscoverUpcoming(ctx context.Context, limit, daysAhead int) ([]model.IGDBGame, error)
	DiscoverTopRated(ctx context.Context, limit, minRatings int) ([]model.IGDBGame, error)
	GetGameMetadata(ctx context.Context, igdbID int64) (*model.IGDBGame, error)
	GetExternalIDs(ctx context.Context, igdbID int64) (map[string]string, error)
	FindIGDBIDBySteam(ctx context.Context, steamAppID int64) (int64, error)
	FindIGDBIDByTwitch(ctx context.Context, twitchGameID string) (int64, error)
	GetGameRatings(ctx context.Context, igdbID int64) (*model.IGDBGame, error)
}
