package repository

import (
	"context"
	"errors"
	"fmt"

	"GameObservatory/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GameRepository 游戏身份仓储：igdb_id 为统一主键，跨平台外键都挂在同一行上
type GameRepository interface {
	// Upsert 按 igdb_id 插入或整体替换可变字段；igdb_id 首次分配后不变
	Upsert(ctx context.Context, g *model.GameMetadata) error
	GetByIGDBID(ctx context.Context, igdbID int64) (*model.GameMetadata, error)
	GetBySteamAppID(ctx context.Context, appID int64) (*model.GameMetadata, error)
	GetByTwitchGameID(ctx context.Context, twitchGameID string) (*model.GameMetadata, error)
	// ActiveGamesFor 指定平台的采集工作清单：is_active + track_<platform> + 平台ID非空
	ActiveGamesFor(ctx context.Context, platform model.PlatformType) ([]*model.GameMetadata, error)
	// Deactivate 软下线：停止采集但保留全部历史
	Deactivate(ctx context.Context, igdbID int64) error
	ListGames(ctx context.Context, page, pageSize int) ([]*model.GameMetadata, int64, error)
	// ListAllGames 不分页全量读取，供导出层做全外连接，不受ListGames的页大小钳制
	ListAllGames(ctx context.Context) ([]*model.GameMetadata, error)

	// 发现队列
	InsertDiscovered(ctx context.Context, entries []*model.GameListEntry) (inserted int, skipped int, err error)
	ListNeedingMetadata(ctx context.Context, limit int) ([]*model.GameListEntry, error)
	MarkMetadataCollected(ctx context.Context, igdbID int64) error
}

type gameRepository struct {
	db *gorm.DB
}

func NewGameRepository(db *gorm.DB) GameRepository {
	return &gameRepository{db: db}
}

// gameMetadataMutableColumns Upsert 时以最新快照为准整体覆盖的列；igdb_id 与 discovery 字段除外
var gameMetadataMutableColumns = []string{
	"game_name", "slug",
	"steam_app_id", "twitch_game_id", "youtube_channel_id", "epic_id", "gog_id",
	"igdb_summary", "first_release_date", "cover_url",
	"steam_description", "steam_required_age", "steam_tags",
	"genres", "themes", "platforms", "game_modes", "developers", "publishers", "websites",
	"last_updated", "is_active", "track_steam", "track_twitch",
}

func (r *gameRepository) Upsert(ctx context.Context, g *model.GameMetadata) error {
	if g.IGDBID == 0 {
		return fmt.Errorf("upsert game_metadata 失败: igdb_id 不能为空")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "igdb_id"}},
		DoUpdates: clause.AssignmentColumns(gameMetadataMutableColumns),
	}).Create(g).Error
}

func (r *gameRepository) GetByIGDBID(ctx context.Context, igdbID int64) (*model.GameMetadata, error) {
	var g model.GameMetadata
	if err := r.db.WithContext(ctx).Where("igdb_id = ?", igdbID).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) GetBySteamAppID(ctx context.Context, appID int64) (*model.GameMetadata, error) {
	var g model.GameMetadata
	if err := r.db.WithContext(ctx).Where("steam_app_id = ?", appID).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) GetByTwitchGameID(ctx context.Context, twitchGameID string) (*model.GameMetadata, error) {
	var g model.GameMetadata
	if err := r.db.WithContext(ctx).Where("twitch_game_id = ?", twitchGameID).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *gameRepository) ActiveGamesFor(ctx context.Context, platform model.PlatformType) ([]*model.GameMetadata, error) {
	db := r.db.WithContext(ctx).Model(&model.GameMetadata{}).Where("is_active = ?", true)
	switch platform {
	case model.PlatformSteam:
		db = db.Where("track_steam = ? AND steam_app_id IS NOT NULL", true)
	case model.PlatformTwitch:
		db = db.Where("track_twitch = ? AND twitch_game_id IS NOT NULL", true)
	case model.PlatformIGDB:
		// IGDB 评分采集覆盖所有活跃游戏（igdb_id 即主键，必然存在）
	default:
		return nil, fmt.Errorf("未支持的平台: %s", platform)
	}
	var games []*model.GameMetadata
	if err := db.Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

func (r *gameRepository) Deactivate(ctx context.Context, igdbID int64) error {
	res := r.db.WithContext(ctx).Model(&model.GameMetadata{}).
		Where("igdb_id = ?", igdbID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *gameRepository) ListGames(ctx context.Context, page, pageSize int) ([]*model.GameMetadata, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	db := r.db.WithContext(ctx).Model(&model.GameMetadata{})
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var games []*model.GameMetadata
	if err := db.Order("game_name ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&games).Error; err != nil {
		return nil, 0, err
	}
	return games, total, nil
}

func (r *gameRepository) ListAllGames(ctx context.Context) ([]*model.GameMetadata, error) {
	var games []*model.GameMetadata
	if err := r.db.WithContext(ctx).Order("game_name ASC").Find(&games).Error; err != nil {
		return nil, err
	}
	return games, nil
}

// InsertDiscovered 发现队列为只追加语义：已存在的 igdb_id 跳过，不覆盖首次发现记录
func (r *gameRepository) InsertDiscovered(ctx context.Context, entries []*model.GameListEntry) (int, int, error) {
	inserted, skipped := 0, 0
	for _, e := range entries {
		err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "igdb_id"}},
			DoNothing: true,
		}).Create(e).Error
		if err != nil {
			return inserted, skipped, fmt.Errorf("写入 game_list 失败 (igdb_id=%d): %w", e.IGDBID, err)
		}
		// DoNothing 命中冲突时 RowsAffected 为 0，无法直接区分，这里再查一次确认归属
		var existing model.GameListEntry
		if err := r.db.WithContext(ctx).Where("igdb_id = ?", e.IGDBID).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return inserted, skipped, err
		}
		if existing.DiscoverySource == e.DiscoverySource && existing.DiscoveredAt.Equal(e.DiscoveredAt) {
			inserted++
		} else {
			skipped++
		}
	}
	return inserted, skipped, nil
}

func (r *gameRepository) ListNeedingMetadata(ctx context.Context, limit int) ([]*model.GameListEntry, error) {
	db := r.db.WithContext(ctx).Model(&model.GameListEntry{}).
		Where("metadata_collected = ?", false).
		Order("discovered_at ASC")
	if limit > 0 {
		db = db.Limit(limit)
	}
	var entries []*model.GameListEntry
	if err := db.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *gameRepository) MarkMetadataCollected(ctx context.Context, igdbID int64) error {
	return r.db.WithContext(ctx).Model(&model.GameListEntry{}).
		Where("igdb_id = ?", igdbID).
		Update("metadata_collected", true).Error
}
