package repository

import (
	"context"
	"time"

	"GameObservatory/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SampleRepository 原始样本仓储：追加写入，同键（timestamp+平台游戏ID）重复时后写覆盖
type SampleRepository interface {
	SaveSteamSamples(ctx context.Context, samples []*model.SteamRawSample) error
	SaveTwitchSamples(ctx context.Context, samples []*model.TwitchRawSample) error
	SaveIGDBSamples(ctx context.Context, samples []*model.IGDBRatingSample) error

	// 半开区间 [from, to) 读取，聚合引擎的唯一取数入口
	ListSteamBetween(ctx context.Context, from, to time.Time) ([]*model.SteamRawSample, error)
	ListTwitchBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchRawSample, error)
	ListIGDBBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingSample, error)

	// 保留策略删除：返回删除行数
	DeleteSteamBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteTwitchBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteIGDBBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sampleRepository struct {
	db *gorm.DB
}

func NewSampleRepository(db *gorm.DB) SampleRepository {
	return &sampleRepository{db: db}
}

func (r *sampleRepository) SaveSteamSamples(ctx context.Context, samples []*model.SteamRawSample) error {
	if len(samples) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "timestamp"}, {Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"game_name", "player_count"}),
	}).Create(samples).Error
}

func (r *sampleRepository) SaveTwitchSamples(ctx context.Context, samples []*model.TwitchRawSample) error {
	if len(samples) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "timestamp"}, {Name: "twitch_game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"game_name", "viewer_count", "channel_count"}),
	}).Create(samples).Error
}

func (r *sampleRepository) SaveIGDBSamples(ctx context.Context, samples []*model.IGDBRatingSample) error {
	if len(samples) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "timestamp"}, {Name: "igdb_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"game_name", "rating", "aggregated_rating", "rating_count"}),
	}).Create(samples).Error
}

func (r *sampleRepository) ListSteamBetween(ctx context.Context, from, to time.Time) ([]*model.SteamRawSample, error) {
	var samples []*model.SteamRawSample
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepository) ListTwitchBetween(ctx context.Context, from, to time.Time) ([]*model.TwitchRawSample, error) {
	var samples []*model.TwitchRawSample
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepository) ListIGDBBetween(ctx context.Context, from, to time.Time) ([]*model.IGDBRatingSample, error) {
	var samples []*model.IGDBRatingSample
	if err := r.db.WithContext(ctx).
		Where("timestamp >= ? AND timestamp < ?", from, to).
		Order("timestamp ASC").
		Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}

func (r *sampleRepository) DeleteSteamBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.SteamRawSample{})
	return res.RowsAffected, res.Error
}

func (r *sampleRepository) DeleteTwitchBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.TwitchRawSample{})
	return res.RowsAffected, res.Error
}

func (r *sampleRepository) DeleteIGDBBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&model.IGDBRatingSample{})
	return res.RowsAffected, res.Error
}
