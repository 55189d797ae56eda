package repository

import (
	"context"

	"GameObservatory/internal/model"

	"gorm.io/gorm"
)

// DiscoveryRepository 发现运行审计日志，只追加不修改
type DiscoveryRepository interface {
	Log(ctx context.Context, record *model.DiscoveryHistory) error
	List(ctx context.Context, limit int) ([]*model.DiscoveryHistory, error)
}

type discoveryRepository struct {
	db *gorm.DB
}

func NewDiscoveryRepository(db *gorm.DB) DiscoveryRepository {
	return &discoveryRepository{db: db}
}

func (r *discoveryRepository) Log(ctx context.Context, record *model.DiscoveryHistory) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *discoveryRepository) List(ctx context.Context, limit int) ([]*model.DiscoveryHistory, error) {
	var records []*model.DiscoveryHistory
	q := r.db.WithContext(ctx).Order("discovery_date DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&records).Error
	return records, err
}
