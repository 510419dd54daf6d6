package audit

import (
	"context"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	WithTx(tx *gorm.DB) ActivityRepository
	Create(ctx context.Context, activity *model.AdminActivity) error
	Find(ctx context.Context, offset, limit int, query any, args ...any) ([]*model.AdminActivity, int64, error)
	Recent(ctx context.Context, limit int) ([]*model.AdminActivity, error)
}

type activityRepository struct {
	db *gorm.DB
}

func (r *activityRepository) WithTx(tx *gorm.DB) ActivityRepository {
	return NewActivityRepository(tx)
}

func (r *activityRepository) Create(ctx context.Context, activity *model.AdminActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// Find pages through activities newest first. A nil query matches everything.
func (r *activityRepository) Find(ctx context.Context, offset, limit int, query any, args ...any) ([]*model.AdminActivity, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.AdminActivity{})
	if query != nil {
		tx = tx.Where(query, args...)
	}
	tx = tx.Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var activities []*model.AdminActivity
	err := tx.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&activities).Error
	return activities, total, err
}

func (r *activityRepository) Recent(ctx context.Context, limit int) ([]*model.AdminActivity, error) {
	var activities []*model.AdminActivity
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit).Find(&activities).Error
	return activities, err
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{
		db: db,
	}
}
