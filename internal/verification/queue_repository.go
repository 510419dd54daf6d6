package verification

import (
	"context"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QueueRepository interface {
	WithTx(tx *gorm.DB) QueueRepository
	Upsert(ctx context.Context, item *model.VerificationQueueItem) error
	GetByUserID(ctx context.Context, userID uint) (*model.VerificationQueueItem, error)
	DeleteByUserID(ctx context.Context, userID uint) (int64, error)
	Find(ctx context.Context, offset, limit int) ([]*model.VerificationQueueItem, int64, error)
	Count(ctx context.Context) (int64, error)
}

type queueRepository struct {
	db *gorm.DB
}

func (r *queueRepository) WithTx(tx *gorm.DB) QueueRepository {
	return NewQueueRepository(tx)
}

// Upsert replaces the user's open claim, keeping at most one per user.
func (r *queueRepository) Upsert(ctx context.Context, item *model.VerificationQueueItem) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"details_name", "details_roll_no", "details_batch", "details_branch", "updated_at"}),
		}).
		Create(item).Error
}

func (r *queueRepository) GetByUserID(ctx context.Context, userID uint) (*model.VerificationQueueItem, error) {
	var item model.VerificationQueueItem
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *queueRepository) DeleteByUserID(ctx context.Context, userID uint) (int64, error) {
	ret := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.VerificationQueueItem{})
	return ret.RowsAffected, ret.Error
}

// Find lists open claims newest first with the claiming user attached.
func (r *queueRepository) Find(ctx context.Context, offset, limit int) ([]*model.VerificationQueueItem, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.VerificationQueueItem{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*model.VerificationQueueItem
	err := r.db.WithContext(ctx).
		Joins("User").
		Order("verification_queue.created_at DESC, verification_queue.id DESC").
		Offset(offset).Limit(limit).
		Find(&items).Error
	return items, total, err
}

func (r *queueRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VerificationQueueItem{}).Count(&count).Error
	return count, err
}

func NewQueueRepository(db *gorm.DB) QueueRepository {
	return &queueRepository{db}
}
