package bans

import (
	"context"
	"time"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

type BanRepository interface {
	WithTx(tx *gorm.DB) BanRepository
	Create(ctx context.Context, ban *model.Ban) error
	DeactivateAll(ctx context.Context, userID uint, unbannedBy *uint, notes string, at time.Time) (int64, error)
	FindActive(ctx context.Context, offset, limit int) ([]*model.Ban, int64, error)
	FindByUser(ctx context.Context, userID uint) ([]*model.Ban, error)
	CountActive(ctx context.Context, now time.Time) (int64, error)
}

type banRepository struct {
	db *gorm.DB
}

func (r *banRepository) WithTx(tx *gorm.DB) BanRepository {
	return NewBanRepository(tx)
}

func (r *banRepository) Create(ctx context.Context, ban *model.Ban) error {
	return r.db.WithContext(ctx).Create(ban).Error
}

// DeactivateAll closes every active ban of the user.
func (r *banRepository) DeactivateAll(ctx context.Context, userID uint, unbannedBy *uint, notes string, at time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.Ban{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Updates(map[string]interface{}{
			model.ColBanIsActive:   false,
			model.ColBanUnbannedAt: at,
			model.ColBanUnbannedBy: unbannedBy,
			model.ColBanUnbanNotes: notes,
		})
	return ret.RowsAffected, ret.Error
}

// FindActive lists active bans newest first. Bans whose user no longer exists
// are left out by the inner join.
func (r *banRepository) FindActive(ctx context.Context, offset, limit int) ([]*model.Ban, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Ban{}).
		InnerJoins("User").
		Where("bans.is_active = ?", true).
		Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var bans []*model.Ban
	err := tx.Order("bans.created_at DESC, bans.id DESC").Offset(offset).Limit(limit).Find(&bans).Error
	return bans, total, err
}

func (r *banRepository) FindByUser(ctx context.Context, userID uint) ([]*model.Ban, error) {
	var bans []*model.Ban
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&bans).Error
	return bans, err
}

// CountActive counts bans still in force at now.
func (r *banRepository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Ban{}).
		Where("is_active = ? AND (ban_expires_at IS NULL OR ban_expires_at > ?)", true, now).
		Count(&count).Error
	return count, err
}

func NewBanRepository(db *gorm.DB) BanRepository {
	return &banRepository{db}
}
