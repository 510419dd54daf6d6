package codes

import (
	"context"
	"time"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

type CodeRepository interface {
	WithTx(tx *gorm.DB) CodeRepository
	Create(ctx context.Context, code *model.VerificationCode) error
	CountGeneratedSince(ctx context.Context, adminID uint, since time.Time) (int64, error)
	Find(ctx context.Context, status model.CodeStatus, now time.Time, offset, limit int) ([]*model.VerificationCode, int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	MarkUsed(ctx context.Context, code string, userID uint, now time.Time) (int64, error)
}

type codeRepository struct {
	db *gorm.DB
}

func (r *codeRepository) WithTx(tx *gorm.DB) CodeRepository {
	return NewCodeRepository(tx)
}

func (r *codeRepository) Create(ctx context.Context, code *model.VerificationCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *codeRepository) CountGeneratedSince(ctx context.Context, adminID uint, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.VerificationCode{}).
		Where("generated_by = ? AND created_at > ?", adminID, since).
		Count(&count).Error
	return count, err
}

// scopeStatus restricts a query to one status partition. Every code falls
// into exactly one of active, used and expired.
func scopeStatus(status model.CodeStatus, now time.Time) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch status {
		case model.CodeStatusActive:
			return db.Where("is_used = ? AND expires_at > ?", false, now)
		case model.CodeStatusUsed:
			return db.Where("is_used = ?", true)
		case model.CodeStatusExpired:
			return db.Where("is_used = ? AND expires_at <= ?", false, now)
		default:
			return db
		}
	}
}

func (r *codeRepository) Find(ctx context.Context, status model.CodeStatus, now time.Time, offset, limit int) ([]*model.VerificationCode, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.VerificationCode{}).
		Scopes(scopeStatus(status, now)).
		Session(&gorm.Session{})
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var codes []*model.VerificationCode
	err := tx.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&codes).Error
	return codes, total, err
}

func (r *codeRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).
		Scopes(scopeStatus(model.CodeStatusExpired, now)).
		Delete(&model.VerificationCode{})
	return ret.RowsAffected, ret.Error
}

// MarkUsed consumes an active code. It affects no rows when the code is
// unknown, used or expired.
func (r *codeRepository) MarkUsed(ctx context.Context, code string, userID uint, now time.Time) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.VerificationCode{}).
		Where("code = ?", code).
		Scopes(scopeStatus(model.CodeStatusActive, now)).
		Updates(map[string]interface{}{
			model.ColCodeIsUsed: true,
			model.ColCodeUsedBy: userID,
			model.ColCodeUsedAt: now,
		})
	return ret.RowsAffected, ret.Error
}

func NewCodeRepository(db *gorm.DB) CodeRepository {
	return &codeRepository{db}
}
