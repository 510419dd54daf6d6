package moderation

import (
	"context"
	"time"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

// ListFilter narrows a content listing. Zero values match everything.
type ListFilter struct {
	Status          model.ReviewStatus
	OwnerID         uint
	IncludeInactive bool
	// StartsFrom keeps scheduled items starting at or after it, earliest first.
	StartsFrom time.Time
}

type ContentRepository[T any] interface {
	WithTx(tx *gorm.DB) ContentRepository[T]
	Create(ctx context.Context, item *T) error
	First(ctx context.Context, id uint) (*T, error)
	Find(ctx context.Context, filter ListFilter, offset, limit int) ([]*T, int64, error)
	Review(ctx context.Context, id uint, review model.Review) (int64, error)
	Deactivate(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error
	Increment(ctx context.Context, id uint, column string) (int64, error)
	CountByStatus(ctx context.Context) (map[model.ReviewStatus]int64, error)
}

type contentRepository[T any] struct {
	db   *gorm.DB
	kind Kind[T]
}

func (r *contentRepository[T]) WithTx(tx *gorm.DB) ContentRepository[T] {
	return NewContentRepository(tx, r.kind)
}

func (r *contentRepository[T]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *contentRepository[T]) First(ctx context.Context, id uint) (*T, error) {
	var item T
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *contentRepository[T]) Find(ctx context.Context, filter ListFilter, offset, limit int) ([]*T, int64, error) {
	tx := r.db.WithContext(ctx).Model(new(T))
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.OwnerID != 0 {
		tx = tx.Where(r.kind.OwnerColumn+" = ?", filter.OwnerID)
	}
	if r.kind.SoftDelete && !filter.IncludeInactive {
		tx = tx.Where("is_active = ?", true)
	}
	order := "created_at DESC, id DESC"
	if !filter.StartsFrom.IsZero() && r.kind.ScheduleColumn != "" {
		tx = tx.Where(r.kind.ScheduleColumn+" >= ?", filter.StartsFrom)
		order = r.kind.ScheduleColumn + " ASC, id ASC"
	}
	tx = tx.Session(&gorm.Session{})

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var items []*T
	err := tx.Order(order).Offset(offset).Limit(limit).Find(&items).Error
	return items, total, err
}

// Review moves a pending item to review.Status. It affects no rows when the
// item is missing or already reviewed.
func (r *contentRepository[T]) Review(ctx context.Context, id uint, review model.Review) (int64, error) {
	updates := map[string]interface{}{
		model.ColStatus:     review.Status,
		model.ColReviewedBy: review.ReviewedBy,
		model.ColReviewedAt: review.ReviewedAt,
	}
	if review.Status == model.StatusRejected {
		updates[model.ColRejectionReason] = review.RejectionReason
	}
	ret := r.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND status = ?", id, model.StatusPending).
		Updates(updates)
	return ret.RowsAffected, ret.Error
}

func (r *contentRepository[T]) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(new(T)).
		Where("id = ?", id).
		Update(model.ColIsActive, false).Error
}

func (r *contentRepository[T]) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T)).Error
}

func (r *contentRepository[T]) Increment(ctx context.Context, id uint, column string) (int64, error) {
	ret := r.db.WithContext(ctx).Model(new(T)).
		Where("id = ? AND is_active = ?", id, true).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	return ret.RowsAffected, ret.Error
}

func (r *contentRepository[T]) CountByStatus(ctx context.Context) (map[model.ReviewStatus]int64, error) {
	var rows []struct {
		Status model.ReviewStatus
		Count  int64
	}
	tx := r.db.WithContext(ctx).Model(new(T)).Select("status, COUNT(*) AS count")
	if r.kind.SoftDelete {
		tx = tx.Where("is_active = ?", true)
	}
	if err := tx.Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := map[model.ReviewStatus]int64{
		model.StatusPending:  0,
		model.StatusApproved: 0,
		model.StatusRejected: 0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func NewContentRepository[T any](db *gorm.DB, kind Kind[T]) ContentRepository[T] {
	return &contentRepository[T]{db: db, kind: kind}
}

func reviewedNow(status model.ReviewStatus, reviewer uint, reason string, now time.Time) model.Review {
	return model.Review{
		Status:          status,
		ReviewedBy:      &reviewer,
		ReviewedAt:      &now,
		RejectionReason: reason,
	}
}
