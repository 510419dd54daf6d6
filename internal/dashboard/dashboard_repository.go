package dashboard

import (
	"context"
	"time"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

type NewsletterTotals struct {
	Total     int64 `json:"total"`
	Views     int64 `json:"totalViews"`
	Downloads int64 `json:"totalDownloads"`
}

// StatsRepository runs the read only aggregates that no domain repository owns.
type StatsRepository interface {
	CountUsersByRole(ctx context.Context) (map[model.Role]int64, error)
	CountRegisteredSince(ctx context.Context, since time.Time) (int64, error)
	NewsletterTotals(ctx context.Context) (*NewsletterTotals, error)
}

type statsRepository struct {
	db *gorm.DB
}

func (r *statsRepository) CountUsersByRole(ctx context.Context) (map[model.Role]int64, error) {
	var rows []struct {
		Role  model.Role
		Count int64
	}
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("role, COUNT(*) AS count").
		Group("role").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := map[model.Role]int64{
		model.RoleStudent: 0,
		model.RoleAlumni:  0,
		model.RoleAdmin:   0,
	}
	for _, row := range rows {
		counts[row.Role] = row.Count
	}
	return counts, nil
}

func (r *statsRepository) CountRegisteredSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

// NewsletterTotals sums the counters of newsletters that are still visible.
func (r *statsRepository) NewsletterTotals(ctx context.Context) (*NewsletterTotals, error) {
	var totals NewsletterTotals
	err := r.db.WithContext(ctx).Model(&model.Newsletter{}).
		Select("COUNT(*) AS total, COALESCE(SUM(views), 0) AS views, COALESCE(SUM(downloads), 0) AS downloads").
		Where("is_active = ?", true).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}
	return &totals, nil
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}
