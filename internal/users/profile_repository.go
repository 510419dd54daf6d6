package users

import (
	"context"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProfileRepository interface {
	WithTx(tx *gorm.DB) ProfileRepository
	GetByUserID(ctx context.Context, userID uint) (*model.Profile, error)
	Upsert(ctx context.Context, profile *model.Profile) error
}

type profileRepository struct {
	db *gorm.DB
}

func (r *profileRepository) WithTx(tx *gorm.DB) ProfileRepository {
	return NewProfileRepository(tx)
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID uint) (*model.Profile, error) {
	var profile model.Profile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *profileRepository) Upsert(ctx context.Context, profile *model.Profile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"batch", "branch", "campus", "company", "designation", "skills", "linkedin", "github", "website", "bio", "updated_at"}),
		}).
		Create(profile).Error
}

func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db}
}
