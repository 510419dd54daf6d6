package users

import (
	"context"

	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	First(ctx context.Context, query any, args ...any) (*model.User, error)
	Find(ctx context.Context, query any, args ...any) ([]*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Updates(ctx context.Context, columns map[string]interface{}, query any, args ...any) (int64, error)
	Count(ctx context.Context, query any, args ...any) (int64, error)
}

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) First(ctx context.Context, query any, args ...any) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Find(ctx context.Context, query any, args ...any) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).Where(query, args...).Order("id").Find(&users).Error
	return users, err
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) Updates(ctx context.Context, columns map[string]interface{}, query any, args ...any) (int64, error) {
	ret := r.db.WithContext(ctx).Model(&model.User{}).Where(query, args...).Updates(columns)
	return ret.RowsAffected, ret.Error
}

func (r *userRepository) Count(ctx context.Context, query any, args ...any) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where(query, args...).Count(&count).Error
	return count, err
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return NewUserRepository(tx)
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db}
}
