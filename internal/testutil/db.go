// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/khanghh/alumnet/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated in-memory database private to the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		TranslateError:                           true,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, model.AutoMigrate(db))
	return db
}

type UserOption func(*model.User)

func WithRole(role model.Role) UserOption {
	return func(u *model.User) { u.Role = role }
}

func WithVerifiedAlumni() UserOption {
	return func(u *model.User) { u.VerifiedAlumni = true }
}

// CreateUser inserts a user with the given email.
func CreateUser(t *testing.T, db *gorm.DB, name, email string, opts ...UserOption) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    email,
		Password: "x",
		Role:     model.RoleStudent,
	}
	for _, opt := range opts {
		opt(user)
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
