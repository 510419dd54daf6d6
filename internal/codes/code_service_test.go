package codes

import (
	"context"
	"testing"
	"time"

	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/testutil"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/internal/verification"
	"github.com/khanghh/alumnet/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testAdmin = audit.Actor{ID: 7, Email: "admin@alumnet.example", Role: model.RoleAdmin, IP: "10.0.0.1"}

func setClock(t *testing.T, now time.Time) *time.Time {
	current := now
	orig := nowFunc
	nowFunc = func() time.Time { return current }
	t.Cleanup(func() { nowFunc = orig })
	return &current
}

func newTestService(t *testing.T) (*CodeService, *gorm.DB) {
	db := testutil.NewDB(t)
	svc := NewCodeService(db, NewCodeRepository(db), users.NewUserRepository(db), verification.NewQueueRepository(db), audit.NewActivityRepository(db))
	return svc, db
}

func TestGenerateCodesCount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	setClock(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))

	for _, count := range []int{0, 6, -1} {
		_, err := svc.GenerateCodes(ctx, testAdmin, count)
		assert.ErrorIs(t, err, ErrInvalidCount, "count %d", count)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}

	codes, err := svc.GenerateCodes(ctx, testAdmin, 3)
	require.NoError(t, err)
	require.Len(t, codes, 3)
	seen := map[string]bool{}
	for _, code := range codes {
		assert.Len(t, code.Code, 10)
		assert.Equal(t, testAdmin.ID, code.GeneratedBy)
		assert.Equal(t, 7*24*time.Hour, code.ExpiresAt.Sub(code.CreatedAt))
		assert.False(t, seen[code.Code])
		seen[code.Code] = true
	}
}

func TestGenerateCodesRateLimit(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	clock := setClock(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))

	for i := 0; i < 5; i++ {
		_, err := svc.GenerateCodes(ctx, testAdmin, 1)
		require.NoError(t, err)
		*clock = clock.Add(5 * time.Second)
	}

	_, err := svc.GenerateCodes(ctx, testAdmin, 1)
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, 429, apperr.StatusCode(err))

	other := audit.Actor{ID: 8, Email: "other@alumnet.example", Role: model.RoleAdmin}
	_, err = svc.GenerateCodes(ctx, other, 5)
	assert.NoError(t, err)

	var total int64
	require.NoError(t, db.Model(&model.VerificationCode{}).Where("generated_by = ?", testAdmin.ID).Count(&total).Error)
	assert.EqualValues(t, 5, total)
}

func TestGenerateCodesWindowScenario(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	clock := setClock(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))

	_, err := svc.GenerateCodes(ctx, testAdmin, 5)
	require.NoError(t, err)

	*clock = clock.Add(30 * time.Second)
	_, err = svc.GenerateCodes(ctx, testAdmin, 1)
	require.ErrorIs(t, err, ErrRateLimited)

	*clock = clock.Add(30 * time.Second)
	codes, err := svc.GenerateCodes(ctx, testAdmin, 1)
	require.NoError(t, err)
	assert.Len(t, codes, 1)
}

func TestGetAllCodesPartitions(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)
	setClock(t, now)

	usedBy := uint(3)
	fixtures := []*model.VerificationCode{
		{Code: "ACTIVE0001", GeneratedBy: 1, ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(-time.Hour)},
		{Code: "ACTIVE0002", GeneratedBy: 1, ExpiresAt: now.Add(time.Minute), CreatedAt: now.Add(-2 * time.Hour)},
		{Code: "USED000001", GeneratedBy: 1, IsUsed: true, UsedBy: &usedBy, ExpiresAt: now.Add(time.Hour), CreatedAt: now.Add(-3 * time.Hour)},
		{Code: "USED000002", GeneratedBy: 1, IsUsed: true, UsedBy: &usedBy, ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-8 * 24 * time.Hour)},
		{Code: "EXPIRED001", GeneratedBy: 1, ExpiresAt: now.Add(-time.Hour), CreatedAt: now.Add(-8 * 24 * time.Hour)},
	}
	require.NoError(t, db.Create(fixtures).Error)

	collect := func(status model.CodeStatus) []string {
		codes, pagination, err := svc.GetAllCodes(ctx, status, common.PageRequest{Limit: 100})
		require.NoError(t, err)
		assert.EqualValues(t, len(codes), pagination.Total)
		var values []string
		for _, c := range codes {
			values = append(values, c.Code)
			if status != model.CodeStatusAll {
				assert.Equal(t, status, c.Status(now))
			}
		}
		return values
	}

	active := collect(model.CodeStatusActive)
	used := collect(model.CodeStatusUsed)
	expired := collect(model.CodeStatusExpired)
	all := collect(model.CodeStatusAll)

	assert.ElementsMatch(t, []string{"ACTIVE0001", "ACTIVE0002"}, active)
	assert.ElementsMatch(t, []string{"USED000001", "USED000002"}, used)
	assert.ElementsMatch(t, []string{"EXPIRED001"}, expired)
	assert.ElementsMatch(t, all, append(append(active, used...), expired...))

	_, _, err := svc.GetAllCodes(ctx, "stale", common.PageRequest{})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	deleted, err := svc.DeleteExpiredCodes(ctx, testAdmin)
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)
	assert.Empty(t, collect(model.CodeStatusExpired))
	assert.Len(t, collect(model.CodeStatusUsed), 2)
}

func TestRedeemCode(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	clock := setClock(t, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))

	user := testutil.CreateUser(t, db, "Asha", "asha@example.com", testutil.WithRole(model.RoleAlumni))
	require.NoError(t, db.Create(&model.VerificationQueueItem{UserID: user.ID, Details: model.ClaimDetails{Batch: "2020", Branch: "CSE"}}).Error)

	codes, err := svc.GenerateCodes(ctx, testAdmin, 2)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.RedeemCode(ctx, user.ID, "SHORT"), ErrCodeInvalid)
	assert.ErrorIs(t, svc.RedeemCode(ctx, user.ID, "ZZZZZZZZZZ"), ErrCodeInvalid)

	require.NoError(t, svc.RedeemCode(ctx, user.ID, " "+codes[0].Code+" "))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.VerifiedAlumni)

	var queued int64
	require.NoError(t, db.Model(&model.VerificationQueueItem{}).Count(&queued).Error)
	assert.EqualValues(t, 0, queued)

	used, _, err := svc.GetAllCodes(ctx, model.CodeStatusUsed, common.PageRequest{})
	require.NoError(t, err)
	require.Len(t, used, 1)
	require.NotNil(t, used[0].UsedBy)
	assert.Equal(t, user.ID, *used[0].UsedBy)

	assert.ErrorIs(t, svc.RedeemCode(ctx, user.ID, codes[1].Code), ErrAlreadyVerified)

	admin := testutil.CreateUser(t, db, "Admin", "admin@alumnet.example", testutil.WithRole(model.RoleAdmin))
	err = svc.RedeemCode(ctx, admin.ID, codes[1].Code)
	assert.ErrorIs(t, err, ErrAdminNotEligible)
	assert.Equal(t, 403, apperr.StatusCode(err))
	var adminUser model.User
	require.NoError(t, db.First(&adminUser, admin.ID).Error)
	assert.False(t, adminUser.VerifiedAlumni)
	active, _, err := svc.GetAllCodes(ctx, model.CodeStatusActive, common.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, active, 1)

	other := testutil.CreateUser(t, db, "Ravi", "ravi@example.com")
	assert.ErrorIs(t, svc.RedeemCode(ctx, other.ID, codes[0].Code), ErrCodeInvalid)

	*clock = clock.Add(8 * 24 * time.Hour)
	assert.ErrorIs(t, svc.RedeemCode(ctx, other.ID, codes[1].Code), ErrCodeInvalid)
}
