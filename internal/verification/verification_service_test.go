package verification

import (
	"context"
	"testing"

	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/testutil"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testAdmin = audit.Actor{ID: 1, Email: "admin@alumnet.example", Role: model.RoleAdmin, IP: "10.0.0.1"}

type sentMail struct {
	kind, to, text string
}

type fakeNotifier struct {
	sent []sentMail
}

func (n *fakeNotifier) SendVerificationApproved(toEmail, name, notes string) error {
	n.sent = append(n.sent, sentMail{"approved", toEmail, notes})
	return nil
}

func (n *fakeNotifier) SendVerificationRejected(toEmail, name, reason string) error {
	n.sent = append(n.sent, sentMail{"rejected", toEmail, reason})
	return nil
}

func newTestService(t *testing.T) (*VerificationService, *gorm.DB, *fakeNotifier) {
	db := testutil.NewDB(t)
	notifier := &fakeNotifier{}
	svc := NewVerificationService(db, users.NewUserRepository(db), NewQueueRepository(db), audit.NewActivityRepository(db), notifier)
	return svc, db, notifier
}

var claim = model.ClaimDetails{Name: "Asha Rao", RollNo: "CS20-041", Batch: "2020", Branch: "CSE"}

func TestSubmitClaim(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "Asha", "asha@example.com", testutil.WithRole(model.RoleAlumni))

	_, err := svc.SubmitClaim(ctx, user.ID, model.ClaimDetails{Name: "Asha", Batch: " "})
	assert.ErrorIs(t, err, ErrClaimIncomplete)

	item, err := svc.SubmitClaim(ctx, user.ID, claim)
	require.NoError(t, err)
	assert.Equal(t, "CSE", item.Details.Branch)

	resubmitted := claim
	resubmitted.Branch = "ECE"
	item, err = svc.SubmitClaim(ctx, user.ID, resubmitted)
	require.NoError(t, err)
	assert.Equal(t, "ECE", item.Details.Branch)

	var count int64
	require.NoError(t, db.Model(&model.VerificationQueueItem{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	verified := testutil.CreateUser(t, db, "V", "v@example.com", testutil.WithVerifiedAlumni())
	_, err = svc.SubmitClaim(ctx, verified.ID, claim)
	assert.ErrorIs(t, err, ErrAlreadyVerified)

	_, err = svc.SubmitClaim(ctx, 999, claim)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApproveVerification(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "Asha", "asha@example.com", testutil.WithRole(model.RoleAlumni))
	_, err := svc.SubmitClaim(ctx, user.ID, claim)
	require.NoError(t, err)

	require.NoError(t, svc.ApproveVerification(ctx, testAdmin, user.ID, ""))

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.VerifiedAlumni)

	items, pagination, err := svc.GetVerificationQueue(ctx, common.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.EqualValues(t, 0, pagination.Total)
	assert.Equal(t, []sentMail{{"approved", "asha@example.com", ""}}, notifier.sent)

	err = svc.ApproveVerification(ctx, testAdmin, user.ID, "")
	assert.ErrorIs(t, err, ErrRequestNotFound)
}

func TestRejectVerificationScenario(t *testing.T) {
	svc, db, notifier := newTestService(t)
	ctx := context.Background()
	user := testutil.CreateUser(t, db, "Uma", "uma@example.com", testutil.WithRole(model.RoleAlumni))
	require.NoError(t, db.Create(&model.VerificationQueueItem{
		UserID:  user.ID,
		Details: model.ClaimDetails{Batch: "2020", Branch: "CSE"},
	}).Error)

	err := svc.RejectVerification(ctx, testAdmin, user.ID, "  ")
	assert.ErrorIs(t, err, ErrReasonRequired)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, svc.RejectVerification(ctx, testAdmin, user.ID, "mismatched roll number"))

	var items int64
	require.NoError(t, db.Model(&model.VerificationQueueItem{}).Count(&items).Error)
	assert.EqualValues(t, 0, items)

	var reloaded model.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.False(t, reloaded.VerifiedAlumni)

	var activities []model.AdminActivity
	require.NoError(t, db.Find(&activities).Error)
	require.Len(t, activities, 1)
	assert.Equal(t, audit.ActionRejectVerification, activities[0].Action)
	assert.Equal(t, "mismatched roll number", activities[0].Details["reason"])
	assert.Equal(t, testAdmin.Email, activities[0].AdminEmail)
	assert.Equal(t, testAdmin.IP, activities[0].IP)

	assert.Equal(t, []sentMail{{"rejected", "uma@example.com", "mismatched roll number"}}, notifier.sent)
}

func TestVerificationQueueAndStats(t *testing.T) {
	svc, db, _ := newTestService(t)
	ctx := context.Background()

	for i, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		user := testutil.CreateUser(t, db, email, email, testutil.WithRole(model.RoleAlumni))
		details := claim
		details.RollNo = string(rune('A' + i))
		_, err := svc.SubmitClaim(ctx, user.ID, details)
		require.NoError(t, err)
	}
	testutil.CreateUser(t, db, "V", "v@example.com", testutil.WithRole(model.RoleAlumni), testutil.WithVerifiedAlumni())
	testutil.CreateUser(t, db, "S", "s@example.com")

	items, pagination, err := svc.GetVerificationQueue(ctx, common.PageRequest{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, common.Pagination{Total: 3, Page: 1, Limit: 2, TotalPages: 2}, pagination)
	require.NotNil(t, items[0].User)

	stats, err := svc.GetVerificationStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Stats{PendingVerifications: 3, VerifiedAlumni: 1, UnverifiedAlumni: 3}, stats)
}
