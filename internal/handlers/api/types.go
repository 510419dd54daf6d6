package api

import (
	"context"

	"github.com/khanghh/alumnet/internal/alumni"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/auth"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/dashboard"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/internal/verification"
	"github.com/khanghh/alumnet/model"
)

type AuthService interface {
	Login(ctx context.Context, email, password, ip string, requireAdmin bool) (*auth.Session, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.Session, error)
	Logout(ctx context.Context, refreshToken string) error
}

type UserService interface {
	GetUserByID(ctx context.Context, userID uint) (*model.User, error)
	GetProfile(ctx context.Context, userID uint) (*model.Profile, error)
	RegisterUser(ctx context.Context, opts users.CreateUserOptions) (*model.User, error)
	CompleteProfile(ctx context.Context, userID uint, details users.ProfileDetails) (*model.Profile, error)
	ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error
}

type BanService interface {
	BanUser(ctx context.Context, actor audit.Actor, userID uint, duration model.BanDuration, reason string) (*model.Ban, error)
	UnbanUser(ctx context.Context, actor audit.Actor, userID uint, notes string) error
	GetBannedUsers(ctx context.Context, page common.PageRequest) ([]*model.Ban, common.Pagination, error)
	GetUserBanHistory(ctx context.Context, userID uint) ([]*model.Ban, error)
}

type VerificationService interface {
	SubmitClaim(ctx context.Context, userID uint, details model.ClaimDetails) (*model.VerificationQueueItem, error)
	GetVerificationQueue(ctx context.Context, page common.PageRequest) ([]*model.VerificationQueueItem, common.Pagination, error)
	ApproveVerification(ctx context.Context, actor audit.Actor, userID uint, notes string) error
	RejectVerification(ctx context.Context, actor audit.Actor, userID uint, reason string) error
	GetVerificationStats(ctx context.Context) (*verification.Stats, error)
}

type AlumniService interface {
	GetAlumniBatches(ctx context.Context) ([]string, error)
	GetAlumniByBatch(ctx context.Context, batch string, limit, offset int) ([]*model.AlumniRecord, int64, error)
	SearchAlumniDatabase(ctx context.Context, q alumni.SearchQuery) ([]*model.AlumniRecord, error)
}

type CodeService interface {
	GenerateCodes(ctx context.Context, actor audit.Actor, count int) ([]*model.VerificationCode, error)
	GetAllCodes(ctx context.Context, status model.CodeStatus, page common.PageRequest) ([]*model.VerificationCode, common.Pagination, error)
	DeleteExpiredCodes(ctx context.Context, actor audit.Actor) (int64, error)
	RedeemCode(ctx context.Context, userID uint, code string) error
}

type DashboardService interface {
	GetStats(ctx context.Context) (*dashboard.Stats, error)
	GetActivities(ctx context.Context, action string, page common.PageRequest) ([]*model.AdminActivity, common.Pagination, error)
}
