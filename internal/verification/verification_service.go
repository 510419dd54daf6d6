package verification

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

type Notifier interface {
	SendVerificationApproved(toEmail, name, notes string) error
	SendVerificationRejected(toEmail, name, reason string) error
}

type Stats struct {
	PendingVerifications int64 `json:"pendingVerifications"`
	VerifiedAlumni       int64 `json:"verifiedAlumni"`
	UnverifiedAlumni     int64 `json:"unverifiedAlumni"`
}

type VerificationService struct {
	db           *gorm.DB
	userRepo     users.UserRepository
	queueRepo    QueueRepository
	activityRepo audit.ActivityRepository
	notifier     Notifier
}

// SubmitClaim opens a verification request for the user, replacing any
// request the user already has in the queue.
func (s *VerificationService) SubmitClaim(ctx context.Context, userID uint, details model.ClaimDetails) (*model.VerificationQueueItem, error) {
	details = model.ClaimDetails{
		Name:   strings.TrimSpace(details.Name),
		RollNo: strings.TrimSpace(details.RollNo),
		Batch:  strings.TrimSpace(details.Batch),
		Branch: strings.TrimSpace(details.Branch),
	}
	if details.Name == "" || details.Batch == "" || details.Branch == "" {
		return nil, ErrClaimIncomplete
	}
	user, err := s.userRepo.First(ctx, "id = ?", userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.Role == model.RoleAdmin {
		return nil, ErrAdminNotEligible
	}
	if user.VerifiedAlumni {
		return nil, ErrAlreadyVerified
	}
	item := &model.VerificationQueueItem{UserID: userID, Details: details}
	if err := s.queueRepo.Upsert(ctx, item); err != nil {
		return nil, err
	}
	return s.queueRepo.GetByUserID(ctx, userID)
}

func (s *VerificationService) GetVerificationQueue(ctx context.Context, page common.PageRequest) ([]*model.VerificationQueueItem, common.Pagination, error) {
	page = page.Normalize()
	items, total, err := s.queueRepo.Find(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return items, page.Result(total), nil
}

func (s *VerificationService) getQueueItem(ctx context.Context, repo QueueRepository, userID uint) (*model.VerificationQueueItem, error) {
	item, err := repo.GetByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	return item, err
}

// ApproveVerification marks the user as a verified alumnus and closes the request.
func (s *VerificationService) ApproveVerification(ctx context.Context, actor audit.Actor, userID uint, notes string) error {
	notes = strings.TrimSpace(notes)
	var user *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queueRepo := s.queueRepo.WithTx(tx)
		item, err := s.getQueueItem(ctx, queueRepo, userID)
		if err != nil {
			return err
		}
		userRepo := s.userRepo.WithTx(tx)
		user, err = userRepo.First(ctx, "id = ?", userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if _, err := userRepo.Updates(ctx, map[string]interface{}{model.ColUserVerifiedAlumni: true}, "id = ?", userID); err != nil {
			return err
		}
		if _, err := queueRepo.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionApproveVerification,
			TargetType: audit.TargetVerification,
			TargetID:   userID,
			Details: map[string]any{
				"notes":            notes,
				"user_email":       user.Email,
				"details_provided": item.Details,
			},
		})
	})
	if err != nil {
		return err
	}
	if s.notifier != nil {
		if err := s.notifier.SendVerificationApproved(user.Email, user.Name, notes); err != nil {
			slog.Warn("Failed to send verification approval mail", "userID", userID, "error", err)
		}
	}
	return nil
}

// RejectVerification closes the request without touching the user's verified flag.
func (s *VerificationService) RejectVerification(ctx context.Context, actor audit.Actor, userID uint, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	var user *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		queueRepo := s.queueRepo.WithTx(tx)
		item, err := s.getQueueItem(ctx, queueRepo, userID)
		if err != nil {
			return err
		}
		user, err = s.userRepo.WithTx(tx).First(ctx, "id = ?", userID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if _, err := queueRepo.DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionRejectVerification,
			TargetType: audit.TargetVerification,
			TargetID:   userID,
			Details: map[string]any{
				"reason":           reason,
				"details_provided": item.Details,
			},
		})
	})
	if err != nil {
		return err
	}
	if s.notifier != nil && user != nil {
		if err := s.notifier.SendVerificationRejected(user.Email, user.Name, reason); err != nil {
			slog.Warn("Failed to send verification rejection mail", "userID", userID, "error", err)
		}
	}
	return nil
}

// GetVerificationStats returns three independent counts. They may overlap.
func (s *VerificationService) GetVerificationStats(ctx context.Context) (*Stats, error) {
	var (
		stats Stats
		err   error
	)
	if stats.PendingVerifications, err = s.queueRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.VerifiedAlumni, err = s.userRepo.Count(ctx, "verified_alumni = ?", true); err != nil {
		return nil, err
	}
	if stats.UnverifiedAlumni, err = s.userRepo.Count(ctx, "role = ? AND verified_alumni = ?", model.RoleAlumni, false); err != nil {
		return nil, err
	}
	return &stats, nil
}

func NewVerificationService(db *gorm.DB, userRepo users.UserRepository, queueRepo QueueRepository, activityRepo audit.ActivityRepository, notifier Notifier) *VerificationService {
	return &VerificationService{
		db:           db,
		userRepo:     userRepo,
		queueRepo:    queueRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
	}
}
