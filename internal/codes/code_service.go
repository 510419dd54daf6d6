package codes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/internal/verification"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"gorm.io/gorm"
)

var (
	nowFunc      = time.Now
	generateCode = func() (string, error) { return common.GenerateCode(params.VerificationCodeLength) }
)

type CodeService struct {
	db           *gorm.DB
	codeRepo     CodeRepository
	userRepo     users.UserRepository
	queueRepo    verification.QueueRepository
	activityRepo audit.ActivityRepository
}

// insertUnique stores a fresh code, drawing again on collision. Each attempt
// runs in a savepoint so a duplicate key does not abort the outer transaction.
func (s *CodeService) insertUnique(ctx context.Context, tx *gorm.DB, adminID uint, now time.Time) (*model.VerificationCode, error) {
	for attempt := 0; attempt < params.CodeInsertMaxRetries; attempt++ {
		value, err := generateCode()
		if err != nil {
			return nil, err
		}
		code := &model.VerificationCode{
			Code:        value,
			GeneratedBy: adminID,
			ExpiresAt:   now.Add(params.VerificationCodeTTL),
			CreatedAt:   now,
		}
		err = tx.Transaction(func(sp *gorm.DB) error {
			return s.codeRepo.WithTx(sp).Create(ctx, code)
		})
		if err == nil {
			return code, nil
		}
		if !common.IsDuplicateKey(err) {
			return nil, err
		}
		slog.Debug("Verification code collision, retrying", "attempt", attempt+1)
	}
	return nil, ErrCodeCollision
}

// GenerateCodes issues count new codes on behalf of an admin. An admin who
// generated CodeRateLimitMax or more codes in the trailing window is refused.
func (s *CodeService) GenerateCodes(ctx context.Context, actor audit.Actor, count int) ([]*model.VerificationCode, error) {
	if count < 1 || count > params.CodeMaxPerRequest {
		return nil, ErrInvalidCount
	}

	now := nowFunc()
	var generated []*model.VerificationCode
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recent, err := s.codeRepo.WithTx(tx).CountGeneratedSince(ctx, actor.ID, now.Add(-params.CodeRateLimitWindow))
		if err != nil {
			return err
		}
		if recent >= params.CodeRateLimitMax {
			return ErrRateLimited
		}
		values := make([]string, 0, count)
		for i := 0; i < count; i++ {
			code, err := s.insertUnique(ctx, tx, actor.ID, now)
			if err != nil {
				return err
			}
			generated = append(generated, code)
			values = append(values, code.Code)
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionGenerateCodes,
			TargetType: audit.TargetVerificationCode,
			TargetID:   strings.Join(values, ","),
			Details:    map[string]any{"count": count},
		})
	})
	if err != nil {
		return nil, err
	}
	common.CodesGeneratedTotal.Add(float64(count))
	return generated, nil
}

func (s *CodeService) GetAllCodes(ctx context.Context, status model.CodeStatus, page common.PageRequest) ([]*model.VerificationCode, common.Pagination, error) {
	if status == "" {
		status = model.CodeStatusAll
	}
	if !status.Valid() {
		return nil, common.Pagination{}, ErrInvalidStatus
	}
	page = page.Normalize()
	codes, total, err := s.codeRepo.Find(ctx, status, nowFunc(), page.Offset(), page.Limit)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return codes, page.Result(total), nil
}

// DeleteExpiredCodes removes unused codes past their expiry and returns how many were deleted.
func (s *CodeService) DeleteExpiredCodes(ctx context.Context, actor audit.Actor) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		deleted, err = s.codeRepo.WithTx(tx).DeleteExpired(ctx, nowFunc())
		if err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionDeleteExpiredCodes,
			TargetType: audit.TargetVerificationCode,
			TargetID:   "expired",
			Details:    map[string]any{"deleted": deleted},
		})
	})
	return deleted, err
}

// RedeemCode consumes an active code and verifies the redeeming user as an
// alumnus. Any open verification request of the user is closed.
func (s *CodeService) RedeemCode(ctx context.Context, userID uint, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != params.VerificationCodeLength {
		return ErrCodeInvalid
	}
	now := nowFunc()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		user, err := userRepo.First(ctx, "id = ?", userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		if err != nil {
			return err
		}
		if user.Role == model.RoleAdmin {
			return ErrAdminNotEligible
		}
		if user.VerifiedAlumni {
			return ErrAlreadyVerified
		}
		affected, err := s.codeRepo.WithTx(tx).MarkUsed(ctx, code, userID, now)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrCodeInvalid
		}
		if _, err := userRepo.Updates(ctx, map[string]interface{}{model.ColUserVerifiedAlumni: true}, "id = ?", userID); err != nil {
			return err
		}
		_, err = s.queueRepo.WithTx(tx).DeleteByUserID(ctx, userID)
		return err
	})
	if err != nil {
		return fmt.Errorf("redeem code: %w", err)
	}
	slog.Info("Verification code redeemed", "userID", userID)
	return nil
}

func NewCodeService(db *gorm.DB, codeRepo CodeRepository, userRepo users.UserRepository, queueRepo verification.QueueRepository, activityRepo audit.ActivityRepository) *CodeService {
	return &CodeService{
		db:           db,
		codeRepo:     codeRepo,
		userRepo:     userRepo,
		queueRepo:    queueRepo,
		activityRepo: activityRepo,
	}
}
