package bans

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

const expiredBanNote = "ban window elapsed"

var ErrCannotBanAdmin = apperr.Forbidden("Admin accounts cannot be banned")

var nowFunc = time.Now

type BanNotifier interface {
	SendBanNotice(toEmail, name, reason string, expiresAt *time.Time) error
}

type BanService struct {
	db           *gorm.DB
	userRepo     users.UserRepository
	banRepo      BanRepository
	activityRepo audit.ActivityRepository
	notifier     BanNotifier
}

func (s *BanService) getUser(ctx context.Context, repo users.UserRepository, userID uint) (*model.User, error) {
	user, err := repo.First(ctx, "id = ?", userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// BanUser bans a user for one of the fixed durations. The banned flag is
// flipped with a compare-and-swap so concurrent requests produce one active ban.
func (s *BanService) BanUser(ctx context.Context, actor audit.Actor, userID uint, duration model.BanDuration, reason string) (*model.Ban, error) {
	reason = strings.TrimSpace(reason)
	if !duration.Valid() {
		return nil, ErrInvalidDuration
	}
	if reason == "" {
		return nil, ErrReasonRequired
	}

	now := nowFunc()
	ban := &model.Ban{
		UserID:       userID,
		Reason:       reason,
		Duration:     duration,
		BanExpiresAt: duration.ExpiresAt(now),
		IsActive:     true,
		BannedBy:     actor.ID,
		CreatedAt:    now,
	}
	var user *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		var err error
		if user, err = s.getUser(ctx, userRepo, userID); err != nil {
			return err
		}
		if user.Role == model.RoleAdmin {
			return ErrCannotBanAdmin
		}
		updates := map[string]interface{}{
			model.ColUserBanned:       true,
			model.ColUserBanExpiresAt: ban.BanExpiresAt,
			model.ColUserBanReason:    reason,
		}
		affected, err := userRepo.Updates(ctx, updates, "id = ? AND banned = ?", userID, false)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrAlreadyBanned
		}
		if err := s.banRepo.WithTx(tx).Create(ctx, ban); err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionBanUser,
			TargetType: audit.TargetUser,
			TargetID:   userID,
			Details: map[string]any{
				"reason":         reason,
				"duration":       duration,
				"ban_expires_at": ban.BanExpiresAt,
				"user_email":     user.Email,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.SendBanNotice(user.Email, user.Name, reason, ban.BanExpiresAt); err != nil {
			slog.Warn("Failed to send ban notice", "userID", userID, "error", err)
		}
	}
	return ban, nil
}

// UnbanUser clears the user's ban state and closes every active ban row.
func (s *BanService) UnbanUser(ctx context.Context, actor audit.Actor, userID uint, notes string) error {
	notes = strings.TrimSpace(notes)
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userRepo := s.userRepo.WithTx(tx)
		if _, err := s.getUser(ctx, userRepo, userID); err != nil {
			return err
		}
		affected, err := userRepo.Updates(ctx, clearBanColumns(), "id = ? AND banned = ?", userID, true)
		if err != nil {
			return err
		}
		if affected == 0 {
			return ErrNotBanned
		}
		actorID := actor.ID
		closed, err := s.banRepo.WithTx(tx).DeactivateAll(ctx, userID, &actorID, notes, nowFunc())
		if err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionUnbanUser,
			TargetType: audit.TargetUser,
			TargetID:   userID,
			Details: map[string]any{
				"notes":       notes,
				"bans_closed": closed,
			},
		})
	})
}

func clearBanColumns() map[string]interface{} {
	return map[string]interface{}{
		model.ColUserBanned:       false,
		model.ColUserBanExpiresAt: nil,
		model.ColUserBanReason:    "",
	}
}

// liftLapsedBan clears a timed ban whose window has passed. It reports false
// when the user is not (or no longer) under a lapsed ban.
func (s *BanService) liftLapsedBan(ctx context.Context, userID uint, now time.Time) (bool, error) {
	lifted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.userRepo.WithTx(tx).Updates(ctx, clearBanColumns(),
			"id = ? AND banned = ? AND ban_expires_at IS NOT NULL AND ban_expires_at <= ?", userID, true, now)
		if err != nil || affected == 0 {
			return err
		}
		closed, err := s.banRepo.WithTx(tx).DeactivateAll(ctx, userID, nil, expiredBanNote, now)
		if err != nil {
			return err
		}
		lifted = true
		return audit.Record(ctx, s.activityRepo.WithTx(tx), audit.SystemActor, audit.Entry{
			Action:     audit.ActionBanExpired,
			TargetType: audit.TargetUser,
			TargetID:   userID,
			Details:    map[string]any{"bans_closed": closed},
		})
	})
	return lifted, err
}

// LiftIfExpired lifts the ban of user when its window has passed, updating
// user in place. Called on login so an expired ban never locks a user out.
func (s *BanService) LiftIfExpired(ctx context.Context, user *model.User) (bool, error) {
	now := nowFunc()
	if !user.BanLapsed(now) {
		return false, nil
	}
	lifted, err := s.liftLapsedBan(ctx, user.ID, now)
	if err != nil {
		return false, err
	}
	if lifted {
		user.Banned = false
		user.BanExpiresAt = nil
		user.BanReason = ""
	}
	return lifted, nil
}

// SweepExpiredBans lifts every ban whose window has passed and returns how
// many users were unbanned.
func (s *BanService) SweepExpiredBans(ctx context.Context) (int, error) {
	now := nowFunc()
	expired, err := s.userRepo.Find(ctx, "banned = ? AND ban_expires_at IS NOT NULL AND ban_expires_at <= ?", true, now)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, user := range expired {
		lifted, err := s.liftLapsedBan(ctx, user.ID, now)
		if err != nil {
			return count, err
		}
		if lifted {
			count++
			slog.Info("Lifted expired ban", "userID", user.ID, "email", user.Email)
		}
	}
	return count, nil
}

func (s *BanService) GetBannedUsers(ctx context.Context, page common.PageRequest) ([]*model.Ban, common.Pagination, error) {
	page = page.Normalize()
	bans, total, err := s.banRepo.FindActive(ctx, page.Offset(), page.Limit)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return bans, page.Result(total), nil
}

func (s *BanService) GetUserBanHistory(ctx context.Context, userID uint) ([]*model.Ban, error) {
	return s.banRepo.FindByUser(ctx, userID)
}

// CountActiveBans counts bans still in force, excluding lapsed ones that were never lifted.
func (s *BanService) CountActiveBans(ctx context.Context) (int64, error) {
	return s.banRepo.CountActive(ctx, nowFunc())
}

func NewBanService(db *gorm.DB, userRepo users.UserRepository, banRepo BanRepository, activityRepo audit.ActivityRepository, notifier BanNotifier) *BanService {
	return &BanService{
		db:           db,
		userRepo:     userRepo,
		banRepo:      banRepo,
		activityRepo: activityRepo,
		notifier:     notifier,
	}
}
