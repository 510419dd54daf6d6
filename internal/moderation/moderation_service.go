package moderation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/model"
	"gorm.io/gorm"
)

var nowFunc = time.Now

type FileRemover interface {
	Remove(ctx context.Context, path string) error
}

// Service runs the review state machine of one content kind. Items start
// pending and move once to approved or rejected. Deletion is independent of
// review status.
type Service[T any] struct {
	db           *gorm.DB
	kind         Kind[T]
	repo         ContentRepository[T]
	activityRepo audit.ActivityRepository
	files        FileRemover
}

func (s *Service[T]) Kind() Kind[T] {
	return s.kind
}

func (s *Service[T]) Get(ctx context.Context, id uint) (*T, error) {
	item, err := s.repo.First(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.kind.errNotFound()
	}
	return item, err
}

func (s *Service[T]) List(ctx context.Context, filter ListFilter, page common.PageRequest) ([]*T, common.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, common.Pagination{}, ErrInvalidStatus
	}
	page = page.Normalize()
	items, total, err := s.repo.Find(ctx, filter, page.Offset(), page.Limit)
	if err != nil {
		return nil, common.Pagination{}, err
	}
	return items, page.Result(total), nil
}

func (s *Service[T]) ListPending(ctx context.Context, page common.PageRequest) ([]*T, common.Pagination, error) {
	return s.List(ctx, ListFilter{Status: model.StatusPending}, page)
}

func (s *Service[T]) CountByStatus(ctx context.Context) (map[model.ReviewStatus]int64, error) {
	return s.repo.CountByStatus(ctx)
}

// transition applies a review to a pending item inside tx. When nothing was
// updated it tells a missing item apart from one already reviewed.
func (s *Service[T]) transition(ctx context.Context, tx *gorm.DB, id uint, review model.Review, verb string) error {
	repo := s.repo.WithTx(tx)
	affected, err := repo.Review(ctx, id, review)
	if err != nil {
		return err
	}
	if affected > 0 {
		return nil
	}
	if _, err := repo.First(ctx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return s.kind.errNotFound()
	} else if err != nil {
		return err
	}
	return s.kind.errNotPending(verb)
}

// Approve publishes a pending item. notes only go to the activity log.
func (s *Service[T]) Approve(ctx context.Context, actor audit.Actor, id uint, notes string) error {
	review := reviewedNow(model.StatusApproved, actor.ID, "", nowFunc())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transition(ctx, tx, id, review, "approved"); err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ModerationAction("approve", s.kind.Name),
			TargetType: s.kind.Name,
			TargetID:   id,
			Details:    map[string]any{"notes": strings.TrimSpace(notes)},
		})
	})
	if err == nil {
		common.ModerationActionsTotal.WithLabelValues(s.kind.Name, "approve").Inc()
	}
	return err
}

func (s *Service[T]) Reject(ctx context.Context, actor audit.Actor, id uint, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}
	review := reviewedNow(model.StatusRejected, actor.ID, reason, nowFunc())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.transition(ctx, tx, id, review, "rejected"); err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ModerationAction("reject", s.kind.Name),
			TargetType: s.kind.Name,
			TargetID:   id,
			Details:    map[string]any{"reason": reason},
		})
	})
	if err == nil {
		common.ModerationActionsTotal.WithLabelValues(s.kind.Name, "reject").Inc()
	}
	return err
}

// Delete soft deletes kinds that keep their rows and hard deletes the rest,
// removing their stored files afterwards. Files that are already gone are skipped.
func (s *Service[T]) Delete(ctx context.Context, actor audit.Actor, id uint) error {
	var item *T
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		item, err = repo.First(ctx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.kind.errNotFound()
		}
		if err != nil {
			return err
		}
		if s.kind.SoftDelete {
			err = repo.Deactivate(ctx, id)
		} else {
			err = repo.Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ModerationAction("delete", s.kind.Name),
			TargetType: s.kind.Name,
			TargetID:   id,
			Details:    map[string]any{"soft": s.kind.SoftDelete},
		})
	})
	if err != nil {
		return err
	}
	common.ModerationActionsTotal.WithLabelValues(s.kind.Name, "delete").Inc()
	if !s.kind.SoftDelete && s.kind.Files != nil {
		s.removeFiles(ctx, s.kind.Files(item))
	}
	return nil
}

func (s *Service[T]) removeFiles(ctx context.Context, paths []string) {
	if s.files == nil {
		return
	}
	for _, path := range paths {
		if err := s.files.Remove(ctx, path); err != nil {
			slog.Warn("Failed to remove file", "kind", s.kind.Name, "path", path, "error", err)
		}
	}
}

func NewService[T any](db *gorm.DB, kind Kind[T], activityRepo audit.ActivityRepository, files FileRemover) *Service[T] {
	return &Service[T]{
		db:           db,
		kind:         kind,
		repo:         NewContentRepository(db, kind),
		activityRepo: activityRepo,
		files:        files,
	}
}
