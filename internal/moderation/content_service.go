package moderation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/uploads"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"gorm.io/gorm"
)

// saveFiles stores every file or none of them.
func saveFiles(ctx context.Context, store uploads.FileStore, kind string, files []uploads.File) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, file := range files {
		path, err := store.Save(ctx, kind, file)
		if err != nil {
			discardFiles(ctx, store, paths)
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func discardFiles(ctx context.Context, store uploads.FileStore, paths []string) {
	for _, path := range paths {
		store.Remove(ctx, path)
	}
}

// initialReview is approved for content created by admins and pending otherwise.
func initialReview(actor audit.Actor, now time.Time) model.Review {
	if actor.IsAdmin() {
		return reviewedNow(model.StatusApproved, actor.ID, "", now)
	}
	return model.Review{Status: model.StatusPending}
}

type PostService struct {
	*Service[model.Post]
	store uploads.FileStore
}

// CreatePost submits a post for review.
func (s *PostService) CreatePost(ctx context.Context, actor audit.Actor, content string, images []uploads.File) (*model.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if len(images) > params.MaxImagesPerUpload {
		return nil, ErrTooManyImages
	}
	paths, err := saveFiles(ctx, s.store, uploads.KindPosts, images)
	if err != nil {
		return nil, err
	}
	post := &model.Post{
		UserID:  actor.ID,
		Content: content,
		Images:  paths,
		Review:  model.Review{Status: model.StatusPending},
	}
	if err := s.repo.Create(ctx, post); err != nil {
		discardFiles(ctx, s.store, paths)
		return nil, err
	}
	return post, nil
}

type EventInput struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	Images      []uploads.File
}

type EventService struct {
	*Service[model.Event]
	store uploads.FileStore
}

// CreateEvent submits an event. Events created by admins are published
// directly and logged.
func (s *EventService) CreateEvent(ctx context.Context, actor audit.Actor, input EventInput) (*model.Event, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.StartsAt.IsZero() {
		return nil, ErrStartRequired
	}
	if len(input.Images) > params.MaxImagesPerUpload {
		return nil, ErrTooManyImages
	}
	paths, err := saveFiles(ctx, s.store, uploads.KindEvents, input.Images)
	if err != nil {
		return nil, err
	}
	event := &model.Event{
		CreatedBy:   actor.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		StartsAt:    input.StartsAt,
		Images:      paths,
		Review:      initialReview(actor, nowFunc()),
		IsActive:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, event); err != nil {
			return err
		}
		if !actor.IsAdmin() {
			return nil
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionCreateEvent,
			TargetType: audit.TargetEvent,
			TargetID:   event.ID,
			Details:    map[string]any{"title": title},
		})
	})
	if err != nil {
		discardFiles(ctx, s.store, paths)
		return nil, err
	}
	return event, nil
}

// ListUpcoming lists published events that have not started yet.
func (s *EventService) ListUpcoming(ctx context.Context, page common.PageRequest) ([]*model.Event, common.Pagination, error) {
	return s.List(ctx, ListFilter{Status: model.StatusApproved, StartsFrom: nowFunc()}, page)
}

type NewsletterInput struct {
	Title       string
	Description string
}

type NewsletterService struct {
	*Service[model.Newsletter]
	store uploads.FileStore
}

// UploadNewsletter stores a PDF checked by uploads.CheckPDF and publishes it.
func (s *NewsletterService) UploadNewsletter(ctx context.Context, actor audit.Actor, input NewsletterInput, file uploads.File) (*model.Newsletter, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	path, err := s.store.Save(ctx, uploads.KindNewsletters, file)
	if err != nil {
		return nil, err
	}
	newsletter := &model.Newsletter{
		UploadedBy:  actor.ID,
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		FilePath:    path,
		FileSize:    file.Size,
		Review:      reviewedNow(model.StatusApproved, actor.ID, "", nowFunc()),
		IsActive:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, newsletter); err != nil {
			return err
		}
		return audit.Record(ctx, s.activityRepo.WithTx(tx), actor, audit.Entry{
			Action:     audit.ActionUploadNewsletter,
			TargetType: audit.TargetNewsletter,
			TargetID:   newsletter.ID,
			Details:    map[string]any{"title": title, "file_size": file.Size},
		})
	})
	if err != nil {
		discardFiles(ctx, s.store, []string{path})
		return nil, err
	}
	return newsletter, nil
}

// ListPublished lists newsletters visible to members.
func (s *NewsletterService) ListPublished(ctx context.Context, page common.PageRequest) ([]*model.Newsletter, common.Pagination, error) {
	return s.List(ctx, ListFilter{Status: model.StatusApproved}, page)
}

func (s *NewsletterService) record(ctx context.Context, id uint, column string) (*model.Newsletter, error) {
	affected, err := s.repo.Increment(ctx, id, column)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, s.kind.errNotFound()
	}
	newsletter, err := s.repo.First(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.kind.errNotFound()
	}
	return newsletter, err
}

func (s *NewsletterService) RecordView(ctx context.Context, id uint) (*model.Newsletter, error) {
	return s.record(ctx, id, model.ColViews)
}

// RecordDownload counts a download and returns the newsletter so the caller
// can hand out its file.
func (s *NewsletterService) RecordDownload(ctx context.Context, id uint) (*model.Newsletter, error) {
	return s.record(ctx, id, model.ColDownloads)
}

func NewPostService(db *gorm.DB, activityRepo audit.ActivityRepository, store uploads.FileStore) *PostService {
	return &PostService{Service: NewService(db, PostKind, activityRepo, store), store: store}
}

func NewEventService(db *gorm.DB, activityRepo audit.ActivityRepository, store uploads.FileStore) *EventService {
	return &EventService{Service: NewService(db, EventKind, activityRepo, store), store: store}
}

func NewNewsletterService(db *gorm.DB, activityRepo audit.ActivityRepository, store uploads.FileStore) *NewsletterService {
	return &NewsletterService{Service: NewService(db, NewsletterKind, activityRepo, store), store: store}
}
