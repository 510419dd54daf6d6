package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/internal/moderation"
	"github.com/khanghh/alumnet/internal/uploads"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"github.com/valyala/fasthttp"
)

var (
	ErrInvalidStartsAt = apperr.Validation("startsAt must be an RFC 3339 timestamp")
	ErrFileRequired    = apperr.Validation("A PDF file is required")
)

type PostService interface {
	ModerationService[model.Post]
	CreatePost(ctx context.Context, actor audit.Actor, content string, images []uploads.File) (*model.Post, error)
}

type EventService interface {
	ModerationService[model.Event]
	CreateEvent(ctx context.Context, actor audit.Actor, input moderation.EventInput) (*model.Event, error)
	ListUpcoming(ctx context.Context, page common.PageRequest) ([]*model.Event, common.Pagination, error)
}

type NewsletterService interface {
	ModerationService[model.Newsletter]
	UploadNewsletter(ctx context.Context, actor audit.Actor, input moderation.NewsletterInput, file uploads.File) (*model.Newsletter, error)
	ListPublished(ctx context.Context, page common.PageRequest) ([]*model.Newsletter, common.Pagination, error)
	RecordView(ctx context.Context, id uint) (*model.Newsletter, error)
	RecordDownload(ctx context.Context, id uint) (*model.Newsletter, error)
}

type createPostRequest struct {
	Content string `json:"content" form:"content" validate:"max=5000"`
}

type createEventRequest struct {
	Title       string `json:"title" form:"title" validate:"max=256"`
	Description string `json:"description" form:"description" validate:"max=5000"`
	Location    string `json:"location" form:"location" validate:"max=256"`
	StartsAt    string `json:"startsAt" form:"startsAt"`
}

type uploadNewsletterRequest struct {
	Title       string `form:"title" validate:"max=256"`
	Description string `form:"description" validate:"max=2000"`
}

// openFiles opens and checks every file of a multipart field. The returned
// func closes them and must be called once the files were consumed.
func openFiles(ctx *fiber.Ctx, field string, max int, check func(io.Reader, int64) (uploads.File, error)) ([]uploads.File, func(), error) {
	var closers []io.Closer
	closeAll := func() {
		for _, c := range closers {
			c.Close()
		}
	}
	form, err := ctx.MultipartForm()
	if errors.Is(err, fasthttp.ErrNoMultipartForm) {
		return nil, closeAll, nil
	}
	if err != nil {
		return nil, closeAll, ErrInvalidBody
	}
	headers := form.File[field]
	if len(headers) > max {
		return nil, closeAll, moderation.ErrTooManyImages
	}
	files := make([]uploads.File, 0, len(headers))
	for _, header := range headers {
		file, err := openFile(header, check)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, file.Reader.(io.Closer))
		files = append(files, file)
	}
	return files, closeAll, nil
}

type checkedFile struct {
	io.Reader
	io.Closer
}

func openFile(header *multipart.FileHeader, check func(io.Reader, int64) (uploads.File, error)) (uploads.File, error) {
	f, err := header.Open()
	if err != nil {
		return uploads.File{}, err
	}
	file, err := check(f, header.Size)
	if err != nil {
		f.Close()
		return uploads.File{}, err
	}
	file.Reader = checkedFile{Reader: file.Reader, Closer: f}
	return file, nil
}

type PostHandler struct {
	*ModerationHandler[model.Post]
	postService PostService
}

func (h *PostHandler) PostCreate(ctx *fiber.Ctx) error {
	var req createPostRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	images, closeImages, err := openFiles(ctx, "images", params.MaxImagesPerUpload, uploads.CheckImage)
	if err != nil {
		return err
	}
	defer closeImages()
	post, err := h.postService.CreatePost(ctx.Context(), middlewares.GetActor(ctx), req.Content, images)
	if err != nil {
		return err
	}
	return sendCreated(ctx, "Post submitted for review", post)
}

func (h *PostHandler) GetMine(ctx *fiber.Ctx) error {
	return h.list(ctx, moderation.ListFilter{OwnerID: middlewares.GetActor(ctx).ID})
}

// GetFeed lists approved posts.
func (h *PostHandler) GetFeed(ctx *fiber.Ctx) error {
	return h.list(ctx, moderation.ListFilter{Status: model.StatusApproved})
}

type EventHandler struct {
	*ModerationHandler[model.Event]
	eventService EventService
}

// PostCreate submits an event. Admin submissions are published directly.
func (h *EventHandler) PostCreate(ctx *fiber.Ctx) error {
	var req createEventRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	var startsAt time.Time
	if req.StartsAt != "" {
		var err error
		if startsAt, err = time.Parse(time.RFC3339, req.StartsAt); err != nil {
			return ErrInvalidStartsAt
		}
	}
	images, closeImages, err := openFiles(ctx, "images", params.MaxImagesPerUpload, uploads.CheckImage)
	if err != nil {
		return err
	}
	defer closeImages()

	actor := middlewares.GetActor(ctx)
	event, err := h.eventService.CreateEvent(ctx.Context(), actor, moderation.EventInput{
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		StartsAt:    startsAt,
		Images:      images,
	})
	if err != nil {
		return err
	}
	message := "Event submitted for review"
	if event.Status == model.StatusApproved {
		message = "Event created successfully"
	}
	return sendCreated(ctx, message, event)
}

func (h *EventHandler) GetMine(ctx *fiber.Ctx) error {
	return h.list(ctx, moderation.ListFilter{OwnerID: middlewares.GetActor(ctx).ID})
}

func (h *EventHandler) GetUpcoming(ctx *fiber.Ctx) error {
	events, pagination, err := h.eventService.ListUpcoming(ctx.Context(), pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, events, pagination)
}

type NewsletterHandler struct {
	*ModerationHandler[model.Newsletter]
	newsletterService NewsletterService
}

func (h *NewsletterHandler) PostUpload(ctx *fiber.Ctx) error {
	var req uploadNewsletterRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	header, err := ctx.FormFile("newsletter")
	if err != nil {
		return ErrFileRequired
	}
	file, err := openFile(header, uploads.CheckPDF)
	if err != nil {
		return err
	}
	defer file.Reader.(io.Closer).Close()

	newsletter, err := h.newsletterService.UploadNewsletter(ctx.Context(), middlewares.GetActor(ctx), moderation.NewsletterInput{
		Title:       req.Title,
		Description: req.Description,
	}, file)
	if err != nil {
		return err
	}
	return sendCreated(ctx, "Newsletter uploaded successfully", newsletter)
}

func (h *NewsletterHandler) GetPublished(ctx *fiber.Ctx) error {
	newsletters, pagination, err := h.newsletterService.ListPublished(ctx.Context(), pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, newsletters, pagination)
}

func (h *NewsletterHandler) PostView(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	newsletter, err := h.newsletterService.RecordView(ctx.Context(), id)
	if err != nil {
		return err
	}
	return sendData(ctx, newsletter)
}

// PostDownload counts a download and returns where the file is served from.
func (h *NewsletterHandler) PostDownload(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	newsletter, err := h.newsletterService.RecordDownload(ctx.Context(), id)
	if err != nil {
		return err
	}
	return sendData(ctx, fiber.Map{
		"fileUrl":   newsletter.FilePath,
		"downloads": newsletter.Downloads,
	})
}

func NewPostHandler(postService PostService) *PostHandler {
	return &PostHandler{
		ModerationHandler: NewModerationHandler[model.Post](postService),
		postService:       postService,
	}
}

func NewEventHandler(eventService EventService) *EventHandler {
	return &EventHandler{
		ModerationHandler: NewModerationHandler[model.Event](eventService),
		eventService:      eventService,
	}
}

func NewNewsletterHandler(newsletterService NewsletterService) *NewsletterHandler {
	return &NewsletterHandler{
		ModerationHandler: NewModerationHandler[model.Newsletter](newsletterService),
		newsletterService: newsletterService,
	}
}
