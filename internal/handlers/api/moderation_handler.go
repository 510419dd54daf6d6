package api

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/internal/moderation"
	"github.com/khanghh/alumnet/model"
)

type ModerationService[T any] interface {
	Kind() moderation.Kind[T]
	List(ctx context.Context, filter moderation.ListFilter, page common.PageRequest) ([]*T, common.Pagination, error)
	Approve(ctx context.Context, actor audit.Actor, id uint, notes string) error
	Reject(ctx context.Context, actor audit.Actor, id uint, reason string) error
	Delete(ctx context.Context, actor audit.Actor, id uint) error
}

// ModerationHandler exposes the admin review endpoints of one content kind.
type ModerationHandler[T any] struct {
	service ModerationService[T]
	label   string
}

func (h *ModerationHandler[T]) list(ctx *fiber.Ctx, filter moderation.ListFilter) error {
	items, pagination, err := h.service.List(ctx.Context(), filter, pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, items, pagination)
}

func (h *ModerationHandler[T]) GetPending(ctx *fiber.Ctx) error {
	return h.list(ctx, moderation.ListFilter{Status: model.StatusPending})
}

// GetAll lists every item including soft deleted ones, optionally filtered by
// status.
func (h *ModerationHandler[T]) GetAll(ctx *fiber.Ctx) error {
	return h.list(ctx, moderation.ListFilter{
		Status:          model.ReviewStatus(ctx.Query("status")),
		IncludeInactive: true,
	})
}

func (h *ModerationHandler[T]) PutApprove(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req approveRequest
	if err := parseOptional(ctx, &req); err != nil {
		return err
	}
	if err := h.service.Approve(ctx.Context(), middlewares.GetActor(ctx), id, req.Notes); err != nil {
		return err
	}
	return sendMessage(ctx, fmt.Sprintf("%s approved successfully", h.label))
}

func (h *ModerationHandler[T]) PutReject(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := parseOptional(ctx, &req); err != nil {
		return err
	}
	if err := h.service.Reject(ctx.Context(), middlewares.GetActor(ctx), id, req.Reason); err != nil {
		return err
	}
	return sendMessage(ctx, fmt.Sprintf("%s rejected successfully", h.label))
}

func (h *ModerationHandler[T]) Delete(ctx *fiber.Ctx) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	if err := h.service.Delete(ctx.Context(), middlewares.GetActor(ctx), id); err != nil {
		return err
	}
	return sendMessage(ctx, fmt.Sprintf("%s deleted successfully", h.label))
}

func NewModerationHandler[T any](service ModerationService[T]) *ModerationHandler[T] {
	return &ModerationHandler[T]{service: service, label: service.Kind().Title()}
}
