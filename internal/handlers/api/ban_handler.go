package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/model"
)

type banRequest struct {
	Duration string `json:"duration"`
	Reason   string `json:"reason"`
}

type unbanRequest struct {
	Notes string `json:"notes"`
}

type BanHandler struct {
	banService BanService
}

func (h *BanHandler) PostBanUser(ctx *fiber.Ctx) error {
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}
	var req banRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ErrInvalidBody
	}
	ban, err := h.banService.BanUser(ctx.Context(), middlewares.GetActor(ctx), userID, model.BanDuration(req.Duration), req.Reason)
	if err != nil {
		return err
	}
	return ctx.JSON(APIResponse{Success: true, Message: "User banned successfully", Data: ban})
}

func (h *BanHandler) PostUnbanUser(ctx *fiber.Ctx) error {
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}
	var req unbanRequest
	if err := parseOptional(ctx, &req); err != nil {
		return err
	}
	if err := h.banService.UnbanUser(ctx.Context(), middlewares.GetActor(ctx), userID, req.Notes); err != nil {
		return err
	}
	return sendMessage(ctx, "User unbanned successfully")
}

func (h *BanHandler) GetBannedUsers(ctx *fiber.Ctx) error {
	bans, pagination, err := h.banService.GetBannedUsers(ctx.Context(), pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, bans, pagination)
}

func (h *BanHandler) GetUserBanHistory(ctx *fiber.Ctx) error {
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}
	bans, err := h.banService.GetUserBanHistory(ctx.Context(), userID)
	if err != nil {
		return err
	}
	return sendData(ctx, bans)
}

func NewBanHandler(banService BanService) *BanHandler {
	return &BanHandler{banService: banService}
}
