package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/model"
)

type generateCodesRequest struct {
	Count int `json:"count"`
}

type CodeHandler struct {
	codeService CodeService
}

func (h *CodeHandler) PostGenerate(ctx *fiber.Ctx) error {
	req := generateCodesRequest{Count: 1}
	if err := parseOptional(ctx, &req); err != nil {
		return err
	}
	codes, err := h.codeService.GenerateCodes(ctx.Context(), middlewares.GetActor(ctx), req.Count)
	if err != nil {
		return err
	}
	return sendCreated(ctx, "Verification codes generated", codes)
}

func (h *CodeHandler) GetCodes(ctx *fiber.Ctx) error {
	status := model.CodeStatus(ctx.Query("status"))
	codes, pagination, err := h.codeService.GetAllCodes(ctx.Context(), status, pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, codes, pagination)
}

func (h *CodeHandler) DeleteExpired(ctx *fiber.Ctx) error {
	deleted, err := h.codeService.DeleteExpiredCodes(ctx.Context(), middlewares.GetActor(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(APIResponse{
		Success: true,
		Message: "Expired codes deleted",
		Data:    fiber.Map{"deletedCount": deleted},
	})
}

func NewCodeHandler(codeService CodeService) *CodeHandler {
	return &CodeHandler{codeService: codeService}
}
