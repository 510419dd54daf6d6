package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/middlewares"
)

type approveRequest struct {
	Notes string `json:"notes"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// parseOptional decodes an optional JSON body. An empty body leaves out untouched.
func parseOptional(ctx *fiber.Ctx, out any) error {
	if len(ctx.Body()) == 0 {
		return nil
	}
	if err := ctx.BodyParser(out); err != nil {
		return ErrInvalidBody
	}
	return nil
}

type VerificationHandler struct {
	verificationService VerificationService
}

func (h *VerificationHandler) GetQueue(ctx *fiber.Ctx) error {
	items, pagination, err := h.verificationService.GetVerificationQueue(ctx.Context(), pageRequest(ctx))
	if err != nil {
		return err
	}
	return sendPage(ctx, items, pagination)
}

func (h *VerificationHandler) GetStats(ctx *fiber.Ctx) error {
	stats, err := h.verificationService.GetVerificationStats(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true, "stats": stats})
}

func (h *VerificationHandler) PostApprove(ctx *fiber.Ctx) error {
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}
	var req approveRequest
	if err := parseOptional(ctx, &req); err != nil {
		return err
	}
	if err := h.verificationService.ApproveVerification(ctx.Context(), middlewares.GetActor(ctx), userID, req.Notes); err != nil {
		return err
	}
	return sendMessage(ctx, "Verification approved")
}

func (h *VerificationHandler) PostReject(ctx *fiber.Ctx) error {
	userID, err := paramID(ctx, "userId")
	if err != nil {
		return err
	}
	var req rejectRequest
	if err := parseOptional(ctx, &req); err != nil {
		return err
	}
	if err := h.verificationService.RejectVerification(ctx.Context(), middlewares.GetActor(ctx), userID, req.Reason); err != nil {
		return err
	}
	return sendMessage(ctx, "Verification rejected")
}

func NewVerificationHandler(verificationService VerificationService) *VerificationHandler {
	return &VerificationHandler{verificationService: verificationService}
}
