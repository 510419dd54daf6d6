package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
)

type profileRequest struct {
	Batch       string   `json:"batch" validate:"max=16"`
	Branch      string   `json:"branch" validate:"max=64"`
	Campus      string   `json:"campus" validate:"max=128"`
	Company     string   `json:"company" validate:"max=128"`
	Designation string   `json:"designation" validate:"max=128"`
	Skills      []string `json:"skills" validate:"max=30,dive,max=64"`
	LinkedIn    string   `json:"linkedin" validate:"omitempty,url"`
	GitHub      string   `json:"github" validate:"omitempty,url"`
	Website     string   `json:"website" validate:"omitempty,url"`
	Bio         string   `json:"bio" validate:"max=2000"`
}

type claimRequest struct {
	Name   string `json:"name" validate:"max=128"`
	RollNo string `json:"roll_no" validate:"max=32"`
	Batch  string `json:"batch" validate:"max=16"`
	Branch string `json:"branch" validate:"max=64"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type redeemRequest struct {
	Code string `json:"code"`
}

type meResponse struct {
	User    UserInfoResponse `json:"user"`
	Profile *model.Profile   `json:"profile"`
}

// ProfileHandler serves the member side of the verification workflow.
type ProfileHandler struct {
	userService         UserService
	verificationService VerificationService
	codeService         CodeService
}

func (h *ProfileHandler) GetMe(ctx *fiber.Ctx) error {
	actor := middlewares.GetActor(ctx)
	user, err := h.userService.GetUserByID(ctx.Context(), actor.ID)
	if err != nil {
		return err
	}
	profile, err := h.userService.GetProfile(ctx.Context(), actor.ID)
	if err != nil {
		return err
	}
	return sendData(ctx, meResponse{User: newUserInfo(user), Profile: profile})
}

func (h *ProfileHandler) PutProfile(ctx *fiber.Ctx) error {
	var req profileRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	profile, err := h.userService.CompleteProfile(ctx.Context(), middlewares.GetActor(ctx).ID, users.ProfileDetails{
		Batch:       req.Batch,
		Branch:      req.Branch,
		Campus:      req.Campus,
		Company:     req.Company,
		Designation: req.Designation,
		Skills:      req.Skills,
		LinkedIn:    req.LinkedIn,
		GitHub:      req.GitHub,
		Website:     req.Website,
		Bio:         req.Bio,
	})
	if err != nil {
		return err
	}
	return sendData(ctx, profile)
}

func (h *ProfileHandler) PutPassword(ctx *fiber.Ctx) error {
	var req changePasswordRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	if err := h.userService.ChangePassword(ctx.Context(), middlewares.GetActor(ctx).ID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return sendMessage(ctx, "Password updated")
}

func (h *ProfileHandler) PostClaim(ctx *fiber.Ctx) error {
	var req claimRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	item, err := h.verificationService.SubmitClaim(ctx.Context(), middlewares.GetActor(ctx).ID, model.ClaimDetails{
		Name:   req.Name,
		RollNo: req.RollNo,
		Batch:  req.Batch,
		Branch: req.Branch,
	})
	if err != nil {
		return err
	}
	return sendCreated(ctx, "Verification request submitted", item)
}

func (h *ProfileHandler) PostRedeem(ctx *fiber.Ctx) error {
	var req redeemRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ErrInvalidBody
	}
	if err := h.codeService.RedeemCode(ctx.Context(), middlewares.GetActor(ctx).ID, req.Code); err != nil {
		return err
	}
	return sendMessage(ctx, "Your alumni status has been verified")
}

func NewProfileHandler(userService UserService, verificationService VerificationService, codeService CodeService) *ProfileHandler {
	return &ProfileHandler{
		userService:         userService,
		verificationService: verificationService,
		codeService:         codeService,
	}
}
