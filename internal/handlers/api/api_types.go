package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/common"
)

type APIResponse struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Data       any                `json:"data,omitempty"`
	Pagination *common.Pagination `json:"pagination,omitempty"`
}

type UserInfoResponse struct {
	ID               uint   `json:"id,string"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	ProfileCompleted bool   `json:"profileCompleted"`
	VerifiedAlumni   bool   `json:"verifiedAlumni"`
}

func sendData(ctx *fiber.Ctx, data any) error {
	return ctx.JSON(APIResponse{Success: true, Data: data})
}

func sendCreated(ctx *fiber.Ctx, message string, data any) error {
	return ctx.Status(fiber.StatusCreated).JSON(APIResponse{Success: true, Message: message, Data: data})
}

func sendMessage(ctx *fiber.Ctx, message string) error {
	return ctx.JSON(APIResponse{Success: true, Message: message})
}

func sendPage(ctx *fiber.Ctx, data any, pagination common.Pagination) error {
	return ctx.JSON(APIResponse{Success: true, Data: data, Pagination: &pagination})
}
