package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/alumni"
	"github.com/khanghh/alumnet/params"
	"github.com/spf13/cast"
)

type AlumniHandler struct {
	alumniService AlumniService
}

func (h *AlumniHandler) GetBatches(ctx *fiber.Ctx) error {
	batches, err := h.alumniService.GetAlumniBatches(ctx.Context())
	if err != nil {
		return err
	}
	return sendData(ctx, batches)
}

// GetBatch lists one batch. It pages with limit and offset like the lookup
// tool it backs, not with page numbers.
func (h *AlumniHandler) GetBatch(ctx *fiber.Ctx) error {
	limit := cast.ToInt(ctx.Query("limit"))
	if limit < 1 || limit > params.MaxPageLimit {
		limit = params.AlumniDefaultBatchLimit
	}
	offset := cast.ToInt(ctx.Query("offset"))
	if offset < 0 {
		offset = 0
	}
	records, total, err := h.alumniService.GetAlumniByBatch(ctx.Context(), ctx.Params("batch"), limit, offset)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{
		"success": true,
		"data":    records,
		"pagination": fiber.Map{
			"total":  total,
			"limit":  limit,
			"offset": offset,
		},
	})
}

func (h *AlumniHandler) PostSearch(ctx *fiber.Ctx) error {
	var query alumni.SearchQuery
	if err := parseOptional(ctx, &query); err != nil {
		return err
	}
	matches, err := h.alumniService.SearchAlumniDatabase(ctx.Context(), query)
	if err != nil {
		return err
	}
	return ctx.JSON(fiber.Map{"success": true, "matches": matches})
}

func NewAlumniHandler(alumniService AlumniService) *AlumniHandler {
	return &AlumniHandler{alumniService: alumniService}
}
