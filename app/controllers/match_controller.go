package controllers

import (
	"errors"
	"time"

	"refmatch/app/middlewares"
	"refmatch/app/models"
	"refmatch/app/services"

	"github.com/gofiber/fiber/v2"
)

// MatchController handles HTTP endpoints for the match lifecycle
type MatchController struct {
	matchService *services.MatchService
}

// NewMatchController creates a new match controller instance
func NewMatchController(matchService *services.MatchService) *MatchController {
	return &MatchController{
		matchService: matchService,
	}
}

// CreateMatchRequest is the raw posting form. MatchDate is RFC 3339.
type CreateMatchRequest struct {
	TeamName        string `json:"team_name"`
	Title           string `json:"title"`
	MatchDate       string `json:"match_date"`
	LocationName    string `json:"location_name"`
	LocationAddress string `json:"location_address"`
	Reward          int    `json:"reward"`
	RecruitRole     string `json:"recruit_role"`
	Description     string `json:"description"`
}

// ApplyRequest carries the optional message attached to an application
type ApplyRequest struct {
	Message string `json:"message"`
}

// CreateMatch posts a new recruiting match owned by the caller
func (c *MatchController) CreateMatch(ctx *fiber.Ctx) error {
	var req CreateMatchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	form := models.MatchForm{
		TeamName:        req.TeamName,
		Title:           req.Title,
		LocationName:    req.LocationName,
		LocationAddress: req.LocationAddress,
		Reward:          req.Reward,
		RecruitRole:     req.RecruitRole,
		Description:     req.Description,
	}

	if req.MatchDate != "" {
		matchDate, err := time.Parse(time.RFC3339, req.MatchDate)
		if err != nil {
			return ctx.Status(400).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid match_date: expected RFC 3339 timestamp",
				"error":   err.Error(),
			})
		}
		form.MatchDate = matchDate
	}

	match, err := c.matchService.PostMatch(ctx.Context(), middlewares.IdentityFromCtx(ctx), form)
	if err != nil {
		return respondServiceError(ctx, "Failed to post match", err)
	}

	return ctx.Status(201).JSON(fiber.Map{
		"status":    "success",
		"message":   "Match posted successfully",
		"match":     match,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetMatch returns a single match by id
func (c *MatchController) GetMatch(ctx *fiber.Ctx) error {
	match, err := c.matchService.GetMatch(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return respondServiceError(ctx, "Failed to load match", err)
	}

	return ctx.JSON(fiber.Map{
		"status":    "success",
		"match":     match,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListApplications returns every application for a match
func (c *MatchController) ListApplications(ctx *fiber.Ctx) error {
	applications, err := c.matchService.ListApplications(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return respondServiceError(ctx, "Failed to list applications", err)
	}

	return ctx.JSON(fiber.Map{
		"status":       "success",
		"applications": applications,
		"count":        len(applications),
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Apply creates a pending application by the caller for a match
func (c *MatchController) Apply(ctx *fiber.Ctx) error {
	var req ApplyRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	application, err := c.matchService.Apply(ctx.Context(), middlewares.IdentityFromCtx(ctx), ctx.Params("id"), req.Message)
	if err != nil {
		return respondServiceError(ctx, "Failed to apply", err)
	}

	return ctx.Status(201).JSON(fiber.Map{
		"status":      "success",
		"message":     "Application submitted successfully",
		"application": application,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Approve confirms an applicant and closes the match
func (c *MatchController) Approve(ctx *fiber.Ctx) error {
	err := c.matchService.Approve(ctx.Context(), middlewares.IdentityFromCtx(ctx), ctx.Params("id"))
	if err != nil {
		return respondServiceError(ctx, "Failed to approve application", err)
	}

	return ctx.JSON(fiber.Map{
		"status":    "success",
		"message":   "Application approved successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// respondServiceError maps service errors onto HTTP statuses
func respondServiceError(ctx *fiber.Ctx, message string, err error) error {
	code := 500
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		code = 401
	case errors.Is(err, services.ErrForbidden):
		code = 403
	case services.IsNotFound(err):
		code = 404
	case errors.Is(err, services.ErrConflict):
		code = 409
	case errors.Is(err, services.ErrValidation):
		code = 400
	}

	return ctx.Status(code).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"error":   err.Error(),
	})
}
