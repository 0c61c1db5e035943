package controllers

import (
	"errors"
	"time"

	"refmatch/app/middlewares"
	"refmatch/app/services"

	"github.com/gofiber/fiber/v2"
)

// AuthController handles HTTP endpoints for sign-in, sign-out and profile
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController creates a new auth controller instance
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

// LogoutRequest identifies the session to deactivate
type LogoutRequest struct {
	SessionToken string `json:"session_token"`
}

// Login exchanges a completed provider sign-in for an access token
func (c *AuthController) Login(ctx *fiber.Ctx) error {
	var req services.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	response, err := c.authService.HandleLogin(req)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			return ctx.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Sign-in failed",
				"error":   err.Error(),
			})
		}
		return ctx.Status(500).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to sign in",
			"error":   err.Error(),
		})
	}

	return ctx.JSON(response)
}

// Logout deactivates the caller's session
func (c *AuthController) Logout(ctx *fiber.Ctx) error {
	var req LogoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	if req.SessionToken == "" {
		return ctx.Status(400).JSON(fiber.Map{
			"status":  "error",
			"message": "Missing required field: session_token",
		})
	}

	if err := c.authService.HandleLogout(req.SessionToken); err != nil {
		return ctx.Status(500).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to sign out",
			"error":   err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{
		"status":    "success",
		"message":   "Signed out successfully",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Me returns the merged profile of the authenticated caller
func (c *AuthController) Me(ctx *fiber.Ctx) error {
	identity := middlewares.IdentityFromCtx(ctx)
	if identity == nil {
		return ctx.Status(401).JSON(fiber.Map{
			"status":  "error",
			"message": "Authentication required",
		})
	}

	profile, err := c.authService.GetProfile(identity.UID)
	if err != nil {
		if services.IsNotFound(err) {
			return ctx.Status(404).JSON(fiber.Map{
				"status":  "error",
				"message": "Profile not found",
			})
		}
		return ctx.Status(500).JSON(fiber.Map{
			"status":  "error",
			"message": "Failed to load profile",
			"error":   err.Error(),
		})
	}

	return ctx.JSON(fiber.Map{
		"status":    "success",
		"profile":   profile,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
