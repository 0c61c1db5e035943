// app/routes/routes.go
package routes

import (
	"time"

	"refmatch/app/controllers"
	"refmatch/app/middlewares"
	"refmatch/config"
	"refmatch/database"
	"refmatch/redis"

	"github.com/gofiber/fiber/v2"
)

func SetupRoutes(app *fiber.App, authController *controllers.AuthController, matchController *controllers.MatchController) {
	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		health := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  map[string]string{},
		}

		// Check MongoDB connection
		if err := database.HealthCheck(); err != nil {
			health["services"].(map[string]string)["mongodb"] = "error: " + err.Error()
		} else {
			health["services"].(map[string]string)["mongodb"] = "ok"
		}

		// Check Redis connection
		redisService := redis.NewService()
		if _, err := redisService.GetClient().Ping(redisService.GetContext()).Result(); err != nil {
			health["services"].(map[string]string)["redis"] = "error: " + err.Error()
		} else {
			health["services"].(map[string]string)["redis"] = "ok"
		}

		return c.JSON(health)
	})

	// API version endpoint
	app.Get("/api/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"version":   config.AppVersion,
			"name":      config.AppName,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")

	// Identity
	api.Post("/auth/login", authController.Login)
	api.Post("/auth/logout", authController.Logout)
	api.Get("/auth/me", middlewares.JWTAuth(), authController.Me)

	// Matches: reads are public, every write requires an authenticated caller
	api.Get("/matches/:id", matchController.GetMatch)
	api.Post("/matches", middlewares.JWTAuth(), matchController.CreateMatch)
	api.Get("/matches/:id/applications", middlewares.JWTAuth(), matchController.ListApplications)
	api.Post("/matches/:id/applications", middlewares.JWTAuth(), matchController.Apply)
	api.Post("/applications/:id/approve", middlewares.JWTAuth(), matchController.Approve)
}
