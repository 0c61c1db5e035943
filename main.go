// main.go
package main

import (
	"fmt"
	"log"

	"refmatch/app/controllers"
	"refmatch/app/routes"
	"refmatch/app/services"
	"refmatch/app/sockets"
	"refmatch/config"
	"refmatch/database"
	"refmatch/redis"

	"github.com/gofiber/fiber/v2"
)

func main() {
	app := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		StrictRouting: true,
		ServerHeader:  "Fiber",
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			ctx.Status(code)
			return ctx.JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Required connection parameters must be present before anything starts
	config.MustValidate()

	// Initialize database first
	fmt.Println("🔌 Initializing database connection...")
	if err := database.InitDB(); err != nil {
		log.Fatalf("❌ Failed to connect to the database: %v", err)
	}
	fmt.Println("✅ Database initialized successfully")

	gateway := database.NewMongoGateway(database.MongoClient, database.MongoDatabase)

	// Initialize services
	fmt.Println("🔧 Initializing services...")
	sessionService := services.NewSessionService(gateway, redis.NewService())
	authService := services.NewAuthService(gateway, sessionService)
	matchService := services.NewMatchService(gateway)
	fmt.Println("✅ Services initialized")

	// Initialize Socket.IO handler for live queries
	fmt.Println("🔌 Initializing Socket.IO handler...")
	socketHandler := sockets.NewSocketHandler(gateway, authService)
	fmt.Println("✅ Socket.IO handler initialized")

	// Setup Socket.IO routes (this should be before regular routes)
	socketHandler.SetupSocketRoutes(app)

	// Initialize regular routes
	authController := controllers.NewAuthController(authService)
	matchController := controllers.NewMatchController(matchService)
	routes.SetupRoutes(app, authController, matchController)

	port := config.ServerPort
	fmt.Printf("🚀 Server starting on port :%d\n", port)
	fmt.Printf("🔌 Socket.IO server available at :%d/socket.io\n", port)

	log.Fatal(app.Listen(fmt.Sprintf(":%d", port)))
}
