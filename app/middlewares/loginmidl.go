// app/middlewares/loginmidl.go
package middlewares

import (
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"refmatch/app/models"
	"refmatch/app/utils"
)

// JWTAuth validates the Authorization bearer token and stores the caller's
// identity in the request locals. Requests without a valid token get 401.
func JWTAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Authorization header is required",
			})
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid authorization header format",
			})
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := utils.VerifyAccessToken(tokenString)
		if err != nil {
			log.Printf("JWT validation failed: %v", err)
			return c.Status(401).JSON(fiber.Map{
				"status":  "error",
				"message": "Invalid access token",
				"details": err.Error(),
			})
		}

		c.Locals("uid", claims.UID)
		c.Locals("display_name", claims.DisplayName)

		return c.Next()
	}
}

// IdentityFromCtx returns the authenticated identity the middleware stored,
// or nil when the request carried no valid token
func IdentityFromCtx(c *fiber.Ctx) *models.Identity {
	uid, ok := c.Locals("uid").(string)
	if !ok || uid == "" {
		return nil
	}
	displayName, _ := c.Locals("display_name").(string)
	return &models.Identity{
		UID:         uid,
		DisplayName: displayName,
	}
}
