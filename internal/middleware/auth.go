package middleware

import (
	"context"

	"go-forum/internal/common/models"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionValidator turns a bearer token into a user id or a typed
// failure. Implemented by the user service.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (primitive.ObjectID, error)
}

// AuthMiddleware validates bearer tokens and injects the resolved user
// id into the request context. Every failure, malformed token included,
// ends as a plain 401.
func AuthMiddleware(validator SessionValidator, skipAuth bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if skipAuth {
			// Dev shortcut: a fixed identity, no token required
			c.Locals(models.UserIDKey, primitive.NilObjectID)
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header required",
			})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		userID, err := validator.ValidateSession(c.UserContext(), authHeader[7:])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid token",
			})
		}

		c.Locals(models.UserIDKey, userID)
		return c.Next()
	}
}

// UserID pulls the authenticated user id injected by AuthMiddleware.
func UserID(c *fiber.Ctx) (primitive.ObjectID, bool) {
	id, ok := c.Locals(models.UserIDKey).(primitive.ObjectID)
	return id, ok
}
