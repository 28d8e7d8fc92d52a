package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"propertylens_backend/pkg/utils/jwt"
)

const userKey = "user"

func bearerToken(c *fiber.Ctx) (string, bool) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware rejects requests without a valid bearer token and stores
// the claims under Locals("user").
func AuthMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization token required",
			})
		}

		claims, err := jwt.ValidateToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(userKey, claims)
		return c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and lets
// anonymous requests through unchanged.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if claims, err := jwt.ValidateToken(token); err == nil {
				c.Locals(userKey, claims)
			}
		}
		return c.Next()
	}
}

// Claims returns the authenticated user's claims, or nil.
func Claims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(userKey).(*jwt.Claims)
	return claims
}
