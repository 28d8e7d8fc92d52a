package middleware

import (
	"github.com/gofiber/fiber/v2"

	"propertylens_backend/pkg/subscription"
)

// HasFeature reports whether the caller's plan includes feature. Anonymous
// callers have no plan features.
func HasFeature(c *fiber.Ctx, feature subscription.Feature) bool {
	claims := Claims(c)
	if claims == nil {
		return false
	}
	return subscription.CanUseFeature(subscription.ParsePlan(claims.Plan), feature)
}
