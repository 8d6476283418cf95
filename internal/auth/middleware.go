package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Middleware authenticates the bearer access token and stores the rider's id
// in locals under "user_id" for the tracking and ride log handlers.
func (s *Service) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		scheme, token, ok := strings.Cut(c.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		userID, err := s.ValidateAccessToken(token)
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, err.Error())
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
