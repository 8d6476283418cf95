package tracking

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Post("/start", authMiddleware, func(c *fiber.Ctx) error {
		state, err := svc.Start(userID(c))
		if err != nil {
			return statusFor(err)
		}
		return c.Status(fiber.StatusCreated).JSON(state)
	})

	r.Post("/samples", authMiddleware, func(c *fiber.Ctx) error {
		var req RawSample
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		state, err := svc.Sample(userID(c), req)
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(state)
	})

	r.Get("/state", authMiddleware, func(c *fiber.Ctx) error {
		return c.JSON(svc.State(userID(c)))
	})

	r.Post("/stop", authMiddleware, func(c *fiber.Ctx) error {
		summary, err := svc.Stop(userID(c))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(summary)
	})

	r.Get("/last", authMiddleware, func(c *fiber.Ctx) error {
		summary, ok := svc.LastSummary(userID(c))
		if !ok {
			return fiber.NewError(fiber.StatusNotFound, "no completed ride")
		}
		return c.JSON(summary)
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func statusFor(err error) error {
	if errors.Is(err, ErrInvalidTransition) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
