package ridelog

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/WernerBudtke/moto-app/internal/ride"
)

func RegisterRoutes(r fiber.Router, store *Store, authMiddleware fiber.Handler) {
	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req ride.Summary
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Timestamp == "" {
			return fiber.NewError(fiber.StatusBadRequest, "timestamp required")
		}
		if err := store.Append(c.Context(), userID(c), req); err != nil {
			return statusFor(err)
		}
		return c.Status(fiber.StatusCreated).JSON(req)
	})

	r.Get("/", authMiddleware, func(c *fiber.Ctx) error {
		rides, err := store.ListAll(c.Context(), userID(c))
		if err != nil {
			return statusFor(err)
		}
		return c.JSON(rides)
	})

	r.Get("/:timestamp", authMiddleware, func(c *fiber.Ctx) error {
		summary, found, err := store.FindByID(c.Context(), userID(c), c.Params("timestamp"))
		if err != nil {
			return statusFor(err)
		}
		if !found {
			return fiber.NewError(fiber.StatusNotFound, "ride not found")
		}
		return c.JSON(summary)
	})

	r.Delete("/:timestamp", authMiddleware, func(c *fiber.Ctx) error {
		if err := store.DeleteByID(c.Context(), userID(c), c.Params("timestamp")); err != nil {
			return statusFor(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

func statusFor(err error) error {
	switch {
	case errors.Is(err, ErrStoreUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, ErrCorruptData):
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
