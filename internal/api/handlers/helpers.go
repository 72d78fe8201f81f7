package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
)

func GetSubject(c *fiber.Ctx) string {
	subject, _ := c.Locals("subject").(string)
	return subject
}

func paramID(c *fiber.Ctx) (int64, error) {
	return strconv.ParseInt(c.Params("id"), 10, 64)
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidPost),
		errors.Is(err, service.ErrInvalidTag),
		errors.Is(err, service.ErrEmptyTranscript):
		return fiber.StatusBadRequest
	case errors.Is(err, service.ErrPostNotFound), errors.Is(err, service.ErrTagNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrPostConflict):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrGeneratorResponse), errors.Is(err, service.ErrHandshake):
		return fiber.StatusBadGateway
	case errors.Is(err, service.ErrGeneratorUnavailable):
		return fiber.StatusServiceUnavailable
	}
	return fiber.StatusInternalServerError
}

// respondError maps service errors to a status. Internal errors are logged
// and answered with fallback instead of the error text.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	status := errorStatus(err)
	if status == fiber.StatusInternalServerError {
		slog.Error(err.Error(), "path", c.Path())
		return c.Status(status).JSON(fiber.Map{
			"error": fallback,
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
