package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
)

type CommunityTagHandler struct {
	s service.CommunityTagService
}

func NewCommunityTagHandler(s service.CommunityTagService) *CommunityTagHandler {
	return &CommunityTagHandler{s: s}
}

func (h *CommunityTagHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.s.List(c.Context())
	if err != nil {
		return respondError(c, err, "Unable to list community tags")
	}
	return c.Status(fiber.StatusOK).JSON(tags)
}

func (h *CommunityTagHandler) CreateTag(c *fiber.Ctx) error {
	var in transfer.CommunityTagInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	tag, err := h.s.Create(c.Context(), &in)
	if err != nil {
		return respondError(c, err, "Unable to create community tag")
	}
	return c.Status(fiber.StatusCreated).JSON(tag)
}

func (h *CommunityTagHandler) UpdateTag(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tag id",
		})
	}

	var in transfer.CommunityTagInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	tag, err := h.s.Update(c.Context(), id, &in)
	if err != nil {
		return respondError(c, err, "Unable to update community tag")
	}
	return c.Status(fiber.StatusOK).JSON(tag)
}

func (h *CommunityTagHandler) RemoveTag(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid tag id",
		})
	}

	if err := h.s.Remove(c.Context(), id); err != nil {
		return respondError(c, err, "Unable to remove community tag")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
