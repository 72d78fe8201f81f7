package handlers

import (
	"io"
	"log/slog"
	"mime"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
)

const maxTranscriptSize = 1 << 20

type GeneratorHandler struct {
	s service.GeneratorService
}

func NewGeneratorHandler(s service.GeneratorService) *GeneratorHandler {
	return &GeneratorHandler{s: s}
}

func (h *GeneratorHandler) GenerateTweets(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file uploaded.",
		})
	}

	mediaType, _, _ := mime.ParseMediaType(file.Header.Get("Content-Type"))
	if mediaType != "text/plain" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Only .txt files are allowed.",
		})
	}
	if file.Size > maxTranscriptSize {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Transcript is too large.",
		})
	}

	f, err := file.Open()
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}
	defer f.Close()

	transcript, err := io.ReadAll(f)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to read file",
		})
	}

	tweets, err := h.s.GenerateTweets(c.Context(), string(transcript))
	if err != nil {
		return respondError(c, err, "Failed to generate tweets.")
	}
	return c.Status(fiber.StatusOK).JSON(transfer.GeneratedTweets{Tweets: tweets})
}
