package handlers

import (
	"context"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/tweet-scheduler/internal/models"
	"github.com/maheshrc27/tweet-scheduler/internal/queue"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
	"github.com/maheshrc27/tweet-scheduler/internal/transfer"
)

type PostHandler struct {
	s     service.PostService
	tasks queue.Enqueuer
}

// NewPostHandler builds the handler. tasks may be nil, in which case posts
// are only picked up by the periodic delivery run.
func NewPostHandler(service service.PostService, tasks queue.Enqueuer) *PostHandler {
	return &PostHandler{s: service, tasks: tasks}
}

func (h *PostHandler) enqueue(ctx context.Context, id int64, at time.Time) {
	if h.tasks == nil {
		return
	}
	err := queue.EnqueueDelivery(ctx, h.tasks, queue.DeliverPostPayload{PostID: id}, time.Until(at))
	if err != nil {
		slog.Warn("unable to queue delivery task", "post_id", id, "error", err)
	}
}

func formFiles(c *fiber.Ctx) ([]*multipart.FileHeader, map[string][]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, err
	}
	return form.File["files"], form.Value, nil
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	files, _, err := formFiles(c)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	post, err := h.s.Create(c.Context(), &transfer.PostCreation{
		Text:          c.FormValue("text"),
		ScheduledTime: c.FormValue("scheduled_time"),
		CommunityID:   c.FormValue("community_id"),
	}, files)
	if err != nil {
		return respondError(c, err, "Unable to schedule post")
	}

	h.enqueue(c.Context(), post.ID, post.ScheduledTime)
	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	files, values, err := formFiles(c)
	if err != nil {
		slog.Error(err.Error())
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unable to parse form",
		})
	}

	update := &transfer.PostUpdate{
		Text:          c.FormValue("text"),
		ScheduledTime: c.FormValue("scheduled_time"),
		CommunityID:   c.FormValue("community_id"),
	}
	if keep, ok := values["keep_media"]; ok {
		update.KeepMedia = keep
	}

	post, err := h.s.Update(c.Context(), id, update, files)
	if err != nil {
		return respondError(c, err, "Unable to update post")
	}

	h.enqueue(c.Context(), post.ID, post.ScheduledTime)
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	post, err := h.s.Get(c.Context(), id)
	if err != nil {
		return respondError(c, err, "Unable to fetch post")
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context())
	if err != nil {
		return respondError(c, err, "Unable to list posts")
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) CancelPost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Cancel(c.Context(), id); err != nil {
		return respondError(c, err, "Unable to cancel post")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"id":     id,
		"status": models.PostStatusCancelled,
	})
}

func (h *PostHandler) RemovePost(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid post id",
		})
	}

	if err := h.s.Remove(c.Context(), id); err != nil {
		return respondError(c, err, "Unable to remove post")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *PostHandler) RemoveAllPosts(c *fiber.Ctx) error {
	n, err := h.s.RemoveAll(c.Context())
	if err != nil {
		return respondError(c, err, "Unable to remove posts")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"removed": n,
	})
}

func (h *PostHandler) BatchSchedule(c *fiber.Ctx) error {
	var req transfer.BatchSchedule
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.s.BatchSchedule(c.Context(), &req)
	if err != nil {
		return respondError(c, err, "Unable to schedule posts")
	}

	for _, p := range result.Posts {
		h.enqueue(c.Context(), p.ID, p.ScheduledTime)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
