// Package api assembles the dashboard HTTP surface.
package api

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/maheshrc27/tweet-scheduler/internal/api/handlers"
	"github.com/maheshrc27/tweet-scheduler/internal/api/middleware"
	"github.com/maheshrc27/tweet-scheduler/internal/queue"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
)

type Services struct {
	Auth         service.AuthService
	Account      service.AccountService
	Post         service.PostService
	CommunityTag service.CommunityTagService
	Generator    service.GeneratorService
}

// NewApp wires every route. tasks may be nil when no queue is configured.
func NewApp(cfg config.Config, db *sql.DB, s Services, tasks queue.Enqueuer) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		BodyLimit:    100 * 1024 * 1024, // 100 MB
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			slog.Error("request failed", "path", c.Path(), "error", err)
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	authMiddleware := middleware.NewAuthMiddleware(cfg, s.Auth)

	health := handlers.NewHealthHandler(db)
	app.Get("/health", health.Health)
	app.Get("/metrics", health.Metrics)

	auth := handlers.NewAuthHandler(cfg, s.Auth)
	app.Post("/login", auth.Login)
	app.Post("/logout", auth.Logout)

	platform := handlers.NewPlatformHandler(s.Account, cfg)
	app.Get("/auth/twitter", authMiddleware.AuthMiddleware(), platform.Connect)
	app.Get("/auth/twitter/callback", platform.Callback)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	api.Get("/session", auth.Session)
	api.Get("/account", platform.GetAccount)
	api.Delete("/account", platform.DeleteAccount)

	post := handlers.NewPostHandler(s.Post, tasks)
	api.Get("/posts", post.ListPosts)
	api.Post("/posts", post.CreatePost)
	api.Delete("/posts", post.RemoveAllPosts)
	api.Post("/posts/batch", post.BatchSchedule)
	api.Get("/posts/:id", post.GetPost)
	api.Put("/posts/:id", post.UpdatePost)
	api.Delete("/posts/:id", post.RemovePost)
	api.Post("/posts/:id/cancel", post.CancelPost)

	tags := handlers.NewCommunityTagHandler(s.CommunityTag)
	api.Get("/community-tags", tags.ListTags)
	api.Post("/community-tags", tags.CreateTag)
	api.Put("/community-tags/:id", tags.UpdateTag)
	api.Delete("/community-tags/:id", tags.RemoveTag)

	generator := handlers.NewGeneratorHandler(s.Generator)
	api.Post("/generate", generator.GenerateTweets)

	return app
}
