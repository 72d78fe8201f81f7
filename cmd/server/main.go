package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/tweet-scheduler/configs"
	"github.com/maheshrc27/tweet-scheduler/internal/api"
	"github.com/maheshrc27/tweet-scheduler/internal/errtrack"
	job "github.com/maheshrc27/tweet-scheduler/internal/jobs"
	"github.com/maheshrc27/tweet-scheduler/internal/queue"
	"github.com/maheshrc27/tweet-scheduler/internal/repository"
	"github.com/maheshrc27/tweet-scheduler/internal/service"
	"github.com/maheshrc27/tweet-scheduler/pkg/utils"
	"github.com/urfave/cli/v3"
)

const shutdownTimeout = 2 * time.Minute

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(os.Stderr, "Warning: no .env file loaded:", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(utils.NewLogger(os.Stderr, cfg.LogLevel))

	serveCmd := &cli.Command{
		Name:   "serve",
		Usage:  "Run the dashboard API, the delivery scheduler and the task worker",
		Action: serve(cfg),
	}

	app := &cli.Command{
		Name:   "tweet-scheduler",
		Usage:  "Deliver scheduled posts to Twitter",
		Action: serveCmd.Action,
		Commands: []*cli.Command{
			serveCmd,
			{
				Name:   "deliver",
				Usage:  "Run one delivery pass and exit",
				Action: deliver(cfg),
			},
			{
				Name:   "migrate",
				Usage:  "Apply pending database migrations and exit",
				Action: migrate(cfg),
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", "error", err)
		errtrack.Flush(2 * time.Second)
		os.Exit(1)
	}
}

type components struct {
	db       *sql.DB
	services api.Services
	delivery *job.DeliveryJob
}

func bootstrap(ctx context.Context, cfg *config.Config) (*components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := errtrack.Init(cfg.Sentry); err != nil {
		slog.Warn("error tracking unavailable", "error", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	storage, err := service.NewMediaStorage(ctx, *cfg)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("media storage: %w", err)
	}

	postRepo := repository.NewPostRepository(db)
	credentialRepo := repository.NewCredentialRepository(db)
	communityTagRepo := repository.NewCommunityTagRepository(db)

	twitterService := service.NewTwitterService(cfg.Twitter, nil)
	accountService := service.NewAccountService(cfg.SecretKey, credentialRepo, twitterService)

	services := api.Services{
		Auth:         service.NewAuthService(cfg.OperatorPassword, cfg.SecretKey),
		Account:      accountService,
		Post:         service.NewPostService(db, postRepo, storage, cfg.Location()),
		CommunityTag: service.NewCommunityTagService(communityTagRepo),
		Generator:    service.NewGeneratorService(cfg.OpenAI),
	}

	delivery := job.NewDeliveryJob(postRepo, accountService, twitterService, storage, job.Options{
		VerifyCredentials: cfg.VerifyCredentials,
		ClaimTimeout:      cfg.ClaimTimeout,
	})

	return &components{db: db, services: services, delivery: delivery}, nil
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := repository.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	applied, err := repository.RunMigrations(ctx, db, cfg.DatabaseDriver)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	if applied > 0 {
		slog.Info("database migrated", "applied", applied)
	}
	return db, nil
}

func redisOpt(uri string) asynq.RedisConnOpt {
	if opt, err := asynq.ParseRedisURI(uri); err == nil {
		return opt
	}
	return asynq.RedisClientOpt{Addr: uri}
}

func serve(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		rt, err := bootstrap(ctx, cfg)
		if err != nil {
			return err
		}

		var (
			tasks  queue.Enqueuer
			worker *asynq.Server
		)
		if cfg.RedisURI != "" {
			redisConn := redisOpt(cfg.RedisURI)
			client := asynq.NewClient(redisConn)
			defer client.Close()
			tasks = client

			worker = asynq.NewServer(redisConn, asynq.Config{
				Concurrency: 1,
			})
			if err := worker.Start(queue.NewQueue(rt.delivery).ServeMux()); err != nil {
				closeDB(rt.db)
				return fmt.Errorf("start task worker: %w", err)
			}
			slog.Info("task worker started")
		} else {
			slog.Info("REDIS_URI not set, relying on the periodic delivery run only")
		}

		scheduler := job.NewScheduler(rt.delivery, cfg.DeliveryInterval)
		if err := scheduler.Start(); err != nil {
			closeDB(rt.db)
			return err
		}

		app := api.NewApp(*cfg, rt.db, rt.services, tasks)
		go func() {
			if err := app.Listen(cfg.ListenAddr); err != nil {
				slog.Error("failed to start server", "error", err)
			}
		}()
		slog.Info("server is running", "addr", cfg.ListenAddr)

		gracefulShutdown(app, scheduler, worker, rt.db)
		return nil
	}
}

func deliver(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		rt, err := bootstrap(ctx, cfg)
		if err != nil {
			return err
		}
		defer closeDB(rt.db)
		defer errtrack.Flush(2 * time.Second)

		err = rt.delivery.Run(ctx)
		if errors.Is(err, job.ErrCredentialMissing) {
			return nil
		}
		return err
	}
}

func migrate(cfg *config.Config) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		db, err := openDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		closeDB(db)
		return nil
	}
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

// gracefulShutdown blocks until SIGINT or SIGTERM, then stops intake first
// and lets the in-flight delivery run finish before the store is closed.
func gracefulShutdown(app *fiber.App, scheduler *job.Scheduler, worker *asynq.Server, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	if err := app.Shutdown(); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := scheduler.Stop(ctx); err != nil {
		slog.Warn("delivery run did not finish in time", "error", err)
	}

	if worker != nil {
		worker.Shutdown()
	}

	errtrack.Flush(2 * time.Second)
	closeDB(db)
	slog.Info("server shutdown complete")
}
