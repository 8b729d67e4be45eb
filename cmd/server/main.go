package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/api"
	"github.com/maheshrc27/igpublisher/internal/database"
	job "github.com/maheshrc27/igpublisher/internal/jobs"
	"github.com/maheshrc27/igpublisher/internal/queue"
	"github.com/maheshrc27/igpublisher/internal/repository"
	"github.com/maheshrc27/igpublisher/internal/service"
	"github.com/maheshrc27/igpublisher/pkg/utils"
	"github.com/robfig/cron"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file loaded", "error", err)
	}

	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fatal("invalid configuration", err)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.Connect(ctx, cfg.PostgresURI)
	if err != nil {
		fatal("failed to connect to database", err)
	}
	defer closeDB(db)

	if err := database.Migrate(db); err != nil {
		fatal("failed to apply migrations", err)
	}

	cipher, err := utils.NewTokenCipher([]byte(cfg.TokenEncryptionKey))
	if err != nil {
		fatal("invalid token encryption key", err)
	}

	verifier := utils.NewHMACVerifier(cfg.JWTSecret)
	if cfg.JWKSURL != "" {
		verifier, err = utils.NewJWKSVerifier(ctx, cfg.JWKSURL)
		if err != nil {
			fatal("failed to load identity provider keys", err)
		}
	}

	oauthStateRepo := repository.NewOAuthStateRepository(db)
	socialAccountRepo := repository.NewSocialAccountRepository(db)
	postRepo := repository.NewPostRepository(db)
	containerRepo := repository.NewMediaContainerRepository(db)
	mediaAssetRepo := repository.NewMediaAssetRepository(db)

	instagramService := service.NewInstagramService(cfg.Instagram, &http.Client{Timeout: 30 * time.Second}, nil)
	stateStore := service.NewOAuthStateStore(oauthStateRepo, cfg.OAuthStateTTL, nil)
	accountService := service.NewAccountService(socialAccountRepo, instagramService, cipher, cfg.TokenRefreshWindow, nil)
	platformService := service.NewPlatformService(stateStore, instagramService, accountService)
	tracker := service.NewContainerTracker(containerRepo, instagramService, cfg.Processor.PollInterval, cfg.Processor.PollAttempts, nil)
	processor := service.NewPostProcessor(postRepo, socialAccountRepo, accountService, tracker, instagramService, cfg.Processor, nil)

	// Media uploads are only served when an R2 bucket is configured.
	var mediaService service.MediaService
	if cfg.R2.BucketName != "" {
		r2Service, err := service.NewR2Service(ctx, cfg.R2)
		if err != nil {
			fatal("failed to configure object storage", err)
		}
		mediaService = service.NewMediaService(mediaAssetRepo, r2Service, nil)
	}

	// Without Redis the cron sweep is the only publish trigger.
	var scheduler service.PublishScheduler
	var asynqServer *asynq.Server
	if cfg.RedisURI != "" {
		redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
		client := asynq.NewClient(redisConn)
		defer client.Close()
		scheduler = queue.NewScheduler(client)

		asynqServer = asynq.NewServer(redisConn, asynq.Config{
			Concurrency: cfg.Processor.Concurrency,
		})
		mux := asynq.NewServeMux()
		queue.NewQueue(processor).Register(mux)

		go func() {
			slog.Info("starting the asynq server")
			if err := asynqServer.Run(mux); err != nil {
				fatal("could not start asynq server", err)
			}
		}()
	}

	postService := service.NewPostService(postRepo, accountService, scheduler, cfg.Limits, nil)

	c := cron.New()
	err = job.Register(c, cfg.Processor.Schedule,
		job.NewDuePostJob(processor, cfg.Processor.RunTimeout),
		job.NewTokenRefreshJob(accountService),
		job.NewMaintenanceJob(stateStore, tracker, processor),
	)
	if err != nil {
		fatal("invalid cron schedule", err)
	}
	c.Start()

	app := api.NewApp(api.Dependencies{
		Config:    cfg,
		Verifier:  verifier,
		DB:        db,
		Platform:  platformService,
		Accounts:  accountService,
		Posts:     postService,
		Media:     mediaService,
		Processor: processor,
	}, true)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			fatal("failed to start server", err)
		}
	}()
	slog.Info("server is running", "port", cfg.Port)

	gracefulShutdown(app, c, asynqServer)
}

func closeDB(db *sqlx.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, c *cron.Cron, asynqServer *asynq.Server) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	slog.Info("shutting down server")

	c.Stop()
	if asynqServer != nil {
		asynqServer.Shutdown()
	}
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	slog.Info("server shutdown complete")
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
