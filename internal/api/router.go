package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	config "github.com/maheshrc27/igpublisher/configs"
	"github.com/maheshrc27/igpublisher/internal/api/handlers"
	"github.com/maheshrc27/igpublisher/internal/api/middleware"
	"github.com/maheshrc27/igpublisher/internal/service"
	"github.com/maheshrc27/igpublisher/pkg/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Dependencies struct {
	Config    *config.Config
	Verifier  *utils.TokenVerifier
	DB        handlers.Pinger
	Platform  service.PlatformService
	Accounts  service.AccountService
	Posts     service.PostService
	Media     service.MediaService
	Processor service.PostProcessor
}

// NewApp wires the HTTP surface. accessLog toggles the request logger.
func NewApp(d Dependencies, accessLog bool) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 10 * time.Minute,
		BodyLimit:    service.MaxUploadSize + 1<<20,
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	if accessLog {
		app.Use(logger.New())
	}
	app.Use(middleware.Metrics())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.FrontendURL,
		AllowMethods:     "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	health := handlers.NewHealthHandler(d.DB)
	app.Get("/healthz", health.Healthz)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	authMiddleware := middleware.NewAuthMiddleware(d.Verifier, d.Config.SessionCookie)

	platform := handlers.NewPlatformHandler(d.Platform, d.Config.FrontendURL)
	app.Get("/auth/:platform", authMiddleware.AuthMiddleware(), platform.AddSocialAccount)
	app.Get("/auth/:platform/callback", platform.CallbackHandler)

	cron := handlers.NewCronHandler(d.Processor)
	app.Post("/cron/process-due-posts", middleware.CronSecret(d.Config.CronSecret), cron.ProcessDuePosts)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	accounts := handlers.NewAccountHandler(d.Accounts)
	api.Get("/accounts", accounts.ListSocialAccounts)
	api.Get("/accounts/:id", accounts.GetSocialAccount)
	api.Post("/accounts/:id/disconnect", accounts.DisconnectSocialAccount)
	api.Delete("/accounts/:id", accounts.DeleteSocialAccount)

	posts := handlers.NewPostHandler(d.Posts)
	api.Post("/posts", posts.CreatePost)
	api.Get("/posts", posts.ListPosts)
	api.Get("/posts/:id", posts.GetPost)
	api.Patch("/posts/:id", posts.UpdatePost)
	api.Post("/posts/:id/cancel", posts.CancelPost)
	api.Delete("/posts/:id", posts.RemovePost)

	if d.Media != nil {
		media := handlers.NewMediaHandler(d.Media)
		api.Post("/media", media.UploadMedia)
		api.Get("/media", media.ListMedia)
		api.Delete("/media/:id", media.RemoveMedia)
	}

	return app
}
