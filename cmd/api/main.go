package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"propertylens_backend/internal/controller"
	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/config"
	"propertylens_backend/pkg/cron"
	"propertylens_backend/pkg/database"
	"propertylens_backend/pkg/email"
	"propertylens_backend/pkg/llm"
	"propertylens_backend/pkg/logger"
	"propertylens_backend/pkg/utils/jwt"
	"propertylens_backend/pkg/utils/storage"
)

func accountStore(cfg *config.Config) (database.AccountStore, error) {
	if cfg.Database.URL == "" {
		logger.Log.WithField("file", cfg.Database.UsersFile).Info("Using file account store")
		return database.NewFileAccountStore(cfg.Database.UsersFile), nil
	}

	db, err := database.InitDB(cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := database.MigrateDatabase(db, &model.User{}); err != nil {
		logger.Log.WithError(err).Warn("Migration warning")
	}
	return database.NewGormAccountStore(db), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	if !cfg.LLM.HasAPIKey() {
		logger.Log.Warn("ANTHROPIC_API_KEY is not set. Add it to .env; model endpoints will answer 500 until then")
	}

	jwt.Init(cfg.JWT.Secret, cfg.JWT.TokenTTL())

	accounts, err := accountStore(cfg)
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not initialize account store")
	}
	controller.InitAuthController(accounts)

	if err := email.InitEmailService(cfg.Email.ResendAPIKey, cfg.Email.From); err != nil {
		logger.Log.WithError(err).Warn("Email service disabled")
	}

	ctx := context.Background()
	archive, err := storage.New(ctx, cfg.Archive)
	if err != nil {
		logger.Log.WithError(err).Fatal("Could not initialize document archive")
	}
	stopSweep := func() {}
	if cfg.Archive.Enabled() {
		sweeper, err := cron.InitArchiveSweepCron(cfg.Archive.SweepSchedule, archive, cfg.Archive.Retention())
		if err != nil {
			logger.Log.WithError(err).Fatal("Could not schedule archive sweep")
		}
		stopSweep = func() { cron.StopSweep(sweeper) }
	}

	controller.InitRelayController(controller.RelayDeps{
		Model:      llm.NewAnthropic(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, cfg.LLM.Timeout()),
		Configured: cfg.LLM.HasAPIKey(),
		Archive:    archive,
	})

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.Server.BodyLimitMB * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORSOrigins}))

	controller.SetupRoutes(app)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logger.Log.Info("Shutting down")
		stopSweep()
		_ = app.Shutdown()
	}()

	logger.Log.WithField("port", cfg.Server.Port).Info("Server is running")
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Log.WithError(err).Fatal("Server stopped")
	}
}
