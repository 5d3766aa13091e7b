package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/streamnest/community-api/internal/achievements"
	"github.com/streamnest/community-api/internal/config"
	"github.com/streamnest/community-api/internal/database"
	"github.com/streamnest/community-api/internal/handler"
	"github.com/streamnest/community-api/internal/middleware"
	"github.com/streamnest/community-api/internal/models"
	"github.com/streamnest/community-api/internal/repository"
	"github.com/streamnest/community-api/internal/router"
	"github.com/streamnest/community-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.UserProgress{}, &models.AchievementUnlock{}, &models.ActivityEvent{}, &models.ModerationAction{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Close()
	}

	catalog, err := loadCatalog(cfg)
	if err != nil {
		log.Fatalf("failed to load achievement catalog: %v", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	progressRepo := repository.NewProgressRepository(db)
	unlockRepo := repository.NewAchievementUnlockRepository(db)
	activityRepo := repository.NewActivityEventRepository(db)
	moderationRepo := repository.NewModerationActionRepository(db)

	feedService := service.NewActivityFeedService(activityRepo, redisClient, cfg.FeedCacheTTL, natsConn, cfg.NATSSubject, logger)
	achievementService := service.NewAchievementService(catalog, unlockRepo, feedService, logger)
	progressService := service.NewProgressService(progressRepo, achievementService, feedService, validate, logger)
	moderationService := service.NewModerationService(moderationRepo, service.SystemClock(), validate, logger)

	progressHandler := handler.NewProgressHandler(progressService, logger)
	achievementHandler := handler.NewAchievementHandler(achievementService, logger)
	activityHandler := handler.NewActivityFeedHandler(feedService, achievementService, logger)
	moderationHandler := handler.NewModerationHandler(moderationService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ProgressHandler:     progressHandler,
		AchievementHandler:  achievementHandler,
		ActivityFeedHandler: activityHandler,
		ModerationHandler:   moderationHandler,
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go runSweep(sweepCtx, moderationService, cfg.SweepInterval, logger)

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func loadCatalog(cfg config.Config) (*achievements.Catalog, error) {
	if cfg.CatalogPath != "" {
		return achievements.LoadFile(cfg.CatalogPath)
	}
	return achievements.LoadDefault()
}

// runSweep periodically deactivates expired timeouts. Enforcement queries
// already correct expired state lazily; the sweep keeps the stored state
// tidy for moderation history views.
func runSweep(ctx context.Context, moderation service.ModerationService, interval time.Duration, logger zerolog.Logger) {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := moderation.Sweep(ctx); err != nil {
				logger.Warn().Err(err).Msg("moderation sweep failed")
			}
		}
	}
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
