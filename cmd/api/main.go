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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nanashi-dev/nanashi-board/internal/config"
	"github.com/nanashi-dev/nanashi-board/internal/database"
	"github.com/nanashi-dev/nanashi-board/internal/handler"
	"github.com/nanashi-dev/nanashi-board/internal/hub"
	"github.com/nanashi-dev/nanashi-board/internal/middleware"
	"github.com/nanashi-dev/nanashi-board/internal/models"
	"github.com/nanashi-dev/nanashi-board/internal/presence"
	"github.com/nanashi-dev/nanashi-board/internal/ratelimit"
	"github.com/nanashi-dev/nanashi-board/internal/repository"
	"github.com/nanashi-dev/nanashi-board/internal/router"
	"github.com/nanashi-dev/nanashi-board/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Thread{}, &models.Post{}); err != nil {
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	validate := validator.New(validator.WithRequiredStructEnabled())

	limiter := ratelimit.New(cfg.PostCooldown, cfg.LimiterPruneEvery, cfg.LimiterEntryTTL, logger)
	limiter.Start(ctx)

	rooms := hub.New(logger)
	registry := presence.NewRegistry()
	cache := service.NewRoomCache(redisClient, "", cfg.RoomCacheTTL, logger)

	boardRepo := repository.NewBoardRepository(db)
	boardService := service.NewBoardService(boardRepo, limiter, rooms, cache, validate, cfg.AnonymousName, logger)
	roomService := service.NewRoomService(boardService, rooms, registry, cache, cfg.RoomSendBufferSize, logger)

	boardHandler := handler.NewBoardHandler(boardService, validate, logger)
	roomHandler := handler.NewRoomHandler(roomService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		BoardHandler: boardHandler,
		RoomHandler:  roomHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(ctx, app)
}

func waitForShutdown(ctx context.Context, app *fiber.App) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
