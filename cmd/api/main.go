package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/api/handlers"
	"github.com/hotelchat/backend/internal/cache/redis"
	"github.com/hotelchat/backend/internal/metrics"
	"github.com/hotelchat/backend/internal/middleware/ratelimit"
	"github.com/hotelchat/backend/internal/middleware/security"
	"github.com/hotelchat/backend/internal/middleware/validation"
	"github.com/hotelchat/backend/internal/scraper"
	"github.com/hotelchat/backend/internal/service"
	"github.com/hotelchat/backend/internal/storage/sqlite"
	"github.com/hotelchat/backend/pkg/config"
	appLogger "github.com/hotelchat/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Hotel Knowledge Base API Server")

	metrics.Init()

	sqliteClient, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to create SQLite client", zap.Error(err))
	}
	defer sqliteClient.Close()

	err = sqliteClient.InitSchema()
	if err != nil {
		appLogger.Fatal("Failed to initialize schema", zap.Error(err))
	}

	var pageCache scraper.PageCache
	var cacheClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(
			cfg.Redis.Host,
			cfg.Redis.Port,
			cfg.Redis.Password,
			cfg.Redis.DB,
			time.Duration(cfg.Redis.PageTTL)*time.Second,
		)
		if err != nil {
			appLogger.Warn("Redis unavailable, crawling without page cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			pageCache = redisClient
			cacheClient = redisClient
		}
	}

	svc := service.NewKnowledgeService(cfg, sqliteClient, pageCache, appLogger.Log)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		Logger: appLogger.Log,
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Hotel-ID",
		AllowMethods: "GET, POST, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{}))
	app.Use(limiter.Middleware())
	app.Use(validation.Middleware(validation.Config{
		MaxUploadSize: cfg.Ingest.MaxFileSizeMB * 1024 * 1024,
		Logger:        appLogger.Log,
	}))

	scrapeHandler := handlers.NewScrapeHandler(svc)
	documentHandler := handlers.NewDocumentHandler(svc)
	resultsHandler := handlers.NewResultsHandler(svc)
	wsHandler := handlers.NewWebSocketHandler(svc.Progress())

	api := app.Group("/api/v1")

	api.Post("/scrape", scrapeHandler.StartScrape)
	api.Post("/scrape/preview", scrapeHandler.PreviewScrape)

	api.Post("/documents", documentHandler.UploadDocument)

	api.Get("/results/:hotel_id", resultsHandler.GetResults)
	api.Get("/chunks/:hotel_id", resultsHandler.GetChunks)
	api.Get("/status/:hotel_id", resultsHandler.GetStatus)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Unix(),
		})
	})

	api.Delete("/cache", func(c *fiber.Ctx) error {
		if cacheClient == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Page cache is not enabled",
			})
		}
		if err := cacheClient.InvalidateHotelPages(c.Context()); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to invalidate page cache",
			})
		}
		return c.JSON(fiber.Map{"status": "cache cleared"})
	})

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/progress/:hotel_id", websocket.New(wsHandler.HandleProgress))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}
