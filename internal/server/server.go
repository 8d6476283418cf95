package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/WernerBudtke/moto-app/internal/auth"
	"github.com/WernerBudtke/moto-app/internal/config"
	"github.com/WernerBudtke/moto-app/internal/ridelog"
	"github.com/WernerBudtke/moto-app/internal/stream"
	"github.com/WernerBudtke/moto-app/internal/tracking"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Tracking *tracking.Service
}

func NewServer(cfg config.Config, pg *pgxpool.Pool, redisClient *redis.Client, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient, log)

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     pg,
		Redis:  redisClient,
		Stream: hub,
		Tracking: tracking.NewService(tracking.Config{
			MinDistanceKm: cfg.MinDistanceKm,
			MinSpeedKmh:   cfg.MinSpeedKmh,
		}, hub, log),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authSvc := auth.NewService(s.Cfg.JWTSecret, s.DB, s.Redis)
	jwtMiddleware := authSvc.Middleware()

	auth.RegisterRoutes(s.App.Group("/auth"), authSvc)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, jwtMiddleware)
	ridelog.RegisterRoutes(s.App.Group("/rides"), ridelog.NewStore(s.Redis, s.Cfg.StoreTimeout), jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}
