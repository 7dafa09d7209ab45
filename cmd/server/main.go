package main

import (
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/workodr/marketplace-api/internal/config"
	"github.com/workodr/marketplace-api/internal/database"
	"github.com/workodr/marketplace-api/internal/handler"
	"github.com/workodr/marketplace-api/internal/logger"
	"github.com/workodr/marketplace-api/internal/repository"
	"github.com/workodr/marketplace-api/internal/router"
	queue_publisher "github.com/workodr/marketplace-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment

	cfg := config.Load()
	log := logger.New(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn().Msg("redis unavailable, rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	loginLogs := repository.NewLoginLogRepo(db)
	jobs := repository.NewJobOrderRepo(db)
	works := repository.NewWorkOrderRepo(db)
	assignments := repository.NewAssignmentRepo(db)
	plans := repository.NewWorkPlanRepo(db)
	invoices := repository.NewInvoiceRepo(db)

	authHandler := handler.NewAuthHandler(cfg, log, users, tokens, loginLogs)
	authHandler.Publish = queue_publisher.PublishAuthEvent

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:  true,
		LogMethod:  true,
		LogURI:     true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	router.Register(e, router.Deps{
		Cfg:         cfg,
		Log:         log,
		Redis:       rdb,
		RateLimit:   config.LoadRateLimitConfig(),
		Cache:       config.LoadCacheConfig(),
		Tokens:      tokens,
		Auth:        authHandler,
		JobOrders:   handler.NewJobOrderHandler(log, jobs),
		WorkOrders:  handler.NewWorkOrderHandler(log, jobs, works, assignments),
		Assignments: handler.NewAssignmentHandler(log, assignments, jobs),
		WorkPlans:   handler.NewWorkPlanHandler(log, assignments, plans, jobs),
		Invoices:    handler.NewInvoiceHandler(log, works, invoices),
	})

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
