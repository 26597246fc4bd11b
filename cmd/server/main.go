package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/salesops/resource-planner/internal/config"
	"github.com/salesops/resource-planner/internal/database"
	"github.com/salesops/resource-planner/internal/modules/categories"
	"github.com/salesops/resource-planner/internal/modules/forecast"
	"github.com/salesops/resource-planner/internal/modules/opportunities"
	"github.com/salesops/resource-planner/internal/modules/timeline"
	"github.com/salesops/resource-planner/internal/scheduler"
	"github.com/salesops/resource-planner/internal/server"
	"github.com/salesops/resource-planner/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		errLog := logger.New(logger.Config{Level: "error"})
		errLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting resource planner")

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Repositories
	oppRepo := opportunities.NewRepository(db.Conn(), log)
	catRepo := categories.NewRepository(db.Conn(), log)
	timelineRepo := timeline.NewRepository(db.Conn(), log)
	forecastRepo := forecast.NewRepository(db.Conn(), log)

	// Services
	resolver := categories.NewResolver(catRepo, log)
	stageScheduler := timeline.NewScheduler(catRepo, resolver, oppRepo, log)
	timelineService := timeline.NewService(stageScheduler, timelineRepo, oppRepo, catRepo, resolver, log)
	forecastService := forecast.NewService(forecastRepo, oppRepo, timelineService, resolver, log)

	// Background jobs
	sched := scheduler.New(log)
	if cfg.RegenerationCron != "" {
		job := scheduler.NewRegenerationJob(timelineService, log)
		if err := sched.AddJob(cfg.RegenerationCron, job); err != nil {
			log.Fatal().Err(err).Msg("Failed to register regeneration job")
		}
	}
	if err := sched.AddJob("0 */5 * * * *", scheduler.NewHealthCheckJob(db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register health check job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:                 cfg.Port,
		Log:                  log,
		DB:                   db,
		Config:               cfg,
		DevMode:              cfg.DevMode,
		TimelineHandler:      timeline.NewHandler(timelineService, log),
		ForecastHandler:      forecast.NewHandler(forecastService, log),
		OpportunityHandler:   opportunities.NewHandler(oppRepo, log),
		ConfigurationHandler: categories.NewHandler(catRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
