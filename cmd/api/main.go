package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/advisorlens/advisorlens/internal/api/handlers"
	"github.com/advisorlens/advisorlens/internal/api/router"
	"github.com/advisorlens/advisorlens/internal/config"
	"github.com/advisorlens/advisorlens/internal/pkg/logger"
	"github.com/advisorlens/advisorlens/internal/pkg/validator"
	"github.com/advisorlens/advisorlens/internal/repository/store"
	"github.com/advisorlens/advisorlens/internal/services"
	"github.com/advisorlens/advisorlens/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	log := logger.Default()

	db, err := store.Open(cfg.Database)
	if err != nil {
		log.ErrorWithErr(err, "failed to open database")
		os.Exit(1)
	}
	defer db.Close()

	if err := store.Migrate(db); err != nil {
		log.ErrorWithErr(err, "failed to run migrations")
		os.Exit(1)
	}

	repo := store.NewReportRepository(db, cfg.Database.Driver)
	pipeline := services.NewPipeline(cfg, repo, log)
	val := validator.New()

	h := &router.Handlers{
		Health: handlers.NewHealthHandler(db),
		Report: handlers.NewReportHandler(pipeline, repo, cfg.Upload.MaxUploadSize, log, val),
	}

	sweeper := worker.NewRetentionSweeper(repo, cfg.Report, log)
	if err := sweeper.Start(); err != nil {
		log.ErrorWithErr(err, "failed to start retention sweeper")
		os.Exit(1)
	}
	defer sweeper.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(map[string]interface{}{
			"addr":        srv.Addr,
			"environment": cfg.Server.Environment,
		}).Info("server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.ErrorWithErr(err, "server failed")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr(err, "forced shutdown")
	}
}
