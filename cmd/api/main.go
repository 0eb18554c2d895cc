package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"resume-triage/internal/api"
	"resume-triage/internal/config"
	"resume-triage/internal/logger"
	"resume-triage/internal/postgresdb"
	"resume-triage/internal/queue"
	"resume-triage/internal/s3"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogJSON, cfg.LogDebug)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()

	db, err := postgresdb.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	taskQueue, err := queue.New(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer taskQueue.Close()

	fileStore, err := s3.NewFileStore(ctx, s3.Config{
		EndpointURL: cfg.S3.EndpointURL,
		Region:      cfg.S3.Region,
		AccessKey:   cfg.S3.AccessKey,
		SecretKey:   cfg.S3.SecretKey,
	})
	if err != nil {
		log.Fatal("failed to create file store", zap.Error(err))
	}

	handler := api.NewAPIHandler(db, taskQueue, fileStore, cfg.S3.Bucket, log)
	server := &http.Server{
		Addr:              cfg.APIAddr,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("api listening", zap.String("addr", cfg.APIAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
