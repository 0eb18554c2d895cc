package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"resume-triage/internal/config"
	"resume-triage/internal/extract"
	"resume-triage/internal/geministore"
	"resume-triage/internal/logger"
	"resume-triage/internal/parser"
	"resume-triage/internal/pipeline"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// The embed stage has no local fallback, so the key is mandatory here
	// even though extraction can degrade to heuristics.
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required for the embed stage")
	}
	gemini, err := geministore.New(ctx, cfg.GeminiAPIKey)
	if err != nil {
		log.Fatal("failed to create gemini client", zap.Error(err))
	}

	extractor := extract.Chain{gemini, parser.NewHeuristicExtractor()}

	dispatcher := pipeline.NewDispatcher(
		db,
		taskQueue,
		fileStore,
		cfg.S3.Bucket,
		extractor,
		gemini,
		pipeline.Config{
			MaxAttempts: cfg.MaxAttempts,
			RetryBase:   cfg.RetryBase,
			TaskTimeout: cfg.TaskTimeout,
		},
		log,
	)
	pool := pipeline.NewPool(taskQueue, dispatcher, cfg.WorkerCount, log)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
		log.Info("shutdown signal received, stopping workers")
		cancel()
	}()

	pool.Run(ctx)
	log.Info("worker shutdown complete")
}
