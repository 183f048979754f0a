package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	app "github.com/crmkit/contact-ingest/internal/application/bulk"
	"github.com/crmkit/contact-ingest/internal/bootstrap"
	"github.com/crmkit/contact-ingest/internal/infrastructure/cache"
	"github.com/crmkit/contact-ingest/internal/infrastructure/repository"
	"github.com/crmkit/contact-ingest/internal/infrastructure/staging"
)

func main() {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	port := getEnv("PORT", "8080")

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel()}))
	slog.SetDefault(logger)

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		log.Fatalf("failed to create pgx pool: %v", err)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       parseIntEnv("REDIS_DB", 0),
	})
	defer redisClient.Close()

	stagingStore, err := staging.NewStore(getEnv("STAGING_DIR", "./staging"))
	if err != nil {
		log.Fatalf("failed to prepare staging dir: %v", err)
	}

	jobRepo := repository.NewJobRepository(db)
	errorLogRepo := repository.NewErrorLogRepository(db)
	contactStore := repository.NewContactStore(pool)
	usageCounter := cache.NewUsageCounter(redisClient,
		time.Duration(parseIntEnv("USAGE_WINDOW_SECONDS", 60))*time.Second)

	processor := app.NewProcessor(jobRepo, contactStore, errorLogRepo, stagingStore, logger)
	dispatcher := app.NewDispatcher(processor,
		time.Duration(parseIntEnv("JOB_TIMEOUT_SECONDS", 0))*time.Second, logger)

	scheduler := app.NewScheduler(jobRepo, dispatcher, app.SchedulerConfig{
		Tick:          time.Duration(parseIntEnv("SCHEDULER_TICK_SECONDS", 60)) * time.Second,
		MaxConcurrent: parseIntEnv("SCHEDULER_MAX_CONCURRENT", 0),
	}, logger)

	submit := app.NewSubmitBulkAction(stagingStore, jobRepo, usageCounter, dispatcher, logger)
	queries := app.NewBulkActionQueries(jobRepo, contactStore)
	remediate := app.NewRemediateErrorLog(errorLogRepo, contactStore, logger)

	server := bootstrap.NewHTTPServer(submit, queries, remediate)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	defer stopScheduler()
	go scheduler.Run(schedulerCtx)

	go func() {
		if err := server.Start(":" + port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopScheduler()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("graceful shutdown failed: %v", err)
	}
}

func parseLogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func parseIntEnv(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}
