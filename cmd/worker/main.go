package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/podsight/attribution-engine/internal/attribution"
	"github.com/podsight/attribution-engine/internal/config"
	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/repository/postgres"
	"github.com/podsight/attribution-engine/internal/service/reporting"
	"github.com/podsight/attribution-engine/internal/tracking"
	"github.com/podsight/attribution-engine/internal/worker"
)

func main() {
	log.Println("Starting attribution worker...")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.Fatalf("ping database: %v", err)
	}
	log.Println("Connected to database")

	var redisClient *redis.Client
	var cache *reporting.SummaryCache
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Printf("redis unreachable, falling back to advisory locks: %v", err)
			redisClient = nil
		} else {
			cache = reporting.NewSummaryCache(redisClient)
			defer redisClient.Close()
		}
	}

	repo := postgres.NewRepo(db)
	engine := attribution.NewEngine(attribution.Config{
		WindowDays:     cfg.Attribution.WindowDays,
		DedupWindow:    cfg.Attribution.DedupWindow(),
		HalfLife:       cfg.Attribution.HalfLife(),
		PositionFirst:  cfg.Attribution.PositionFirst,
		PositionLast:   cfg.Attribution.PositionLast,
		PositionMiddle: cfg.Attribution.PositionMiddle,
	})

	models := make([]domain.ModelName, 0, len(cfg.Attribution.ActiveModels))
	for _, m := range cfg.Attribution.ActiveModels {
		models = append(models, domain.ModelName(m))
	}
	svc := reporting.NewService(repo, engine, cache, models)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Touchpoint queue consumer
	var consumer *tracking.Consumer
	if cfg.Tracking.Enabled && cfg.Tracking.QueueURL != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Tracking.Region))
		if err != nil {
			log.Fatalf("aws config: %v", err)
		}
		consumer = tracking.NewConsumer(sqs.NewFromConfig(awsCfg), cfg.Tracking.QueueURL, repo)
		consumer.Start(ctx)
	} else {
		log.Println("touchpoint queue disabled, running backfill only")
	}

	// Backfill sweeper
	backfill := worker.NewBackfillWorker(repo, svc, redisClient, db, worker.BackfillConfig{
		PollInterval: cfg.Worker.PollInterval(),
		BatchSize:    cfg.Worker.BatchSize,
		NumWorkers:   cfg.Worker.NumWorkers,
	})
	if err := backfill.Start(); err != nil {
		log.Fatalf("backfill: %v", err)
	}

	log.Println("Worker running...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down worker...")
	cancel()
	if consumer != nil {
		consumer.Stop()
	}
	backfill.Stop()
	log.Println("Worker stopped")
}
