package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"github.com/podsight/attribution-engine/internal/api"
	"github.com/podsight/attribution-engine/internal/attribution"
	"github.com/podsight/attribution-engine/internal/config"
	"github.com/podsight/attribution-engine/internal/domain"
	"github.com/podsight/attribution-engine/internal/pkg/logger"
	"github.com/podsight/attribution-engine/internal/repository/postgres"
	"github.com/podsight/attribution-engine/internal/service/reporting"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	var cache *reporting.SummaryCache
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, summary cache disabled", "addr", cfg.Redis.Addr, "error", err.Error())
			redisClient = nil
		} else {
			cache = reporting.NewSummaryCache(redisClient)
			defer redisClient.Close()
		}
	}

	engine := attribution.NewEngine(engineConfig(cfg.Attribution))
	repo := postgres.NewRepo(db)
	svc := reporting.NewService(repo, engine, cache, activeModels(cfg.Attribution))

	server := api.NewServer(cfg.Server, svc)
	addr := fmt.Sprintf("%s:%d", cfg.Server.GetHost(), cfg.Server.Port)

	go func() {
		logger.Info("api server listening", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down api server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(ctx)
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

func engineConfig(cfg config.AttributionConfig) attribution.Config {
	return attribution.Config{
		WindowDays:     cfg.WindowDays,
		DedupWindow:    cfg.DedupWindow(),
		HalfLife:       cfg.HalfLife(),
		PositionFirst:  cfg.PositionFirst,
		PositionLast:   cfg.PositionLast,
		PositionMiddle: cfg.PositionMiddle,
	}
}

func activeModels(cfg config.AttributionConfig) []domain.ModelName {
	out := make([]domain.ModelName, 0, len(cfg.ActiveModels))
	for _, m := range cfg.ActiveModels {
		out = append(out, domain.ModelName(m))
	}
	return out
}
