package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labtrack/internal/config"
	httpapi "labtrack/internal/http"
	"labtrack/internal/idgen"
	"labtrack/internal/metrics"
	"labtrack/internal/notify"
	"labtrack/internal/registry"
	"labtrack/internal/repository"
	"labtrack/internal/service"
	"labtrack/pkg/database"
	"labtrack/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format, "labtrack")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	reg, err := registry.Default()
	if err != nil {
		log.Fatal("entity registry invalid", zap.Error(err))
	}

	var redisClient *redis.Client
	emitter := notify.Emitter(notify.Nop{})
	switch cfg.Notify.Mode {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		emitter = notify.NewRedisEmitter(redisClient, cfg.Notify.Stream, log)
	case "webhook":
		emitter = notify.NewWebhookEmitter(cfg.Notify.WebhookURL, log)
	}

	// DB-backed stores when possible; in-memory fallback keeps local
	// `go run` usable without postgres.
	var db *sql.DB
	var conversionStore repository.ConversionStore
	var recycleStore repository.RecycleStore
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for labtrack")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if db != nil {
		conversionStore = repository.NewPostgresConversionStore(db)
		recycleStore = repository.NewPostgresRecycleStore(db, reg)
	} else {
		mem := repository.NewMemoryStore()
		conversionStore = mem
		recycleStore = mem
	}

	m := metrics.NewRegistry()
	ids := idgen.New()
	conversions := service.NewConversionService(conversionStore, ids, emitter, m, log)
	recycle := service.NewRecycleService(recycleStore, m, log)

	api := httpapi.NewAPI(conversions, recycle, log)
	router := httpapi.NewRouter(log)
	router.RegisterCoreRoutes(api)
	router.HandleHandler("/metrics", m.Handler())

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server stopped", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if db != nil {
		_ = db.Close()
	}
}
