package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"calibops-data/internal/config"
	"calibops-data/internal/database"
	httpapi "calibops-data/internal/http"
	"calibops-data/internal/logger"
	"calibops-data/internal/repository"
	"calibops-data/internal/service"
	"calibops-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "calibops-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}

	// Redis 只承载字典缓存，连不上就退化为纯 Postgres
	var kv store.KV
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("redis unavailable, dictionary cache disabled", zap.Error(err))
			_ = redisClient.Close()
			redisClient = nil
		} else {
			kv = store.NewRedisKV(redisClient)
		}
	}

	blobs := store.NewFSBlobStore(cfg.Blob.Dir)

	firmwaresRepo := repository.NewPostgresFirmwaresRepo(db)
	sessionsRepo := repository.NewPostgresSessionsRepo(db)
	entriesRepo := repository.NewPostgresEntriesRepo(db)
	errorLogsRepo := repository.NewPostgresErrorLogsRepo(db)
	standsRepo := repository.NewPostgresStandsRepo(db)
	lookupsRepo := repository.NewPostgresLookupsRepo(db)

	lookupSvc := service.NewLookupService(lookupsRepo, kv, log)
	standSvc := service.NewStandService(standsRepo, log)
	sessionSvc := service.NewSessionService(sessionsRepo, entriesRepo, errorLogsRepo, log)
	errorLogSvc := service.NewErrorLogService(errorLogsRepo, log)
	ingestSvc := service.NewIngestService(sessionsRepo, entriesRepo, errorLogsRepo, lookupSvc, standSvc, log)
	firmwareSvc := service.NewFirmwareService(firmwaresRepo, blobs, log)
	updateSvc := service.NewUpdateService(firmwaresRepo, log)

	router := httpapi.NewRouter(log)
	router.RegisterLogRoutes(httpapi.NewLogsHandler(ingestSvc, sessionSvc, log))
	router.RegisterErrorLogRoutes(httpapi.NewErrorLogsHandler(errorLogSvc, log))
	router.RegisterLookupRoutes(httpapi.NewLookupHandler(lookupSvc, log))
	router.RegisterStandRoutes(httpapi.NewStandsHandler(standSvc, log))
	router.RegisterFirmwareRoutes(httpapi.NewFirmwareHandler(firmwareSvc, updateSvc, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			log.Error("server stopped", zap.Error(err))
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	if redisClient != nil {
		_ = redisClient.Close()
	}
	_ = db.Close()
}
