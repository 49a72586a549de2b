package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ehs-data/internal/config"
	"ehs-data/internal/database"
	httpapi "ehs-data/internal/http"
	"ehs-data/internal/logger"
	"ehs-data/internal/repository"
	"ehs-data/internal/service"
	"ehs-data/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "ehs-data")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Redis 仅用于限值解析缓存；连不上不致命，降级直连数据库
	var kv store.KV
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Warn("Redis unavailable, limit cache disabled", zap.Error(err))
	} else {
		kv = store.NewRedisKV(redisClient)
	}

	limitsRepo := repository.NewPostgresExposureLimitsRepository(db)
	samplesRepo := repository.NewPostgresAirSamplesRepository(db)
	recordsRepo := repository.NewPostgresExposureRecordsRepository(db)

	limitService := service.NewLimitService(limitsRepo, kv,
		time.Duration(cfg.Exposure.LimitCacheTTLSecs)*time.Second, log)
	identityService := service.NewIdentityService(samplesRepo, log)
	exposureService := service.NewExposureService(recordsRepo, limitService,
		cfg.Exposure.NearMissPercent, log)
	summaryService := service.NewSummaryService(recordsRepo, log)

	var importService service.LabImportService
	if cfg.LIMS.HttpAddress != "" {
		limsClient := service.NewLIMSClient(cfg.LIMS.HttpAddress, cfg.LIMS.APIKey, log)
		importService = service.NewLabImportService(limsClient, exposureService, identityService, log)
	} else {
		log.Info("LIMS address not configured, lab import disabled")
	}

	router := httpapi.NewRouter(log)
	router.RegisterLimitRoutes(httpapi.NewLimitsHandler(limitService, log))
	router.RegisterExposureRoutes(httpapi.NewExposureHandler(exposureService, summaryService, log))
	router.RegisterIdentityRoutes(httpapi.NewIdentityHandler(identityService, log))
	router.RegisterLabImportRoutes(httpapi.NewLabImportHandler(importService, log))

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("HTTP server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
