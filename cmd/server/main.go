package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"counselhub/internal/cache"
	"counselhub/internal/config"
	"counselhub/internal/repository"
	"counselhub/internal/service"
	"counselhub/internal/transport/rest"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx := context.Background()

	narrativeCfg := config.DefaultNarrativeConfig()
	if narrativeCfg.IsEnabled() {
		logger.Info("narrative API configured", zap.String("model", narrativeCfg.Model))
	} else {
		logger.Warn("narrative API key not set, using mock narratives")
	}

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer mongoClient.Disconnect(ctx)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("connected to MongoDB", zap.String("database", cfg.MongoDatabase))

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Fatal("failed to ping Redis", zap.Error(err))
	}
	logger.Info("connected to Redis", zap.String("addr", cfg.RedisAddr))

	// Initialize repositories
	userRepo := repository.NewUserRepo(db)
	surveyRepo := repository.NewSurveyRepo(db)
	submissionRepo := repository.NewSubmissionRepo(db)
	runRepo := repository.NewRunRepo(db)

	// Initialize caches
	analysisCache := cache.NewAnalysisCache(rdb)

	// Initialize services
	narrativeSvc := service.NewNarrativeService(narrativeCfg)
	surveySvc := service.NewSurveyService(surveyRepo)
	submissionSvc := service.NewSubmissionService(surveyRepo, submissionRepo, logger)
	analysisSvc := service.NewAnalysisService(userRepo, surveyRepo, submissionRepo, runRepo, analysisCache, narrativeSvc, logger)

	router := rest.NewRouter(&rest.Container{
		SurveyService:     surveySvc,
		SubmissionService: submissionSvc,
		AnalysisService:   analysisSvc,
		AnalysisCache:     analysisCache,
		JWTSecret:         cfg.JWTSecret,
		Logger:            logger,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen and serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(level); err == nil {
		cfg.Level = lvl
	}
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
