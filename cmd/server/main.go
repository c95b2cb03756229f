package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/luckyrocket0125/studycare-be/internal/ai"
	"github.com/luckyrocket0125/studycare-be/internal/blob"
	"github.com/luckyrocket0125/studycare-be/internal/cache"
	"github.com/luckyrocket0125/studycare-be/internal/config"
	"github.com/luckyrocket0125/studycare-be/internal/httpapi"
	"github.com/luckyrocket0125/studycare-be/internal/identity"
	"github.com/luckyrocket0125/studycare-be/internal/logging"
	"github.com/luckyrocket0125/studycare-be/internal/metrics"
	"github.com/luckyrocket0125/studycare-be/internal/service"
	"github.com/luckyrocket0125/studycare-be/internal/store"
)

func main() {
	cfg := config.Load()
	logger := logging.NewLogger(cfg.Environment)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()
	db := store.NewStore(pool)

	appCache := newCache(ctx, cfg, logger)

	authClient := identity.NewClient(identity.Config{
		BaseURL:    cfg.AuthURL,
		ServiceKey: cfg.AuthServiceKey,
		JWTSecret:  cfg.AuthJWTSecret,
	})
	aiClient := ai.NewClient(ai.Config{
		BaseURL:         cfg.AIBaseURL,
		APIKey:          cfg.AIAPIKey,
		ChatModel:       cfg.AIChatModel,
		VisionModel:     cfg.AIVisionModel,
		TranscribeModel: cfg.AITranscribeModel,
		SpeechModel:     cfg.AISpeechModel,
		SpeechVoice:     cfg.AISpeechVoice,
		Timeout:         cfg.AITimeout,
	})
	storage := blob.NewClient(blob.Config{
		BaseURL: cfg.StorageURL,
		APIKey:  cfg.StorageKey,
		Bucket:  cfg.StorageBucket,
	})

	services := httpapi.Services{
		Auth:      service.NewAuth(db, authClient, logger),
		Caregiver: service.NewCaregiver(db, authClient, appCache, cfg.ActivityCacheTTL, logger),
		Chat:      service.NewChat(db, aiClient, logger),
		Notes:     service.NewNotes(db, aiClient, logger),
		Image:     service.NewImage(db, aiClient, storage, logger),
		Voice:     service.NewVoice(db, aiClient, aiClient, aiClient, appCache, cfg.SpeechCacheTTL, logger),
		Symptom:   service.NewSymptom(db, aiClient, logger),
		Teacher:   service.NewTeacher(db, logger),
		Student:   service.NewStudent(db, logger),
		Pods:      service.NewPods(db, aiClient, logger),
	}

	server := httpapi.NewServer(cfg, services, metrics.NewCollector(), logger)

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}

// newCache connects to redis when configured, otherwise falls back to the
// in-process cache.
func newCache(ctx context.Context, cfg config.Config, logger *zap.Logger) cache.Cache {
	if cfg.RedisAddr == "" {
		return cache.NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis unreachable, using in-memory cache", zap.Error(err))
		return cache.NewMemory()
	}
	return cache.NewRedis(client)
}
