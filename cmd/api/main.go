package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"inkwell/api/internal/app"
	"inkwell/api/internal/auth"
	"inkwell/api/internal/blob"
	"inkwell/api/internal/config"
	"inkwell/api/internal/lock"
	"inkwell/api/internal/logging"
	"inkwell/api/internal/store"
)

const lockKey = "inkwell:sitemap:lock"

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, JSONOutput: cfg.LogJSON})
	logger := logging.WithComponent("api")
	ctx := context.Background()

	blobs, err := openBlobStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("storage init failed")
	}

	var locker lock.Locker = lock.NewLocal()
	var redisLock *lock.Redis
	if strings.TrimSpace(cfg.RedisURL) != "" {
		redisLock, err = lock.NewRedis(cfg.RedisURL, lockKey, cfg.LockTTL, logging.WithComponent("lock"))
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisLock.Close()
		locker = redisLock
		logger.Info().Msg("using redis for the sitemap write lock")
	} else {
		logger.Info().Msg("using in-process sitemap write lock")
	}

	contentStore := store.New(blobs, locker, logging.WithComponent("store"))
	if err := contentStore.Ensure(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not initialise sitemap (will retry on next restart)")
	}

	gate := auth.NewGate(cfg.APIKeys)
	if gate.Size() == 0 {
		logger.Warn().Msg("API_KEYS is empty; every API request will be rejected")
	}

	apiServer := app.NewHTTPServer(contentStore, gate, cfg.CORSOrigin, logger)
	servers := []*http.Server{newServer(cfg.Addr, apiServer.Handler())}

	if cfg.PublicAddr != "" {
		public := app.NewPublicServer(blobs, cfg.CORSOrigin, logging.WithComponent("public"))
		if redisLock != nil {
			public.AddCheck("lock", redisLock.Ping)
		}
		servers = append(servers, newServer(cfg.PublicAddr, public.Handler()))
	}

	for _, server := range servers {
		go func() {
			logger.Info().Str("addr", server.Addr).Msg("listening")
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Fatal().Err(err).Str("addr", server.Addr).Msg("server failed")
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, server := range servers {
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Str("addr", server.Addr).Msg("shutdown error")
		}
	}
}

func newServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func openBlobStore(ctx context.Context, cfg config.Config) (blob.Store, error) {
	switch cfg.StorageBackend {
	case "fs", "":
		fs, err := blob.NewFS(cfg.ContentDir)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case "s3":
		s3, err := blob.NewS3(blob.S3Config{
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := s3.EnsureBucket(ctx, cfg.S3Region); err != nil {
			return nil, err
		}
		return s3, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
