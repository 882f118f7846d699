package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/pdf-page-api/internal/handler"
	"github.com/noah-isme/pdf-page-api/internal/repository"
	"github.com/noah-isme/pdf-page-api/internal/service"
	"github.com/noah-isme/pdf-page-api/pkg/cache"
	"github.com/noah-isme/pdf-page-api/pkg/config"
	"github.com/noah-isme/pdf-page-api/pkg/database"
	"github.com/noah-isme/pdf-page-api/pkg/jobs"
	"github.com/noah-isme/pdf-page-api/pkg/lifecycle"
	"github.com/noah-isme/pdf-page-api/pkg/logger"
	"github.com/noah-isme/pdf-page-api/pkg/middleware/ratelimit"
	"github.com/noah-isme/pdf-page-api/pkg/pdfengine"
	"github.com/noah-isme/pdf-page-api/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logr, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer logr.Sync() //nolint:errcheck

			if err := serve(cmd.Context(), cfg, logr); err != nil {
				logr.Error("server exited", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.NewPDFStore(cfg.PDF.Dir)
	if err != nil {
		return fmt.Errorf("open pdf folder: %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()
	validate := service.NewValidator()

	var (
		cacheRepo   service.PageCacheRepository
		redisClient *redis.Client
	)
	if cfg.PageCache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("page cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close() //nolint:errcheck
			cacheRepo = repository.NewPageCacheRepository(redisClient)
		}
	}
	cacheSvc := service.NewPageCacheService(cacheRepo, metrics, cfg.PageCache.TTL, logr, cacheRepo != nil)
	queue := jobs.NewQueue("page-cache", cacheSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.PageCache.Workers,
		MaxRetries: 1,
		Logger:     logr,
	})
	cacheSvc.UseQueue(queue)

	metadataRepo := repository.NewPDFMetadataRepository(db, cfg.PDF.AccessLogMaxEntries)
	metadataSvc := service.NewMetadataService(metadataRepo, metrics, validate, logr)
	pdfSvc := service.NewPDFService(store, pdfengine.New(), metadataSvc, cacheSvc, metrics, validate, logr, service.PDFServiceConfig{
		MaxExtractBytes: cfg.PDF.MaxExtractBytes,
	})
	authSvc := service.NewAuthService(validate, logr, service.AuthConfig{
		Secret:   cfg.Admin.JWTSecret,
		TokenTTL: cfg.Admin.TokenTTL,
	})

	gate := lifecycle.NewGate("metadata-store")
	limiter := ratelimit.New(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	routerCfg := handler.RouterConfig{
		Logger:         logr,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		EnableDocs:     cfg.Env != config.EnvProduction,
		Gate:           gate,
		Limiter:        limiter,
		Metrics:        metrics,
		Auth:           authSvc,
		PDF:            handler.NewPDFHandler(pdfSvc),
	}
	if cfg.AdminEnabled() {
		routerCfg.Metadata = handler.NewMetadataHandler(metadataSvc)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler.NewRouter(routerCfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	queue.Start(context.Background())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := gate.Run(gctx, func(ctx context.Context) error {
			return database.Init(ctx, db, cfg.Database.ConnectTimeout)
		})
		if err != nil {
			return fmt.Errorf("initialize metadata store: %w", err)
		}
		logr.Info("metadata store ready", zap.String("gate", gate.Name()))
		return nil
	})
	g.Go(func() error {
		logr.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.String("env", cfg.Env),
			zap.String("pdf_dir", store.BaseDir()),
			zap.Bool("page_cache", cacheSvc.Enabled()),
			zap.Bool("admin", cfg.AdminEnabled()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return limiter.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logr.Info("server shutting down")
		err := srv.Shutdown(shutdownCtx)
		queue.Stop()
		if err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
