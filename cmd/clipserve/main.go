package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/clipserve/clipserve/internal/cache"
	"github.com/clipserve/clipserve/internal/config"
	"github.com/clipserve/clipserve/internal/handler"
	"github.com/clipserve/clipserve/internal/job"
	"github.com/clipserve/clipserve/internal/metrics"
	"github.com/clipserve/clipserve/internal/middleware"
	"github.com/clipserve/clipserve/internal/oracle"
	"github.com/clipserve/clipserve/internal/schedule"
	"github.com/clipserve/clipserve/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "clipserve",
		Short: "embedding cache and consistency scoring server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the clipserve server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))
			return runServer(cfg)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func newDurableStore(cfg config.StoreConfig) (cache.DurableStore, error) {
	switch cfg.Type {
	case "redis":
		return cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB), nil
	case "postgres":
		return cache.NewPGStore(cfg.Postgres.DSN)
	default:
		return nil, nil
	}
}

func runServer(cfg *config.Config) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("oracle", cfg.Oracle.Provider),
		zap.String("cache_store", cfg.Cache.Store.Type),
	)

	m := metrics.New()

	durable, err := newDurableStore(cfg.Cache.Store)
	if err != nil {
		return fmt.Errorf("init durable cache store: %w", err)
	}
	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	tiered := cache.NewTieredCache(durable, cfg.Cache.FastSize, ttl, m)

	embedOracle, err := oracle.New(cfg.Oracle.Provider, cfg.Oracle.Data, cfg.Oracle.Dimension)
	if err != nil {
		return fmt.Errorf("init oracle: %w", err)
	}

	embedService := service.NewEmbedService(embedOracle, tiered, ttl, m)
	consistencyService := service.NewConsistencyService(embedService)

	deps := handler.RouterDeps{
		Embed:           handler.NewEmbedHandler(embedService),
		Similarity:      handler.NewSimilarityHandler(),
		Consistency:     handler.NewConsistencyHandler(consistencyService),
		Health:          handler.NewHealthHandler(embedService, tiered, m),
		Metrics:         m,
		RateLimitWindow: time.Duration(cfg.RateLimit.WindowMS) * time.Millisecond,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.CORS(cfg.CORSAllowOrigins),
		gzip.Gzip(gzip.DefaultCompression),
		m.Middleware(),
	)
	handler.RegisterRoutes(engine, deps)

	scheduler := schedule.NewCronScheduler()
	if err := scheduler.AddJob(job.NewCacheSweepJob(tiered), cfg.SweepCron); err != nil {
		return fmt.Errorf("schedule cache sweep: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler.Start(ctx)
	defer scheduler.Stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		Handler: engine,
	}
	go func() {
		logutil.GetLogger(ctx).Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(ctx).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
