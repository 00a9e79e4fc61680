package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/studentms/api/swagger"
	"github.com/noah-isme/studentms/internal/app"
	"github.com/noah-isme/studentms/pkg/config"
	"github.com/noah-isme/studentms/pkg/logger"
)

// @title Student Management API
// @version 1.0.0
// @description Student records, enrollments, GPA transcripts and report files.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to start application", zap.Error(err))
	}
	defer application.Close() //nolint:errcheck

	go sweepReports(ctx, application, cfg.Reports.SignedURLTTL, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port),
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "db_driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}

// sweepReports removes generated files once their download links can no longer be valid.
func sweepReports(ctx context.Context, a *app.App, ttl time.Duration, logr *zap.Logger) {
	if ttl <= 0 {
		ttl = time.Hour
	}
	ticker := time.NewTicker(ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := a.Reports.Cleanup(ttl)
			if err != nil {
				logr.Warn("report cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				logr.Info("expired reports removed", zap.Int("count", len(removed)))
			}
		}
	}
}
