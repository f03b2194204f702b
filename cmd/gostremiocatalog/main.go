package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amaumene/gostremiocatalog/internal/constants"
	"github.com/amaumene/gostremiocatalog/internal/middleware"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	InitializeLogger()
	InitializeConfig()
	InitializeServices(ctx)

	if Config.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(Logger))
	r.Use(middleware.CORS())
	r.Use(middleware.RateLimit(middleware.NewIPRateLimiter(Config.RateLimitRPS, Config.RateLimitBurst)))
	r.Use(middleware.Gzip())

	handler.RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + Config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		Logger.Infof("[App] starting HTTP server on port %s", Config.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			Logger.Fatalf("[App] HTTP server failed: %v", err)
		}
	}()

	<-ctx.Done()
	Logger.Infof("[App] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		Logger.Errorf("[App] HTTP server shutdown failed: %v", err)
	}
	if err := ShutdownServices(); err != nil {
		Logger.Errorf("[App] %v", err)
	}
	Logger.Infof("[App] stopped")
}
