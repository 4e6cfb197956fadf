package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/rateshop/internal/app"
	"github.com/iliyamo/rateshop/internal/handler"
	"github.com/iliyamo/rateshop/internal/logger"
	"github.com/iliyamo/rateshop/internal/router"
)

func main() {
	settings := app.LoadSettings()
	log := logger.New(settings.Base.LogLevel)
	if settings.Base.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := app.Open(ctx, settings, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize engine")
	}
	defer engine.Close()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.RegisterRoutes(e)
	router.RegisterAPI(e, router.Handlers{
		Tenant:          handler.NewTenantHandler(engine.Scans, engine.View, engine.Search, engine.Quota, engine.OwnRates, log),
		Recommendations: handler.NewRecommendationHandler(engine.Recommendations, log),
		Admin:           handler.NewAdminHandler(engine.SafeMode, log),
	}, router.Options{
		JWTSecret: settings.Base.JWTSecret,
		RateLimit: settings.RateLimit,
		Cache:     settings.Cache,
		Redis:     engine.Redis,
		Log:       log,
	})

	addr := ":" + settings.Base.Port
	go func() {
		log.WithField("addr", addr).WithField("env", settings.Base.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
