package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"golang.org/x/sync/errgroup"

	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/delivery"
	"orderflow/internal/logger"
	"orderflow/pkg/health"
	"orderflow/pkg/logging"
	"orderflow/pkg/metrics"
	"orderflow/pkg/middleware"
	"orderflow/pkg/ratelimit"
	"orderflow/pkg/tracing"
)

type App struct {
	config         *config.Config
	logger         logger.Logger
	tracerProvider *tracing.TracerProvider
	server         *http.Server
	cancelLimiter  context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceDelivery)
	}
	return &App{config: cfg, logger: log}
}

func (a *App) Initialize(ctx context.Context) error {
	tp, err := tracing.Init(a.config.Tracing, constants.ServiceDelivery)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterHTTPMetrics()

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		tracing.GinMiddleware(constants.ServiceDelivery),
		middleware.LoggerMiddleware(a.logger),
		middleware.RecoveryMiddleware(a.logger),
	)

	api := router.Group("")
	if a.config.RateLimit.Enabled {
		limiterCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.cancelLimiter = cancel
		api.Use(ratelimit.RateLimitMiddleware(limiterCtx, a.config.RateLimit))
	}
	delivery.NewHandler(a.logger).RegisterRoutes(api)

	router.GET("/health", health.NewCheckerRegistry().Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.config.Server.ReadTimeout,
		WriteTimeout: a.config.Server.WriteTimeout,
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.InfowCtx(ctx, "Server listening", "port", a.config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (a *App) Shutdown(ctx context.Context) error {
	ctx = logging.WithServiceName(ctx, constants.ServiceDelivery)
	a.logger.InfowCtx(ctx, "Shutting down server")

	var errs []error

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
		}
	}

	if a.cancelLimiter != nil {
		a.cancelLimiter()
	}

	if a.tracerProvider != nil {
		if err := a.tracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	a.logger.InfowCtx(ctx, "Server exited successfully")
	return nil
}
