package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"orderflow/internal/broker"
	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/logger"
	"orderflow/internal/reserver"
	"orderflow/internal/sink"
	"orderflow/internal/webhook"
	"orderflow/pkg/bootstrap"
	"orderflow/pkg/health"
	"orderflow/pkg/logging"
	"orderflow/pkg/metrics"
	"orderflow/pkg/middleware"
	"orderflow/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	tracerProvider *tracing.TracerProvider
	worker         *reserver.Worker
	server         *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceReserver)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	ctx = logging.WithServiceName(ctx, constants.ServiceReserver)

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceReserver)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterReserverMetrics()
	metrics.RegisterBrokerMetrics()

	s, err := a.dbConnector.InitSink(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize sink: %w", err)
	}

	fallback := webhook.NewClient(a.Config.Reserver.FallbackURL, a.Config.Reserver.FallbackTimeout)
	if !fallback.Configured() {
		a.Logger.WarnwCtx(ctx, "Fallback webhook url is empty, exhausted uploads will be dropped")
	}

	a.worker = reserver.NewWorker(reserver.Config{
		MaxAttempts:   a.Config.Reserver.MaxAttempts,
		RetryInterval: a.Config.Reserver.RetryInterval,
	}, s, fallback, reserver.NewTimestampNamer(a.Config.Reserver.UniqueNames), a.Logger)

	if err := a.InitConsumer(constants.ServiceReserver); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	a.initHTTPServer(s)
	return nil
}

func (a *App) initHTTPServer(s sink.Sink) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(a.Logger))

	healthRegistry := health.NewCheckerRegistry()
	if db := a.dbConnector.Postgres(); db != nil {
		healthRegistry.Register(health.NewPostgreSQLChecker(db))
	}
	if client := a.dbConnector.Mongo(); client != nil {
		healthRegistry.Register(health.NewMongoDBChecker(client))
	}
	healthRegistry.Register(health.NewFuncChecker("sink_container", s.Check))
	brokerCfg := a.Config.Broker
	healthRegistry.Register(health.NewFuncChecker("broker", func(ctx context.Context) error {
		return broker.Ping(ctx, brokerCfg)
	}))

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	topic := a.Config.Broker.Topic
	g.Go(func() error {
		consumeCtx := logging.WithServiceName(gCtx, constants.ServiceReserver)
		a.Logger.InfowCtx(consumeCtx, "Starting order record consumer",
			"topic", topic,
			"broker", a.Config.Broker.Type,
		)
		return a.Consumer.Consume(consumeCtx, topic, a.worker.Handle)
	})

	g.Go(func() error {
		<-gCtx.Done()
		return a.Shutdown(context.Background())
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceReserver)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down reserver service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			serverCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(serverCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		if a.tracerProvider != nil {
			if err := a.tracerProvider.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("tracer provider shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx)...)

		return errs
	}

	return a.Base.Shutdown(shutdownCtx, additionalShutdown)
}
