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

	"orderflow/internal/broker"
	"orderflow/internal/checkout"
	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/dispatcher"
	"orderflow/internal/events"
	"orderflow/internal/logger"
	"orderflow/internal/notify"
	"orderflow/internal/processor"
	"orderflow/pkg/bootstrap"
	"orderflow/pkg/circuitbreaker"
	"orderflow/pkg/health"
	"orderflow/pkg/logging"
	"orderflow/pkg/metrics"
	"orderflow/pkg/middleware"
	"orderflow/pkg/ratelimit"
	"orderflow/pkg/tracing"
)

type App struct {
	*bootstrap.Base
	dbConnector    *bootstrap.DatabaseConnector
	tracerProvider *tracing.TracerProvider
	bus            *events.Bus
	server         *http.Server
	cancelLimiter  context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(constants.ServiceOrder)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	ctx = logging.WithServiceName(ctx, constants.ServiceOrder)

	tp, err := tracing.Init(a.Config.Tracing, constants.ServiceOrder)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	a.tracerProvider = tp

	metrics.RegisterDispatchMetrics()
	metrics.RegisterBrokerMetrics()
	metrics.RegisterHTTPMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}

	if err := a.InitProducer(); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	notifier, seq, err := a.initNotifier(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize notifier: %w", err)
	}

	a.bus = events.NewBus(a.Logger)
	d := dispatcher.New(dispatcher.Config{
		Recipient: a.Config.Dispatcher.NotificationRecipient,
		Topic:     a.Config.Broker.Topic,
	}, notifier, a.newProcessorClient(), a.Producer, a.Logger)
	a.bus.Subscribe(d.Subscriber())

	svc := checkout.NewService(seq, a.bus, a.Logger)
	a.initHTTPServer(ctx, checkout.NewHandler(svc, a.Logger))

	return nil
}

// initNotifier picks the mail channel and the order id sequence. Both live
// in Redis when the Redis notifier is configured.
func (a *App) initNotifier(ctx context.Context) (notify.Notifier, checkout.Sequence, error) {
	if a.Config.Notify.Type != constants.NotifyTypeRedis {
		return notify.NewLogNotifier(a.Logger), &checkout.MemorySequence{}, nil
	}

	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return nil, nil, err
	}
	return notify.NewRedisNotifier(rdb, a.Config.Notify.Queue), checkout.NewRedisSequence(rdb), nil
}

func (a *App) newProcessorClient() *processor.Client {
	var opts []processor.Option
	if a.Config.CircuitBreaker.Enabled {
		cb := circuitbreaker.NewWrapper(circuitbreaker.FromSettings("processor", a.Config.CircuitBreaker))
		opts = append(opts, processor.WithBreaker(cb))
	}
	return processor.NewClient(a.Config.Dispatcher.ProcessorURL, a.Config.Dispatcher.HTTPTimeout, opts...)
}

func (a *App) initHTTPServer(ctx context.Context, handler *checkout.Handler) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(
		middleware.RequestIDMiddleware(),
		tracing.GinMiddleware(constants.ServiceOrder),
		middleware.LoggerMiddleware(a.Logger),
		middleware.RecoveryMiddleware(a.Logger),
	)

	api := router.Group("")
	if a.Config.RateLimit.Enabled {
		limiterCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		a.cancelLimiter = cancel
		api.Use(ratelimit.RateLimitMiddleware(limiterCtx, a.Config.RateLimit))
	}
	handler.RegisterRoutes(api)

	healthRegistry := health.NewCheckerRegistry()
	if rdb := a.dbConnector.Redis(); rdb != nil {
		healthRegistry.Register(health.NewRedisChecker(rdb))
	}
	// Queue failures are isolated per order, so checkout stays up without it.
	brokerCfg := a.Config.Broker
	healthRegistry.RegisterOptional(health.NewFuncChecker("broker", func(ctx context.Context) error {
		return broker.Ping(ctx, brokerCfg)
	}))

	router.GET("/health", healthRegistry.Handler())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

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
	shutdownCtx := logging.WithServiceName(ctx, constants.ServiceOrder)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down order service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			serverCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(serverCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
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

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx)...)

		return errs
	}

	return a.Base.Shutdown(shutdownCtx, additionalShutdown)
}
