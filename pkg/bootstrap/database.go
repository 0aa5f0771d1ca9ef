package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"orderflow/internal/config"
	"orderflow/internal/constants"
	"orderflow/internal/logger"
	"orderflow/internal/sink"
	"orderflow/pkg/retry"
)

// connectPolicy covers stores that come up after the service in compose
// setups.
var connectPolicy = retry.Policy{
	MaxAttempts:     5,
	InitialInterval: 500 * time.Millisecond,
	MaxInterval:     5 * time.Second,
	Multiplier:      2.0,
}

type DatabaseConnector struct {
	Config *config.Config
	Logger logger.Logger

	redis *redis.Client
	pg    *sql.DB
	mongo *mongo.Client
}

func NewDatabaseConnector(cfg *config.Config, log logger.Logger) *DatabaseConnector {
	return &DatabaseConnector{
		Config: cfg,
		Logger: log,
	}
}

func (dc *DatabaseConnector) ping(ctx context.Context, store string, fn func() error) error {
	return retry.RetryWithCallback(ctx, connectPolicy, fn, func(attempt int, err error, nextDelay time.Duration) {
		dc.Logger.WarnwCtx(ctx, "Store not reachable yet, retrying",
			"store", store,
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", err,
		)
	})
}

func (dc *DatabaseConnector) InitRedis(ctx context.Context) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", dc.Config.Database.Redis.Host, dc.Config.Database.Redis.Port),
		Password: dc.Config.Database.Redis.Password,
		DB:       dc.Config.Database.Redis.DB,
	})

	if err := dc.ping(ctx, "redis", func() error { return rdb.Ping(ctx).Err() }); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	dc.redis = rdb
	dc.Logger.InfowCtx(ctx, "Redis connected successfully")
	return rdb, nil
}

func (dc *DatabaseConnector) InitPostgreSQL(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := dc.ping(ctx, "postgres", func() error { return db.PingContext(ctx) }); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	dc.pg = db
	dc.Logger.InfowCtx(ctx, "PostgreSQL connected successfully")
	return db, nil
}

func (dc *DatabaseConnector) InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := dc.ping(ctx, "mongodb", func() error { return client.Ping(ctx, nil) }); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dc.mongo = client
	dc.Logger.InfowCtx(ctx, "MongoDB connected successfully")
	return client, nil
}

// InitSink connects the durable sink named by sink.type and makes sure its
// container exists.
func (dc *DatabaseConnector) InitSink(ctx context.Context) (sink.Sink, error) {
	cfg := dc.Config.Sink

	var s sink.Sink
	switch cfg.Type {
	case constants.SinkTypeMongoDB:
		client, err := dc.InitMongoDB(ctx, cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		s = sink.NewMongoSink(client.Database(cfg.Database), cfg.Container)
	case constants.SinkTypePostgres:
		db, err := dc.InitPostgreSQL(ctx, cfg.ConnectionString)
		if err != nil {
			return nil, err
		}
		s = sink.NewPostgresSink(db, cfg.Container)
	default:
		return nil, fmt.Errorf("unknown sink type: %s", cfg.Type)
	}

	if err := s.EnsureContainer(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare sink container %s: %w", cfg.Container, err)
	}

	dc.Logger.InfowCtx(ctx, "Sink ready",
		"sink", s.Kind(),
		"container", cfg.Container,
	)
	return s, nil
}

func (dc *DatabaseConnector) Redis() *redis.Client { return dc.redis }

func (dc *DatabaseConnector) Postgres() *sql.DB { return dc.pg }

func (dc *DatabaseConnector) Mongo() *mongo.Client { return dc.mongo }

func (dc *DatabaseConnector) ShutdownDatabases(ctx context.Context) []error {
	var errs []error

	if dc.redis != nil {
		if err := dc.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis close error: %w", err))
		}
	}

	if dc.pg != nil {
		if err := dc.pg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("postgres close error: %w", err))
		}
	}

	if dc.mongo != nil {
		if err := dc.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongodb disconnect error: %w", err))
		}
	}

	return errs
}
