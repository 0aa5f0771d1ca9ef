//go:build integration

package sink

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type fetcher interface {
	Sink
	Fetch(ctx context.Context, name string) ([]byte, error)
}

func exerciseSink(t *testing.T, s fetcher) {
	ctx := context.Background()
	require.NoError(t, s.EnsureContainer(ctx))
	require.NoError(t, s.EnsureContainer(ctx), "container bootstrap is idempotent")
	require.NoError(t, s.Check(ctx))

	body := []byte(`{"orderId":7,"finalPrice":19.5}`)
	status, err := s.Upload(ctx, "order-20240305140709123.json", body, false)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)

	stored, err := s.Fetch(ctx, "order-20240305140709123.json")
	require.NoError(t, err)
	assert.Equal(t, body, stored)

	status, err = s.Upload(ctx, "order-20240305140709123.json", []byte(`{}`), false)
	require.ErrorIs(t, err, ErrObjectExists)
	assert.Equal(t, StatusConflict, status)

	status, err = s.Upload(ctx, "order-20240305140709123.json", []byte(`{"v":2}`), true)
	require.NoError(t, err)
	assert.Equal(t, StatusReplaced, status)

	stored, err = s.Fetch(ctx, "order-20240305140709123.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), stored)

	status, err = s.Upload(ctx, "empty.json", nil, false)
	require.NoError(t, err)
	assert.Equal(t, StatusCreated, status)
	stored, err = s.Fetch(ctx, "empty.json")
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestMongoSinkIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := tcmongo.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	exerciseSink(t, NewMongoSink(client.Database("orderflow"), "orders"))
}

func TestPostgresSinkIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("orderflow"),
		tcpostgres.WithUsername("orderflow"),
		tcpostgres.WithPassword("orderflow"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	exerciseSink(t, NewPostgresSink(db, "orders"))
}
