package db

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"blog-api/config"
	"blog-api/logging"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func requireContainers(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
}

// startContainer returns the host:port of the container's first exposed port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err)

	endpoint, err := c.Endpoint(ctx, "")
	require.NoError(t, err)
	return endpoint
}

// newTestDB starts Postgres, applies the schema and returns an open pool.
func newTestDB(t *testing.T) *sql.DB {
	requireContainers(t)

	endpoint := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "blog",
			"POSTGRES_PASSWORD": "blog",
			"POSTGRES_DB":       "blog",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(90 * time.Second),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("postgres://blog:blog@%s/blog?sslmode=disable", endpoint)
	conn, err := InitDB(ctx, dsn, logging.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, Migrate(ctx, conn, logging.Nop()))
	return conn
}

func newTestRedis(t *testing.T) *redis.Client {
	requireContainers(t)

	endpoint := startContainer(t, testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(60 * time.Second),
	})

	cfg := config.Default().Redis
	cfg.URL = fmt.Sprintf("redis://%s/0", endpoint)

	client, err := NewRedisClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}
