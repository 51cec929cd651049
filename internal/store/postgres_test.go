package store

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mvbarbosa/docpipe/internal/models"
	"github.com/mvbarbosa/docpipe/internal/retry"
)

// TestPostgresParity runs the core claim/complete/fail cycle against a real
// postgres container, so the sqlite-backed unit tests cannot hide a dialect
// difference. Requires docker; skipped with -short.
func TestPostgresParity(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker-backed test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker not available: %v", err)
	}
	pool.MaxWait = 60 * time.Second
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	pg, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "17-alpine",
		Env: []string{
			"POSTGRES_USER=testuser",
			"POSTGRES_PASSWORD=testpass",
			"POSTGRES_DB=docpipe_test",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Purge(pg) })

	dsn := fmt.Sprintf(
		"host=localhost user=testuser password=testpass dbname=docpipe_test port=%s sslmode=disable TimeZone=UTC",
		pg.GetPort("5432/tcp"),
	)

	require.NoError(t, pool.Retry(func() error {
		raw, err := sql.Open("postgres", dsn)
		if err != nil {
			return err
		}
		defer raw.Close()
		return raw.Ping()
	}))

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	st, err := New(db, slog.New(slog.NewTextHandler(io.Discard, nil)), retry.Policy{MaxRetries: 1})
	require.NoError(t, err)

	ctx := context.Background()

	job := models.NewJob("parity.pdf", "", "room:origin", "evt-1")
	require.NoError(t, st.Add(ctx, job))

	claimed, err := st.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, job.ID, claimed.ID)
	assert.Equal(t, models.StatusProcessing, claimed.Status)

	decision, err := st.Fail(ctx, job.ID, "transient failure")
	require.NoError(t, err)
	assert.Equal(t, retry.Requeue, decision)

	claimed, err = st.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, 1, claimed.RetryCount)

	require.NoError(t, st.Complete(ctx, job.ID, map[string]string{"gpt": "summary"}))

	got, err := st.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	result, err := got.ResultMap()
	require.NoError(t, err)
	assert.Equal(t, "summary", result["gpt"])

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[models.StatusCompleted])
}
