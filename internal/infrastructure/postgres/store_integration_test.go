//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/baechuer/club-service/internal/infrastructure/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, pool.Ping(ctx))
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `DROP TABLE IF EXISTS club_state`)
	require.NoError(t, err)
	return pool
}

func TestStore_LoadSave(t *testing.T) {
	pool := newPool(t)
	s := postgres.New(pool)
	ctx := context.Background()

	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))

	doc, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, doc)

	v, err := s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	require.NoError(t, s.Save(ctx, []byte(`{"evenements":[],"settings":{"lastEvenementId":1}}`)))
	require.NoError(t, s.Save(ctx, []byte(`{"evenements":[],"settings":{"lastEvenementId":2}}`)))

	doc, err = s.Load(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"evenements":[],"settings":{"lastEvenementId":2}}`, string(doc))

	v, err = s.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestStore_RejectsInvalidJSON(t *testing.T) {
	pool := newPool(t)
	s := postgres.New(pool)
	ctx := context.Background()
	require.NoError(t, s.EnsureSchema(ctx))

	assert.Error(t, s.Save(ctx, []byte(`{not json`)))
}
