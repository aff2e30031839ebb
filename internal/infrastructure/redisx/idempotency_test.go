package redisx_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/infrastructure/redisx"
	"github.com/jhoicas/Rexus-api/pkg/config"
)

// Requiere un Redis real: REDIS_ADDR=localhost:6379 go test ./internal/infrastructure/redisx/...
func newStore(t *testing.T) *redisx.IdempotencyStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR no definido")
	}
	rdb, err := redisx.New(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return redisx.NewIdempotencyStore(rdb, time.Minute)
}

func TestIdempotencyStore_Ciclo(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	k := uuid.NewString()

	_, reserved, err := s.Reserve(ctx, k)
	require.NoError(t, err)
	assert.True(t, reserved)

	_, _, err = s.Reserve(ctx, k)
	assert.True(t, errors.Is(err, domain.ErrConflict), "en curso")

	require.NoError(t, s.Complete(ctx, k, 42))
	id, reserved, err := s.Reserve(ctx, k)
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, int64(42), id)
}

func TestIdempotencyStore_ReleasePermiteReintento(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	k := uuid.NewString()

	_, _, err := s.Reserve(ctx, k)
	require.NoError(t, err)
	require.NoError(t, s.Release(ctx, k))

	_, reserved, err := s.Reserve(ctx, k)
	require.NoError(t, err)
	assert.True(t, reserved)
}
