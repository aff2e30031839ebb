package redisx

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore implementa ports.IdempotencyStore con SET NX.
type IdempotencyStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewIdempotencyStore ttl es la vigencia de una clave ya completada.
func NewIdempotencyStore(rdb redis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func key(k string) string { return fmt.Sprintf(keyIdemPedido, k) }

// Reserve toma la clave si está libre; si ya tiene un ID devuelve ese ID.
func (s *IdempotencyStore) Reserve(ctx context.Context, k string) (int64, bool, error) {
	ok, err := s.rdb.SetNX(ctx, key(k), enCurso, ttlEnCurso).Result()
	if err != nil {
		return 0, false, fmt.Errorf("idempotency reserve: %w", err)
	}
	if ok {
		return 0, true, nil
	}
	val, err := s.rdb.Get(ctx, key(k)).Result()
	if errors.Is(err, redis.Nil) {
		// expiró entre SETNX y GET
		return s.Reserve(ctx, k)
	}
	if err != nil {
		return 0, false, fmt.Errorf("idempotency get: %w", err)
	}
	if val == enCurso {
		return 0, false, fmt.Errorf("clave de idempotencia en uso: %w", domain.ErrConflict)
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency valor inválido %q: %w", val, err)
	}
	return id, false, nil
}

// Complete asocia la clave al ID creado.
func (s *IdempotencyStore) Complete(ctx context.Context, k string, id int64) error {
	if err := s.rdb.Set(ctx, key(k), strconv.FormatInt(id, 10), s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release libera la clave tras un fallo para permitir el reintento.
func (s *IdempotencyStore) Release(ctx context.Context, k string) error {
	if err := s.rdb.Del(ctx, key(k)).Err(); err != nil {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}
