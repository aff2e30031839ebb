// Package redisx guarda las claves Idempotency-Key en Redis.
package redisx

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/Rexus-api/pkg/config"
)

const (
	keyIdemPedido = "rexus:idem:pedido:%s"

	// valor mientras la creación está en curso
	enCurso = "0"

	// tope de la marca en curso: si el proceso muere, la clave se libera sola
	ttlEnCurso = 2 * time.Minute
)

// New crea el cliente y verifica la conexión.
func New(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
