package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// Querier lo cumplen *pgxpool.Pool y pgx.Tx; los repositorios funcionan igual dentro y fuera de una transacción.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewRepos construye el conjunto de repositorios sobre el mismo Querier.
func NewRepos(q Querier) repository.Repos {
	return repository.Repos{
		Pedidos:     NewPedidoRepository(q),
		Reservas:    NewReservaRepository(q),
		Productos:   NewProductoRepository(q),
		Movimientos: NewMovimientoRepository(q),
	}
}
