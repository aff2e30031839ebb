package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// MovimientoRepository define el puerto de persistencia para movimientos de inventario.
type MovimientoRepository interface {
	Create(ctx context.Context, m *entity.MovimientoInventario) error
	ListByProducto(ctx context.Context, productoID int64, from, to *time.Time, limit, offset int) ([]*entity.MovimientoInventario, error)
}
