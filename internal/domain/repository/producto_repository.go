package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// ProductoRepository define el puerto de persistencia para Producto.
// Stock físico y reservado solo cambian mediante las operaciones condicionales,
// que devuelven la fila actualizada o nil si la condición no se cumple.
type ProductoRepository interface {
	Create(ctx context.Context, p *entity.Producto) error
	GetByID(ctx context.Context, id int64) (*entity.Producto, error)
	GetByCodigo(ctx context.Context, codigo string) (*entity.Producto, error)
	GetForUpdate(ctx context.Context, id int64) (*entity.Producto, error)
	// Update modifica datos de catálogo; no toca stock ni costo.
	Update(ctx context.Context, p *entity.Producto) error
	List(ctx context.Context, busqueda string, limit, offset int) ([]*entity.Producto, error)
	ListActivos(ctx context.Context) ([]*entity.Producto, error)
	// Desactivar aplica solo con stock_reservado = 0 (domain.ErrConflict si no); domain.ErrNotFound si no existe o ya está inactivo.
	Desactivar(ctx context.Context, id int64) error

	// IncrementarReservado suma cantidad a stock_reservado solo si reservado + cantidad <= stock_actual.
	IncrementarReservado(ctx context.Context, id int64, cantidad decimal.Decimal) (*entity.Producto, error)
	// DecrementarReservado resta cantidad solo si stock_reservado >= cantidad.
	DecrementarReservado(ctx context.Context, id int64, cantidad decimal.Decimal) (*entity.Producto, error)
	// AjustarStock suma delta a stock_actual solo si el resultado queda >= stock_reservado.
	// costoPromedio nil conserva el costo actual.
	AjustarStock(ctx context.Context, id int64, delta decimal.Decimal, costoPromedio *decimal.Decimal) (*entity.Producto, error)
}
