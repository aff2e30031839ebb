package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// FiltrosPedido criterios de búsqueda de pedidos. Campos vacíos/nil no filtran.
// Busqueda aplica sobre número, observaciones y contacto de entrega.
type FiltrosPedido struct {
	Estado    string
	ObraID    *int64
	ClienteID *int64
	Desde     *time.Time
	Hasta     *time.Time
	Busqueda  string
	Limit     int
	Offset    int
}

// PedidoRepository define el puerto de persistencia para pedidos, sus líneas, historial y entregas.
// Las lecturas devuelven (nil, nil) cuando el pedido no existe o está inactivo.
type PedidoRepository interface {
	// Create inserta la cabecera y asigna p.ID. Devuelve domain.ErrDuplicate si el número ya existe.
	Create(ctx context.Context, p *entity.Pedido) error
	CreateDetalle(ctx context.Context, d *entity.PedidoDetalle) error
	// ReplaceDetalles elimina las líneas actuales y persiste las nuevas (asigna IDs).
	ReplaceDetalles(ctx context.Context, pedidoID int64, detalles []*entity.PedidoDetalle) error
	GetByID(ctx context.Context, id int64) (*entity.Pedido, error)
	// GetForUpdate bloquea la fila del pedido (SELECT FOR UPDATE) y carga sus líneas.
	GetForUpdate(ctx context.Context, id int64) (*entity.Pedido, error)
	List(ctx context.Context, f FiltrosPedido) ([]*entity.Pedido, int, error)
	// UpdateCabecera persiste campos editables y totales.
	UpdateCabecera(ctx context.Context, p *entity.Pedido) error
	// UpdateEstado persiste estado, datos de aprobación y fecha de entrega real.
	UpdateEstado(ctx context.Context, p *entity.Pedido) error
	UpdateCantidadEntregada(ctx context.Context, detalleID int64, cantidad decimal.Decimal) error
	Desactivar(ctx context.Context, id int64, at time.Time) error

	AppendHistorial(ctx context.Context, h *entity.PedidoHistorial) error
	ListHistorial(ctx context.Context, pedidoID int64) ([]*entity.PedidoHistorial, error)

	CreateEntrega(ctx context.Context, e *entity.PedidoEntrega) error
	ListEntregas(ctx context.Context, pedidoID int64) ([]*entity.PedidoEntrega, error)

	// SiguienteSecuencia reserva atómicamente el siguiente consecutivo del año.
	SiguienteSecuencia(ctx context.Context, anio int) (int, error)
}
