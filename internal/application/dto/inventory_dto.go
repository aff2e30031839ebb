package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservarMaterialRequest body para POST /api/inventario/reservas.
type ReservarMaterialRequest struct {
	ProductoID    int64           `json:"producto_id"`
	ObraID        int64           `json:"obra_id"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	Observaciones string          `json:"observaciones"`
}

// LiberarReservaRequest body para POST /api/inventario/reservas/:id/liberar.
type LiberarReservaRequest struct {
	Motivo string `json:"motivo"`
}

// ReservaResponse salida de una reserva.
type ReservaResponse struct {
	ID                int64           `json:"id"`
	ProductoID        int64           `json:"producto_id"`
	ObraID            int64           `json:"obra_id"`
	PedidoID          *int64          `json:"pedido_id,omitempty"`
	Cantidad          decimal.Decimal `json:"cantidad"`
	Estado            string          `json:"estado"`
	Usuario           string          `json:"usuario"`
	Observaciones     string          `json:"observaciones,omitempty"`
	FechaReserva      time.Time       `json:"fecha_reserva"`
	UsuarioLiberacion string          `json:"usuario_liberacion,omitempty"`
	MotivoLiberacion  string          `json:"motivo_liberacion,omitempty"`
	FechaLiberacion   *time.Time      `json:"fecha_liberacion,omitempty"`
}

// DisponibilidadResponse stock disponible de un producto.
type DisponibilidadResponse struct {
	ProductoID     int64           `json:"producto_id"`
	Codigo         string          `json:"codigo"`
	Descripcion    string          `json:"descripcion"`
	StockActual    decimal.Decimal `json:"stock_actual"`
	StockReservado decimal.Decimal `json:"stock_reservado"`
	Disponible     decimal.Decimal `json:"disponible"`
	StockMinimo    decimal.Decimal `json:"stock_minimo"`
	Estado         string          `json:"estado"` // NORMAL | BAJO | AGOTADO
}

// RegisterMovementRequest body para POST /api/inventario/movimientos.
// Quantity positiva en ENTRADA/SALIDA; en AJUSTE el signo indica la dirección.
type RegisterMovementRequest struct {
	ProductoID    int64            `json:"producto_id"`
	Tipo          string           `json:"tipo"`
	Cantidad      decimal.Decimal  `json:"cantidad"`
	CostoUnitario *decimal.Decimal `json:"costo_unitario,omitempty"`
	Observaciones string           `json:"observaciones"`
}

// MovimientoResponse salida de un movimiento de inventario.
type MovimientoResponse struct {
	ID            int64           `json:"id"`
	TransaccionID string          `json:"transaccion_id"`
	ProductoID    int64           `json:"producto_id"`
	Tipo          string          `json:"tipo"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	StockAnterior decimal.Decimal `json:"stock_anterior"`
	StockNuevo    decimal.Decimal `json:"stock_nuevo"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
	ObraID        *int64          `json:"obra_id,omitempty"`
	PedidoID      *int64          `json:"pedido_id,omitempty"`
	ReservaID     *int64          `json:"reserva_id,omitempty"`
	Usuario       string          `json:"usuario"`
	Observaciones string          `json:"observaciones,omitempty"`
	Fecha         time.Time       `json:"fecha"`
}

// ReplenishmentSuggestionDTO sugerencia de reposición para un producto cuyo
// disponible está en o por debajo del mínimo.
type ReplenishmentSuggestionDTO struct {
	ProductoID       int64           `json:"producto_id"`
	Codigo           string          `json:"codigo"`
	Descripcion      string          `json:"descripcion"`
	Disponible       decimal.Decimal `json:"disponible"`
	StockMinimo      decimal.Decimal `json:"stock_minimo"`
	StockIdeal       decimal.Decimal `json:"stock_ideal"`       // StockMinimo * 1.5
	CantidadSugerida decimal.Decimal `json:"cantidad_sugerida"` // StockIdeal - Disponible
	CostoUnitario    decimal.Decimal `json:"costo_unitario"`    // costo promedio ponderado
	CostoEstimado    decimal.Decimal `json:"costo_estimado"`
	Estado           string          `json:"estado"`
	Prioridad        int             `json:"prioridad"` // 1 = más urgente
}
