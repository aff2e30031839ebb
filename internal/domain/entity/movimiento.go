package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento de inventario.
const (
	MovimientoEntrada           = "ENTRADA"
	MovimientoSalida            = "SALIDA"
	MovimientoAjuste            = "AJUSTE"
	MovimientoReserva           = "RESERVA"
	MovimientoLiberacionReserva = "LIBERACION_RESERVA"
)

// MovimientoInventario registra cada cambio de stock físico o reservado de un producto.
// Cantidad es positiva en entradas y reservas, negativa en salidas y liberaciones.
type MovimientoInventario struct {
	ID            int64
	TransaccionID string
	ProductoID    int64
	Tipo          string
	Cantidad      decimal.Decimal
	StockAnterior decimal.Decimal
	StockNuevo    decimal.Decimal
	CostoUnitario decimal.Decimal
	ObraID        *int64
	PedidoID      *int64
	ReservaID     *int64
	Usuario       string
	Observaciones string
	Fecha         time.Time
}
