package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Producto representa un ítem del inventario.
// StockReservado es el contador de reservas ACTIVA; disponible = StockActual - StockReservado.
// CostoPromedio es ponderado y se recalcula con cada ENTRADA.
type Producto struct {
	ID             int64
	Codigo         string // código único
	Descripcion    string
	Categoria      string
	Unidad         string
	StockActual    decimal.Decimal
	StockReservado decimal.Decimal
	StockMinimo    decimal.Decimal
	PrecioUnitario decimal.Decimal
	CostoPromedio  decimal.Decimal
	Activo         bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Disponible devuelve stock_actual - stock_reservado.
func (p *Producto) Disponible() decimal.Decimal {
	return p.StockActual.Sub(p.StockReservado)
}
