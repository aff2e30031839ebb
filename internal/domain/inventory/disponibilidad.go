// Package inventory agrupa los servicios de dominio del inventario:
// costo promedio y clasificación de disponibilidad.
package inventory

import "github.com/shopspring/decimal"

// Estados de disponibilidad (stock disponible = actual - reservado).
const (
	DisponibilidadNormal  = "NORMAL"
	DisponibilidadBajo    = "BAJO"
	DisponibilidadAgotado = "AGOTADO"
)

// Estados del stock físico frente al mínimo.
const (
	StockOK      = "OK"
	StockBajo    = "BAJO"
	StockCritico = "CRITICO"
	StockAgotado = "AGOTADO"
)

// EstadoDisponibilidad clasifica el stock disponible frente al mínimo.
// AGOTADO tiene precedencia sobre BAJO.
func EstadoDisponibilidad(disponible, minimo decimal.Decimal) string {
	switch {
	case disponible.LessThanOrEqual(decimal.Zero):
		return DisponibilidadAgotado
	case disponible.LessThanOrEqual(minimo):
		return DisponibilidadBajo
	default:
		return DisponibilidadNormal
	}
}

// EstadoStock clasifica el stock físico: CRITICO por debajo de la mitad del mínimo.
func EstadoStock(stockActual, minimo decimal.Decimal) string {
	switch {
	case stockActual.LessThanOrEqual(decimal.Zero):
		return StockAgotado
	case stockActual.LessThanOrEqual(minimo.Div(decimal.NewFromInt(2))):
		return StockCritico
	case stockActual.LessThanOrEqual(minimo):
		return StockBajo
	default:
		return StockOK
	}
}
