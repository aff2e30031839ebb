package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductoRequest entrada para crear un producto. El stock arranca en 0 y se carga con movimientos.
type CreateProductoRequest struct {
	Codigo         string          `json:"codigo"`
	Descripcion    string          `json:"descripcion"`
	Categoria      string          `json:"categoria"`
	Unidad         string          `json:"unidad"`
	StockMinimo    decimal.Decimal `json:"stock_minimo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

// UpdateProductoRequest entrada para actualizar datos de catálogo.
type UpdateProductoRequest struct {
	Descripcion    *string          `json:"descripcion,omitempty"`
	Categoria      *string          `json:"categoria,omitempty"`
	Unidad         *string          `json:"unidad,omitempty"`
	StockMinimo    *decimal.Decimal `json:"stock_minimo,omitempty"`
	PrecioUnitario *decimal.Decimal `json:"precio_unitario,omitempty"`
}

// ProductoResponse salida de un producto.
type ProductoResponse struct {
	ID             int64           `json:"id"`
	Codigo         string          `json:"codigo"`
	Descripcion    string          `json:"descripcion"`
	Categoria      string          `json:"categoria,omitempty"`
	Unidad         string          `json:"unidad,omitempty"`
	StockActual    decimal.Decimal `json:"stock_actual"`
	StockReservado decimal.Decimal `json:"stock_reservado"`
	StockMinimo    decimal.Decimal `json:"stock_minimo"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	CostoPromedio  decimal.Decimal `json:"costo_promedio"`
	EstadoStock    string          `json:"estado_stock"` // OK | BAJO | CRITICO | AGOTADO
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductoListResponse lista paginada de productos.
type ProductoListResponse struct {
	Items []ProductoResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
