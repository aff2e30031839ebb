package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineaPedidoRequest línea de un pedido. ProductoID nil = línea de texto libre (Descripcion obligatoria).
type LineaPedidoRequest struct {
	ProductoID     *int64          `json:"producto_id,omitempty"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Descuento      decimal.Decimal `json:"descuento"`
}

// CrearPedidoRequest body para POST /api/pedidos.
// Impuestos y total no se aceptan: se calculan en el caso de uso.
type CrearPedidoRequest struct {
	ClienteID              int64                `json:"cliente_id"`
	ObraID                 *int64               `json:"obra_id,omitempty"`
	Tipo                   string               `json:"tipo"`
	Prioridad              string               `json:"prioridad"`
	Descuento              decimal.Decimal      `json:"descuento"`
	FechaEntregaSolicitada *time.Time           `json:"fecha_entrega_solicitada,omitempty"`
	Observaciones          string               `json:"observaciones"`
	DireccionEntrega       string               `json:"direccion_entrega"`
	ContactoEntrega        string               `json:"contacto_entrega"`
	TelefonoContacto       string               `json:"telefono_contacto"`
	Lineas                 []LineaPedidoRequest `json:"lineas"`
}

// ActualizarPedidoRequest body para PUT /api/pedidos/:id. Campos nil no se modifican;
// Lineas != nil reemplaza todas las líneas.
type ActualizarPedidoRequest struct {
	Prioridad              *string              `json:"prioridad,omitempty"`
	Descuento              *decimal.Decimal     `json:"descuento,omitempty"`
	FechaEntregaSolicitada *time.Time           `json:"fecha_entrega_solicitada,omitempty"`
	Observaciones          *string              `json:"observaciones,omitempty"`
	DireccionEntrega       *string              `json:"direccion_entrega,omitempty"`
	ContactoEntrega        *string              `json:"contacto_entrega,omitempty"`
	TelefonoContacto       *string              `json:"telefono_contacto,omitempty"`
	Lineas                 []LineaPedidoRequest `json:"lineas,omitempty"`
}

// CambiarEstadoRequest body para POST /api/pedidos/:id/estado.
type CambiarEstadoRequest struct {
	Estado        string `json:"estado"`
	Observaciones string `json:"observaciones"`
}

// EntregaLineaRequest cantidad entregada de una línea.
type EntregaLineaRequest struct {
	DetalleID int64           `json:"detalle_id"`
	Cantidad  decimal.Decimal `json:"cantidad"`
}

// RegistrarEntregaRequest body para POST /api/pedidos/:id/entregas.
type RegistrarEntregaRequest struct {
	Lineas        []EntregaLineaRequest `json:"lineas"`
	Observaciones string                `json:"observaciones"`
}

// FiltrosPedido query de GET /api/pedidos.
type FiltrosPedido struct {
	Estado    string
	ObraID    *int64
	ClienteID *int64
	Desde     *time.Time
	Hasta     *time.Time
	Busqueda  string
	PageRequest
}

// LineaPedidoResponse salida de una línea con la cantidad pendiente derivada.
type LineaPedidoResponse struct {
	ID                int64           `json:"id"`
	ProductoID        *int64          `json:"producto_id,omitempty"`
	Descripcion       string          `json:"descripcion"`
	Cantidad          decimal.Decimal `json:"cantidad"`
	PrecioUnitario    decimal.Decimal `json:"precio_unitario"`
	Descuento         decimal.Decimal `json:"descuento"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	CantidadEntregada decimal.Decimal `json:"cantidad_entregada"`
	CantidadPendiente decimal.Decimal `json:"cantidad_pendiente"`
}

// HistorialResponse entrada del historial de estados.
type HistorialResponse struct {
	EstadoAnterior string    `json:"estado_anterior,omitempty"`
	EstadoNuevo    string    `json:"estado_nuevo"`
	Usuario        string    `json:"usuario"`
	Observaciones  string    `json:"observaciones,omitempty"`
	Fecha          time.Time `json:"fecha"`
}

// PedidoResponse salida completa de un pedido.
type PedidoResponse struct {
	ID                     int64                 `json:"id"`
	Numero                 string                `json:"numero"`
	ClienteID              int64                 `json:"cliente_id"`
	ObraID                 *int64                `json:"obra_id,omitempty"`
	Tipo                   string                `json:"tipo"`
	Prioridad              string                `json:"prioridad"`
	Estado                 string                `json:"estado"`
	Subtotal               decimal.Decimal       `json:"subtotal"`
	Descuento              decimal.Decimal       `json:"descuento"`
	Impuestos              decimal.Decimal       `json:"impuestos"`
	Total                  decimal.Decimal       `json:"total"`
	FechaPedido            time.Time             `json:"fecha_pedido"`
	FechaEntregaSolicitada *time.Time            `json:"fecha_entrega_solicitada,omitempty"`
	FechaEntregaReal       *time.Time            `json:"fecha_entrega_real,omitempty"`
	Observaciones          string                `json:"observaciones,omitempty"`
	DireccionEntrega       string                `json:"direccion_entrega,omitempty"`
	ContactoEntrega        string                `json:"contacto_entrega,omitempty"`
	TelefonoContacto       string                `json:"telefono_contacto,omitempty"`
	UsuarioCreador         string                `json:"usuario_creador"`
	UsuarioAprobador       string                `json:"usuario_aprobador,omitempty"`
	FechaAprobacion        *time.Time            `json:"fecha_aprobacion,omitempty"`
	Lineas                 []LineaPedidoResponse `json:"lineas"`
	Historial              []HistorialResponse   `json:"historial,omitempty"`
}

// PedidoListResponse lista paginada de pedidos (sin líneas ni historial).
type PedidoListResponse struct {
	Items []PedidoResponse `json:"items"`
	Page  PageResponse     `json:"page"`
}

// TransicionesResponse estados alcanzables desde el estado actual.
type TransicionesResponse struct {
	Estado     string   `json:"estado"`
	Siguientes []string `json:"siguientes"`
	Terminal   bool     `json:"terminal"`
}

// EntregaResponse salida de una entrega registrada.
type EntregaResponse struct {
	ID            int64           `json:"id"`
	DetalleID     int64           `json:"detalle_id"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	Usuario       string          `json:"usuario"`
	Observaciones string          `json:"observaciones,omitempty"`
	Fecha         time.Time       `json:"fecha"`
}
