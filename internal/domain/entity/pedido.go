package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un pedido.
const (
	EstadoBorrador      = "BORRADOR"
	EstadoPendiente     = "PENDIENTE"
	EstadoAprobado      = "APROBADO"
	EstadoEnPreparacion = "EN_PREPARACION"
	EstadoListoEntrega  = "LISTO_ENTREGA"
	EstadoEnTransito    = "EN_TRANSITO"
	EstadoEntregado     = "ENTREGADO"
	EstadoCancelado     = "CANCELADO"
	EstadoFacturado     = "FACTURADO"
)

// Tipos de pedido.
const (
	TipoPedidoMaterial    = "MATERIAL"
	TipoPedidoHerramienta = "HERRAMIENTA"
	TipoPedidoServicio    = "SERVICIO"
	TipoPedidoVidrio      = "VIDRIO"
	TipoPedidoHerraje     = "HERRAJE"
	TipoPedidoMixto       = "MIXTO"
)

// Prioridades de pedido.
const (
	PrioridadBaja    = "BAJA"
	PrioridadNormal  = "NORMAL"
	PrioridadAlta    = "ALTA"
	PrioridadUrgente = "URGENTE"
)

// Pedido representa la cabecera de un pedido de cliente u obra.
// Impuestos y Total siempre se derivan del Subtotal; nunca se reciben del caller.
type Pedido struct {
	ID                     int64
	Numero                 string // PED-<año>-<secuencia>
	ClienteID              int64
	ObraID                 *int64
	Tipo                   string
	Prioridad              string
	Estado                 string
	Subtotal               decimal.Decimal
	Descuento              decimal.Decimal
	Impuestos              decimal.Decimal
	Total                  decimal.Decimal
	FechaPedido            time.Time
	FechaEntregaSolicitada *time.Time
	FechaEntregaReal       *time.Time
	Observaciones          string
	DireccionEntrega       string
	ContactoEntrega        string
	TelefonoContacto       string
	UsuarioCreador         string
	UsuarioAprobador       string
	FechaAprobacion        *time.Time
	Activo                 bool
	CreatedAt              time.Time
	UpdatedAt              time.Time
	Detalles               []*PedidoDetalle
}

// PedidoDetalle es una línea del pedido. ProductoID nil = línea de texto libre.
type PedidoDetalle struct {
	ID                int64
	PedidoID          int64
	ProductoID        *int64
	Descripcion       string
	Cantidad          decimal.Decimal
	PrecioUnitario    decimal.Decimal
	Descuento         decimal.Decimal
	Subtotal          decimal.Decimal
	CantidadEntregada decimal.Decimal
}

// CantidadPendiente = Cantidad - CantidadEntregada.
func (d *PedidoDetalle) CantidadPendiente() decimal.Decimal {
	return d.Cantidad.Sub(d.CantidadEntregada)
}

// PedidoHistorial es una entrada del log de cambios de estado (append-only).
// EstadoAnterior vacío corresponde a la creación.
type PedidoHistorial struct {
	ID             int64
	PedidoID       int64
	EstadoAnterior string
	EstadoNuevo    string
	Usuario        string
	Observaciones  string
	Fecha          time.Time
}

// PedidoEntrega registra una entrega parcial o total de una línea.
type PedidoEntrega struct {
	ID            int64
	PedidoID      int64
	DetalleID     int64
	Cantidad      decimal.Decimal
	Usuario       string
	Observaciones string
	Fecha         time.Time
}
