package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una reserva de material.
const (
	ReservaActiva   = "ACTIVA"
	ReservaLiberada = "LIBERADA"
)

// Reserva representa stock comprometido de un producto para una obra.
// Nunca se elimina: al liberarse pasa a LIBERADA.
type Reserva struct {
	ID                int64
	ProductoID        int64
	ObraID            int64
	PedidoID          *int64 // pedido que originó la reserva, si aplica
	Cantidad          decimal.Decimal
	Estado            string
	Usuario           string
	Observaciones     string
	FechaReserva      time.Time
	UsuarioLiberacion string
	MotivoLiberacion  string
	FechaLiberacion   *time.Time
}
