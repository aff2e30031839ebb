package ports

import (
	"context"
	"time"
)

// Tipos de evento publicados tras el commit.
const (
	EventPedidoCreado         = "pedido.creado"
	EventPedidoEstado         = "pedido.estado_cambiado"
	EventPedidoEntrega        = "pedido.entrega_registrada"
	EventReservaCreada        = "reserva.creada"
	EventReservaLiberada      = "reserva.liberada"
	EventMovimientoRegistrado = "inventario.movimiento_registrado"
)

// Event sobre de un evento de dominio. Key agrupa los eventos de una misma entidad
// (p.ej. "pedido:42") para conservar su orden en la partición.
type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"event_type"`
	Version    int       `json:"event_version"`
	OccurredAt time.Time `json:"occurred_at"`
	Key        string    `json:"-"`
	Payload    any       `json:"payload"`
}

// EventPublisher publica eventos de dominio. La publicación es best-effort:
// un error no revierte la operación que ya hizo commit.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NopPublisher descarta los eventos. Se usa cuando Kafka no está configurado.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }

// IdempotencyStore recuerda qué recurso creó una clave Idempotency-Key.
type IdempotencyStore interface {
	// Reserve marca la clave como en curso. Devuelve (id, false) si ya existe un recurso creado
	// con ella, (0, true) si la reserva es nueva y domain.ErrConflict si otra petición la tiene en curso.
	Reserve(ctx context.Context, key string) (existingID int64, reserved bool, err error)
	Complete(ctx context.Context, key string, id int64) error
	Release(ctx context.Context, key string) error
}
