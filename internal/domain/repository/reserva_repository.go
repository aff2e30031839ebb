package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// ReservaRepository define el puerto de persistencia de reservas de material.
type ReservaRepository interface {
	Create(ctx context.Context, r *entity.Reserva) error
	GetByID(ctx context.Context, id int64) (*entity.Reserva, error)
	// GetForUpdate bloquea la fila de la reserva (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.Reserva, error)
	MarcarLiberada(ctx context.Context, id int64, usuario, motivo string, fecha time.Time) error
	ListByObra(ctx context.Context, obraID int64, soloActivas bool) ([]*entity.Reserva, error)
	ListByProducto(ctx context.Context, productoID int64, soloActivas bool) ([]*entity.Reserva, error)
	ListActivasByPedido(ctx context.Context, pedidoID int64) ([]*entity.Reserva, error)
}
