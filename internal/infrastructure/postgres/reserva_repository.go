package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

var _ repository.ReservaRepository = (*ReservaRepo)(nil)

const reservaColumns = `id, producto_id, obra_id, pedido_id, cantidad, estado, usuario, observaciones, fecha_reserva,
	usuario_liberacion, motivo_liberacion, fecha_liberacion`

// ReservaRepo implementación del puerto ReservaRepository sobre PostgreSQL (usable con pool o tx).
type ReservaRepo struct {
	q Querier
}

// NewReservaRepository construye el adaptador de reservas. Pasar pool o tx (Querier).
func NewReservaRepository(q Querier) *ReservaRepo {
	return &ReservaRepo{q: q}
}

func scanReserva(row pgx.Row) (*entity.Reserva, error) {
	var r entity.Reserva
	err := row.Scan(&r.ID, &r.ProductoID, &r.ObraID, &r.PedidoID, &r.Cantidad, &r.Estado, &r.Usuario,
		&r.Observaciones, &r.FechaReserva, &r.UsuarioLiberacion, &r.MotivoLiberacion, &r.FechaLiberacion)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create inserta la reserva y asigna res.ID.
func (r *ReservaRepo) Create(ctx context.Context, res *entity.Reserva) error {
	query := `
		INSERT INTO reservas_material (producto_id, obra_id, pedido_id, cantidad, estado, usuario, observaciones, fecha_reserva)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		res.ProductoID, res.ObraID, res.PedidoID, res.Cantidad, res.Estado, res.Usuario, res.Observaciones, res.FechaReserva,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("insert reserva: %w", err)
	}
	return nil
}

// GetByID obtiene una reserva por ID.
func (r *ReservaRepo) GetByID(ctx context.Context, id int64) (*entity.Reserva, error) {
	return r.one(ctx, `SELECT `+reservaColumns+` FROM reservas_material WHERE id = $1`, id)
}

// GetForUpdate obtiene la reserva y bloquea la fila.
func (r *ReservaRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Reserva, error) {
	return r.one(ctx, `SELECT `+reservaColumns+` FROM reservas_material WHERE id = $1 FOR UPDATE`, id)
}

func (r *ReservaRepo) one(ctx context.Context, query string, id int64) (*entity.Reserva, error) {
	res, err := scanReserva(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reserva: %w", err)
	}
	return res, nil
}

// MarcarLiberada pasa la reserva a LIBERADA. Solo afecta reservas ACTIVA.
func (r *ReservaRepo) MarcarLiberada(ctx context.Context, id int64, usuario, motivo string, fecha time.Time) error {
	query := `
		UPDATE reservas_material SET estado = $2, usuario_liberacion = $3, motivo_liberacion = $4, fecha_liberacion = $5
		WHERE id = $1 AND estado = $6`
	tag, err := r.q.Exec(ctx, query, id, entity.ReservaLiberada, usuario, motivo, fecha, entity.ReservaActiva)
	if err != nil {
		return fmt.Errorf("liberar reserva: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservaLiberada
	}
	return nil
}

// ListByObra reservas de una obra, más recientes primero.
func (r *ReservaRepo) ListByObra(ctx context.Context, obraID int64, soloActivas bool) ([]*entity.Reserva, error) {
	return r.list(ctx, "obra_id", obraID, soloActivas)
}

// ListByProducto reservas de un producto, más recientes primero.
func (r *ReservaRepo) ListByProducto(ctx context.Context, productoID int64, soloActivas bool) ([]*entity.Reserva, error) {
	return r.list(ctx, "producto_id", productoID, soloActivas)
}

// ListActivasByPedido reservas ACTIVA originadas por un pedido, en orden de creación.
func (r *ReservaRepo) ListActivasByPedido(ctx context.Context, pedidoID int64) ([]*entity.Reserva, error) {
	query := `SELECT ` + reservaColumns + ` FROM reservas_material WHERE pedido_id = $1 AND estado = $2 ORDER BY id`
	return r.query(ctx, query, pedidoID, entity.ReservaActiva)
}

func (r *ReservaRepo) list(ctx context.Context, col string, id int64, soloActivas bool) ([]*entity.Reserva, error) {
	query := `SELECT ` + reservaColumns + ` FROM reservas_material WHERE ` + col + ` = $1`
	args := []any{id}
	if soloActivas {
		query += ` AND estado = $2`
		args = append(args, entity.ReservaActiva)
	}
	query += ` ORDER BY fecha_reserva DESC, id DESC`
	return r.query(ctx, query, args...)
}

func (r *ReservaRepo) query(ctx context.Context, query string, args ...any) ([]*entity.Reserva, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservas: %w", err)
	}
	defer rows.Close()
	var list []*entity.Reserva
	for rows.Next() {
		res, err := scanReserva(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reserva: %w", err)
		}
		list = append(list, res)
	}
	return list, rows.Err()
}
