package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

var _ repository.MovimientoRepository = (*MovimientoRepo)(nil)

// MovimientoRepo implementación del puerto MovimientoRepository sobre PostgreSQL (usable con pool o tx).
type MovimientoRepo struct {
	q Querier
}

// NewMovimientoRepository construye el adaptador de movimientos. Pasar pool o tx (Querier).
func NewMovimientoRepository(q Querier) *MovimientoRepo {
	return &MovimientoRepo{q: q}
}

// Create persiste un movimiento y asigna m.ID.
func (r *MovimientoRepo) Create(ctx context.Context, m *entity.MovimientoInventario) error {
	query := `
		INSERT INTO movimientos_inventario (transaccion_id, producto_id, tipo, cantidad, stock_anterior, stock_nuevo,
			costo_unitario, obra_id, pedido_id, reserva_id, usuario, observaciones, fecha)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.TransaccionID, m.ProductoID, m.Tipo, m.Cantidad, m.StockAnterior, m.StockNuevo,
		m.CostoUnitario, m.ObraID, m.PedidoID, m.ReservaID, m.Usuario, m.Observaciones, m.Fecha,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert movimiento: %w", err)
	}
	return nil
}

// ListByProducto lista movimientos de un producto en un rango de fechas, más recientes primero.
func (r *MovimientoRepo) ListByProducto(ctx context.Context, productoID int64, from, to *time.Time, limit, offset int) ([]*entity.MovimientoInventario, error) {
	query := `
		SELECT id, transaccion_id, producto_id, tipo, cantidad, stock_anterior, stock_nuevo, costo_unitario,
			obra_id, pedido_id, reserva_id, usuario, observaciones, fecha
		FROM movimientos_inventario WHERE producto_id = $1`
	args := []any{productoID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND fecha >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND fecha <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY fecha DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimientos: %w", err)
	}
	defer rows.Close()
	var list []*entity.MovimientoInventario
	for rows.Next() {
		var m entity.MovimientoInventario
		if err := rows.Scan(&m.ID, &m.TransaccionID, &m.ProductoID, &m.Tipo, &m.Cantidad, &m.StockAnterior,
			&m.StockNuevo, &m.CostoUnitario, &m.ObraID, &m.PedidoID, &m.ReservaID, &m.Usuario,
			&m.Observaciones, &m.Fecha); err != nil {
			return nil, fmt.Errorf("scan movimiento: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
