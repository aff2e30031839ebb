package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

var _ repository.PedidoRepository = (*PedidoRepo)(nil)

const pedidoColumns = `id, numero, cliente_id, obra_id, tipo, prioridad, estado, subtotal, descuento, impuestos, total,
	fecha_pedido, fecha_entrega_solicitada, fecha_entrega_real, observaciones, direccion_entrega, contacto_entrega,
	telefono_contacto, usuario_creador, usuario_aprobador, fecha_aprobacion, activo, created_at, updated_at`

const detalleColumns = `id, pedido_id, producto_id, descripcion, cantidad, precio_unitario, descuento, subtotal, cantidad_entregada`

// PedidoRepo implementación del puerto PedidoRepository sobre PostgreSQL (usable con pool o tx).
type PedidoRepo struct {
	q Querier
}

// NewPedidoRepository construye el adaptador de persistencia para pedidos. Pasar pool o tx (Querier).
func NewPedidoRepository(q Querier) *PedidoRepo {
	return &PedidoRepo{q: q}
}

func scanPedido(row pgx.Row, extra ...any) (*entity.Pedido, error) {
	var p entity.Pedido
	dest := []any{
		&p.ID, &p.Numero, &p.ClienteID, &p.ObraID, &p.Tipo, &p.Prioridad, &p.Estado,
		&p.Subtotal, &p.Descuento, &p.Impuestos, &p.Total,
		&p.FechaPedido, &p.FechaEntregaSolicitada, &p.FechaEntregaReal,
		&p.Observaciones, &p.DireccionEntrega, &p.ContactoEntrega, &p.TelefonoContacto,
		&p.UsuarioCreador, &p.UsuarioAprobador, &p.FechaAprobacion, &p.Activo, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserta la cabecera. domain.ErrDuplicate si el número ya existe.
func (r *PedidoRepo) Create(ctx context.Context, p *entity.Pedido) error {
	query := `
		INSERT INTO pedidos (numero, cliente_id, obra_id, tipo, prioridad, estado, subtotal, descuento, impuestos, total,
			fecha_pedido, fecha_entrega_solicitada, observaciones, direccion_entrega, contacto_entrega, telefono_contacto,
			usuario_creador, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		p.Numero, p.ClienteID, p.ObraID, p.Tipo, p.Prioridad, p.Estado, p.Subtotal, p.Descuento, p.Impuestos, p.Total,
		p.FechaPedido, p.FechaEntregaSolicitada, p.Observaciones, p.DireccionEntrega, p.ContactoEntrega, p.TelefonoContacto,
		p.UsuarioCreador, p.Activo, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert pedido: %w", err)
	}
	return nil
}

// CreateDetalle inserta una línea y asigna d.ID.
func (r *PedidoRepo) CreateDetalle(ctx context.Context, d *entity.PedidoDetalle) error {
	query := `
		INSERT INTO pedidos_detalle (pedido_id, producto_id, descripcion, cantidad, precio_unitario, descuento, subtotal, cantidad_entregada)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		d.PedidoID, d.ProductoID, d.Descripcion, d.Cantidad, d.PrecioUnitario, d.Descuento, d.Subtotal, d.CantidadEntregada,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert pedido detalle: %w", err)
	}
	return nil
}

// ReplaceDetalles borra las líneas del pedido e inserta las nuevas.
func (r *PedidoRepo) ReplaceDetalles(ctx context.Context, pedidoID int64, detalles []*entity.PedidoDetalle) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM pedidos_detalle WHERE pedido_id = $1`, pedidoID); err != nil {
		return fmt.Errorf("delete pedido detalle: %w", err)
	}
	for _, d := range detalles {
		d.PedidoID = pedidoID
		if err := r.CreateDetalle(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// GetByID obtiene el pedido activo con sus líneas.
func (r *PedidoRepo) GetByID(ctx context.Context, id int64) (*entity.Pedido, error) {
	return r.get(ctx, `SELECT `+pedidoColumns+` FROM pedidos WHERE id = $1 AND activo`, id)
}

// GetForUpdate igual que GetByID pero bloquea la fila del pedido.
func (r *PedidoRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Pedido, error) {
	return r.get(ctx, `SELECT `+pedidoColumns+` FROM pedidos WHERE id = $1 AND activo FOR UPDATE`, id)
}

func (r *PedidoRepo) get(ctx context.Context, query string, id int64) (*entity.Pedido, error) {
	p, err := scanPedido(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get pedido: %w", err)
	}
	p.Detalles, err = r.listDetalles(ctx, id)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PedidoRepo) listDetalles(ctx context.Context, pedidoID int64) ([]*entity.PedidoDetalle, error) {
	rows, err := r.q.Query(ctx, `SELECT `+detalleColumns+` FROM pedidos_detalle WHERE pedido_id = $1 ORDER BY id`, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("list pedido detalle: %w", err)
	}
	defer rows.Close()
	var list []*entity.PedidoDetalle
	for rows.Next() {
		var d entity.PedidoDetalle
		if err := rows.Scan(&d.ID, &d.PedidoID, &d.ProductoID, &d.Descripcion, &d.Cantidad,
			&d.PrecioUnitario, &d.Descuento, &d.Subtotal, &d.CantidadEntregada); err != nil {
			return nil, fmt.Errorf("scan pedido detalle: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// List pedidos activos, más recientes primero. Devuelve también el total sin paginar.
func (r *PedidoRepo) List(ctx context.Context, f repository.FiltrosPedido) ([]*entity.Pedido, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	where = append(where, "activo")
	if f.Estado != "" {
		add("estado = $%d", f.Estado)
	}
	if f.ObraID != nil {
		add("obra_id = $%d", *f.ObraID)
	}
	if f.ClienteID != nil {
		add("cliente_id = $%d", *f.ClienteID)
	}
	if f.Desde != nil {
		add("fecha_pedido >= $%d", *f.Desde)
	}
	if f.Hasta != nil {
		add("fecha_pedido <= $%d", *f.Hasta)
	}
	if f.Busqueda != "" {
		args = append(args, "%"+f.Busqueda+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(%s LIKE $%d OR %s LIKE $%d OR %s LIKE $%d)",
			foldSQL("numero"), n, foldSQL("observaciones"), n, foldSQL("contacto_entrega"), n))
	}
	query := `SELECT ` + pedidoColumns + `, COUNT(*) OVER() FROM pedidos WHERE ` + strings.Join(where, " AND ")
	query += fmt.Sprintf(" ORDER BY fecha_pedido DESC, id DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, f.Limit, f.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list pedidos: %w", err)
	}
	defer rows.Close()
	var list []*entity.Pedido
	total := 0
	for rows.Next() {
		p, err := scanPedido(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan pedido: %w", err)
		}
		list = append(list, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for _, p := range list {
		if p.Detalles, err = r.listDetalles(ctx, p.ID); err != nil {
			return nil, 0, err
		}
	}
	return list, total, nil
}

// UpdateCabecera persiste campos editables y totales.
func (r *PedidoRepo) UpdateCabecera(ctx context.Context, p *entity.Pedido) error {
	query := `
		UPDATE pedidos SET prioridad = $2, subtotal = $3, descuento = $4, impuestos = $5, total = $6,
			fecha_entrega_solicitada = $7, observaciones = $8, direccion_entrega = $9, contacto_entrega = $10,
			telefono_contacto = $11, updated_at = $12
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		p.ID, p.Prioridad, p.Subtotal, p.Descuento, p.Impuestos, p.Total,
		p.FechaEntregaSolicitada, p.Observaciones, p.DireccionEntrega, p.ContactoEntrega,
		p.TelefonoContacto, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update pedido: %w", err)
	}
	return nil
}

// UpdateEstado persiste estado, aprobación y fecha de entrega real.
func (r *PedidoRepo) UpdateEstado(ctx context.Context, p *entity.Pedido) error {
	query := `
		UPDATE pedidos SET estado = $2, usuario_aprobador = $3, fecha_aprobacion = $4, fecha_entrega_real = $5, updated_at = $6
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, p.ID, p.Estado, p.UsuarioAprobador, p.FechaAprobacion, p.FechaEntregaReal, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update estado pedido: %w", err)
	}
	return nil
}

// UpdateCantidadEntregada fija la cantidad entregada acumulada de una línea.
func (r *PedidoRepo) UpdateCantidadEntregada(ctx context.Context, detalleID int64, cantidad decimal.Decimal) error {
	_, err := r.q.Exec(ctx, `UPDATE pedidos_detalle SET cantidad_entregada = $2 WHERE id = $1`, detalleID, cantidad)
	if err != nil {
		return fmt.Errorf("update cantidad entregada: %w", err)
	}
	return nil
}

// Desactivar borrado lógico del pedido.
func (r *PedidoRepo) Desactivar(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.q.Exec(ctx, `UPDATE pedidos SET activo = FALSE, updated_at = $2 WHERE id = $1 AND activo`, id, at)
	if err != nil {
		return fmt.Errorf("desactivar pedido: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AppendHistorial agrega una entrada al historial de estados.
func (r *PedidoRepo) AppendHistorial(ctx context.Context, h *entity.PedidoHistorial) error {
	query := `
		INSERT INTO pedidos_historial (pedido_id, estado_anterior, estado_nuevo, usuario, observaciones, fecha)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(ctx, query, h.PedidoID, h.EstadoAnterior, h.EstadoNuevo, h.Usuario, h.Observaciones, h.Fecha).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("insert historial: %w", err)
	}
	return nil
}

// ListHistorial historial del pedido en orden cronológico.
func (r *PedidoRepo) ListHistorial(ctx context.Context, pedidoID int64) ([]*entity.PedidoHistorial, error) {
	query := `
		SELECT id, pedido_id, estado_anterior, estado_nuevo, usuario, observaciones, fecha
		FROM pedidos_historial WHERE pedido_id = $1 ORDER BY fecha, id`
	rows, err := r.q.Query(ctx, query, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("list historial: %w", err)
	}
	defer rows.Close()
	var list []*entity.PedidoHistorial
	for rows.Next() {
		var h entity.PedidoHistorial
		if err := rows.Scan(&h.ID, &h.PedidoID, &h.EstadoAnterior, &h.EstadoNuevo, &h.Usuario, &h.Observaciones, &h.Fecha); err != nil {
			return nil, fmt.Errorf("scan historial: %w", err)
		}
		list = append(list, &h)
	}
	return list, rows.Err()
}

// CreateEntrega registra una entrega y asigna e.ID.
func (r *PedidoRepo) CreateEntrega(ctx context.Context, e *entity.PedidoEntrega) error {
	query := `
		INSERT INTO pedidos_entregas (pedido_id, detalle_id, cantidad, usuario, observaciones, fecha)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := r.q.QueryRow(ctx, query, e.PedidoID, e.DetalleID, e.Cantidad, e.Usuario, e.Observaciones, e.Fecha).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert entrega: %w", err)
	}
	return nil
}

// ListEntregas entregas del pedido en orden cronológico.
func (r *PedidoRepo) ListEntregas(ctx context.Context, pedidoID int64) ([]*entity.PedidoEntrega, error) {
	query := `
		SELECT id, pedido_id, detalle_id, cantidad, usuario, observaciones, fecha
		FROM pedidos_entregas WHERE pedido_id = $1 ORDER BY fecha, id`
	rows, err := r.q.Query(ctx, query, pedidoID)
	if err != nil {
		return nil, fmt.Errorf("list entregas: %w", err)
	}
	defer rows.Close()
	var list []*entity.PedidoEntrega
	for rows.Next() {
		var e entity.PedidoEntrega
		if err := rows.Scan(&e.ID, &e.PedidoID, &e.DetalleID, &e.Cantidad, &e.Usuario, &e.Observaciones, &e.Fecha); err != nil {
			return nil, fmt.Errorf("scan entrega: %w", err)
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}

// SiguienteSecuencia incrementa el contador del año en una sola sentencia. La primera vez en el año
// arranca desde el mayor sufijo existente, así los pedidos previos a la tabla de secuencias se respetan.
// Corre fuera de la transacción del pedido para no retener el bloqueo del contador.
func (r *PedidoRepo) SiguienteSecuencia(ctx context.Context, anio int) (int, error) {
	query := `
		INSERT INTO pedidos_secuencias (anio, ultimo)
		VALUES ($1, COALESCE((
			SELECT MAX(CAST(split_part(numero, '-', 3) AS INTEGER))
			FROM pedidos WHERE numero ~ $2
		), 0) + 1)
		ON CONFLICT (anio) DO UPDATE SET ultimo = pedidos_secuencias.ultimo + 1
		RETURNING ultimo`
	pattern := fmt.Sprintf(`^PED-%04d-[0-9]{5}$`, anio)
	var seq int
	if err := r.q.QueryRow(ctx, query, anio, pattern).Scan(&seq); err != nil {
		return 0, fmt.Errorf("siguiente secuencia: %w", err)
	}
	return seq, nil
}
