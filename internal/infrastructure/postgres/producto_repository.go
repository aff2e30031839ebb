package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

var _ repository.ProductoRepository = (*ProductoRepo)(nil)

const productoColumns = `id, codigo, descripcion, categoria, unidad, stock_actual, stock_reservado, stock_minimo,
	precio_unitario, costo_promedio, activo, created_at, updated_at`

// ProductoRepo implementación del puerto ProductoRepository sobre PostgreSQL (usable con pool o tx).
type ProductoRepo struct {
	q Querier
}

// NewProductoRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductoRepository(q Querier) *ProductoRepo {
	return &ProductoRepo{q: q}
}

func scanProducto(row pgx.Row) (*entity.Producto, error) {
	var p entity.Producto
	err := row.Scan(
		&p.ID, &p.Codigo, &p.Descripcion, &p.Categoria, &p.Unidad, &p.StockActual, &p.StockReservado,
		&p.StockMinimo, &p.PrecioUnitario, &p.CostoPromedio, &p.Activo, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// queryOne devuelve (nil, nil) si no hay fila.
func (r *ProductoRepo) queryOne(ctx context.Context, op, query string, args ...any) (*entity.Producto, error) {
	p, err := scanProducto(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Create persiste un nuevo producto y asigna p.ID.
func (r *ProductoRepo) Create(ctx context.Context, p *entity.Producto) error {
	query := `
		INSERT INTO productos (codigo, descripcion, categoria, unidad, stock_actual, stock_reservado, stock_minimo,
			precio_unitario, costo_promedio, activo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		p.Codigo, p.Descripcion, p.Categoria, p.Unidad, p.StockActual, p.StockReservado, p.StockMinimo,
		p.PrecioUnitario, p.CostoPromedio, p.Activo, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert producto: %w", err)
	}
	return nil
}

// GetByID obtiene un producto activo por ID.
func (r *ProductoRepo) GetByID(ctx context.Context, id int64) (*entity.Producto, error) {
	return r.queryOne(ctx, "get producto",
		`SELECT `+productoColumns+` FROM productos WHERE id = $1 AND activo`, id)
}

// GetByCodigo busca por código, incluidos los inactivos (el código sigue siendo único).
func (r *ProductoRepo) GetByCodigo(ctx context.Context, codigo string) (*entity.Producto, error) {
	return r.queryOne(ctx, "get producto by codigo",
		`SELECT `+productoColumns+` FROM productos WHERE codigo = $1`, codigo)
}

// GetForUpdate obtiene el producto y bloquea la fila (SELECT FOR UPDATE).
func (r *ProductoRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Producto, error) {
	return r.queryOne(ctx, "get producto for update",
		`SELECT `+productoColumns+` FROM productos WHERE id = $1 AND activo FOR UPDATE`, id)
}

// Update actualiza datos de catálogo.
func (r *ProductoRepo) Update(ctx context.Context, p *entity.Producto) error {
	query := `
		UPDATE productos SET descripcion = $2, categoria = $3, unidad = $4, stock_minimo = $5,
			precio_unitario = $6, updated_at = $7
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		p.ID, p.Descripcion, p.Categoria, p.Unidad, p.StockMinimo, p.PrecioUnitario, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update producto: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List productos activos ordenados por código; busqueda ya normalizada filtra por código o descripción.
func (r *ProductoRepo) List(ctx context.Context, busqueda string, limit, offset int) ([]*entity.Producto, error) {
	query := `SELECT ` + productoColumns + ` FROM productos WHERE activo`
	args := []any{}
	pos := 1
	if busqueda != "" {
		query += fmt.Sprintf(" AND (%s LIKE $%d OR %s LIKE $%d)", foldSQL("codigo"), pos, foldSQL("descripcion"), pos)
		args = append(args, "%"+busqueda+"%")
		pos++
	}
	query += fmt.Sprintf(" ORDER BY codigo LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)
	return r.queryMany(ctx, query, args...)
}

// ListActivos todos los productos activos (listado de reposición).
func (r *ProductoRepo) ListActivos(ctx context.Context) ([]*entity.Producto, error) {
	return r.queryMany(ctx, `SELECT `+productoColumns+` FROM productos WHERE activo ORDER BY codigo`)
}

func (r *ProductoRepo) queryMany(ctx context.Context, query string, args ...any) ([]*entity.Producto, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list productos: %w", err)
	}
	defer rows.Close()
	var list []*entity.Producto
	for rows.Next() {
		p, err := scanProducto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan producto: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Desactivar borrado lógico en una sola sentencia: no aplica mientras quede stock reservado.
func (r *ProductoRepo) Desactivar(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE productos SET activo = FALSE, updated_at = now()
		WHERE id = $1 AND activo AND stock_reservado = 0`, id)
	if err != nil {
		return fmt.Errorf("desactivar producto: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var reservado decimal.Decimal
	err = r.q.QueryRow(ctx, `SELECT stock_reservado FROM productos WHERE id = $1 AND activo`, id).Scan(&reservado)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("desactivar producto: %w", err)
	}
	return domain.ErrConflict
}

// IncrementarReservado suma a stock_reservado solo si no supera stock_actual. nil si no se cumple.
func (r *ProductoRepo) IncrementarReservado(ctx context.Context, id int64, cantidad decimal.Decimal) (*entity.Producto, error) {
	return r.queryOne(ctx, "incrementar reservado", `
		UPDATE productos SET stock_reservado = stock_reservado + $2, updated_at = now()
		WHERE id = $1 AND activo AND stock_reservado + $2 <= stock_actual
		RETURNING `+productoColumns, id, cantidad)
}

// DecrementarReservado resta de stock_reservado solo si alcanza. nil si no se cumple.
func (r *ProductoRepo) DecrementarReservado(ctx context.Context, id int64, cantidad decimal.Decimal) (*entity.Producto, error) {
	return r.queryOne(ctx, "decrementar reservado", `
		UPDATE productos SET stock_reservado = stock_reservado - $2, updated_at = now()
		WHERE id = $1 AND stock_reservado >= $2
		RETURNING `+productoColumns, id, cantidad)
}

// AjustarStock suma delta a stock_actual sin dejarlo por debajo de stock_reservado. nil si no se cumple.
func (r *ProductoRepo) AjustarStock(ctx context.Context, id int64, delta decimal.Decimal, costoPromedio *decimal.Decimal) (*entity.Producto, error) {
	return r.queryOne(ctx, "ajustar stock", `
		UPDATE productos SET stock_actual = stock_actual + $2,
			costo_promedio = COALESCE($3::numeric, costo_promedio), updated_at = now()
		WHERE id = $1 AND activo AND stock_actual + $2 >= stock_reservado
		RETURNING `+productoColumns, id, delta, costoPromedio)
}
