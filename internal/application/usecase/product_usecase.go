package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/inventory"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
	"github.com/jhoicas/Rexus-api/pkg/textnorm"
)

// ProductUseCase casos de uso CRUD para productos. Costo y stock se manejan vía movimientos.
type ProductUseCase struct {
	repo repository.ProductoRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductoRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un nuevo producto con stock y costo en 0.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductoRequest) (*dto.ProductoResponse, error) {
	codigo := strings.TrimSpace(in.Codigo)
	if codigo == "" || strings.TrimSpace(in.Descripcion) == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.StockMinimo.LessThan(decimal.Zero) || in.PrecioUnitario.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	existing, err := uc.repo.GetByCodigo(ctx, codigo)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	now := time.Now()
	p := &entity.Producto{
		Codigo:         codigo,
		Descripcion:    strings.TrimSpace(in.Descripcion),
		Categoria:      in.Categoria,
		Unidad:         in.Unidad,
		StockActual:    decimal.Zero,
		StockReservado: decimal.Zero,
		StockMinimo:    in.StockMinimo,
		PrecioUnitario: in.PrecioUnitario,
		CostoPromedio:  decimal.Zero,
		Activo:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return ToProductoResponse(p), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(ctx context.Context, id int64) (*dto.ProductoResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return ToProductoResponse(p), nil
}

// Update actualiza datos de catálogo. No permite modificar costo ni stock.
func (uc *ProductUseCase) Update(ctx context.Context, id int64, in dto.UpdateProductoRequest) (*dto.ProductoResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	if in.Descripcion != nil {
		if strings.TrimSpace(*in.Descripcion) == "" {
			return nil, domain.ErrInvalidInput
		}
		p.Descripcion = strings.TrimSpace(*in.Descripcion)
	}
	if in.Categoria != nil {
		p.Categoria = *in.Categoria
	}
	if in.Unidad != nil {
		p.Unidad = *in.Unidad
	}
	if in.StockMinimo != nil {
		if in.StockMinimo.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		p.StockMinimo = *in.StockMinimo
	}
	if in.PrecioUnitario != nil {
		if in.PrecioUnitario.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
		p.PrecioUnitario = *in.PrecioUnitario
	}
	p.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return ToProductoResponse(p), nil
}

// List lista productos activos con búsqueda libre por código o descripción.
func (uc *ProductUseCase) List(ctx context.Context, busqueda string, page dto.PageRequest) (*dto.ProductoListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, textnorm.Fold(busqueda), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductoResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToProductoResponse(p))
	}
	return &dto.ProductoListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Delete desactiva el producto. No se permite con reservas activas; la condición
// la evalúa el repositorio en la misma escritura.
func (uc *ProductUseCase) Delete(ctx context.Context, id int64) error {
	return uc.repo.Desactivar(ctx, id)
}

// ToProductoResponse convierte la entidad al DTO de salida.
func ToProductoResponse(p *entity.Producto) *dto.ProductoResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductoResponse{
		ID:             p.ID,
		Codigo:         p.Codigo,
		Descripcion:    p.Descripcion,
		Categoria:      p.Categoria,
		Unidad:         p.Unidad,
		StockActual:    p.StockActual,
		StockReservado: p.StockReservado,
		StockMinimo:    p.StockMinimo,
		PrecioUnitario: p.PrecioUnitario,
		CostoPromedio:  p.CostoPromedio,
		EstadoStock:    inventory.EstadoStock(p.StockActual, p.StockMinimo),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
