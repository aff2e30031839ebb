package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/usecase"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/inventory"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
	"github.com/jhoicas/Rexus-api/internal/testutil/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestProductUseCase_CrearArrancaSinStock(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Productos())

	p, err := uc.Create(context.Background(), dto.CreateProductoRequest{
		Codigo: " TUB-PVC-1 ", Descripcion: "Tubería PVC 1\"", Unidad: "UN", StockMinimo: dec("20"), PrecioUnitario: dec("8500"),
	})
	require.NoError(t, err)
	assert.Equal(t, "TUB-PVC-1", p.Codigo)
	assert.True(t, p.StockActual.IsZero())
	assert.True(t, p.CostoPromedio.IsZero())
	assert.Equal(t, inventory.StockAgotado, p.EstadoStock)

	_, err = uc.Create(context.Background(), dto.CreateProductoRequest{Codigo: "TUB-PVC-1", Descripcion: "otra"})
	assert.True(t, errors.Is(err, domain.ErrDuplicate))
}

func TestProductUseCase_Validaciones(t *testing.T) {
	uc := usecase.NewProductUseCase(memstore.New().Productos())

	for name, in := range map[string]dto.CreateProductoRequest{
		"sin código":      {Descripcion: "x"},
		"sin descripción": {Codigo: "A"},
		"mínimo negativo": {Codigo: "A", Descripcion: "x", StockMinimo: dec("-1")},
		"precio negativo": {Codigo: "A", Descripcion: "x", PrecioUnitario: dec("-1")},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), in)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
		})
	}
}

func TestProductUseCase_ActualizarYBuscar(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Productos())
	ctx := context.Background()
	id := store.SeedProducto("VID-4MM", dec("10"), dec("5"), dec("1000"))
	store.SeedProducto("PER-AL", dec("10"), dec("5"), dec("1000"))

	desc := "Vidrio claro 4 mm, cortado"
	minimo := dec("12")
	p, err := uc.Update(ctx, id, dto.UpdateProductoRequest{Descripcion: &desc, StockMinimo: &minimo})
	require.NoError(t, err)
	assert.Equal(t, desc, p.Descripcion)
	assert.Equal(t, inventory.StockBajo, p.EstadoStock)

	list, err := uc.List(ctx, "VIDRÍO", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, id, list.Items[0].ID)

	_, err = uc.GetByID(ctx, 9999)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProductUseCase_EliminarConReservas(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Productos())
	ctx := context.Background()
	id := store.SeedProducto("VID-4MM", dec("10"), dec("5"), dec("1000"))

	_, err := store.Productos().IncrementarReservado(ctx, id, dec("3"))
	require.NoError(t, err)
	assert.True(t, errors.Is(uc.Delete(ctx, id), domain.ErrConflict))

	_, err = store.Productos().DecrementarReservado(ctx, id, dec("3"))
	require.NoError(t, err)
	require.NoError(t, uc.Delete(ctx, id))

	_, err = uc.GetByID(ctx, id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.True(t, errors.Is(uc.Delete(ctx, id), domain.ErrNotFound), "ya inactivo")
}

// reservaAntesDeDesactivar confirma una reserva justo antes de la desactivación,
// como haría otra transacción concurrente.
type reservaAntesDeDesactivar struct {
	repository.ProductoRepository
	cantidad decimal.Decimal
}

func (r reservaAntesDeDesactivar) Desactivar(ctx context.Context, id int64) error {
	if _, err := r.ProductoRepository.IncrementarReservado(ctx, id, r.cantidad); err != nil {
		return err
	}
	return r.ProductoRepository.Desactivar(ctx, id)
}

func TestProductUseCase_EliminarConReservaConcurrente(t *testing.T) {
	store := memstore.New()
	ctx := context.Background()
	id := store.SeedProducto("VID-6MM", dec("10"), dec("5"), dec("1000"))
	uc := usecase.NewProductUseCase(reservaAntesDeDesactivar{ProductoRepository: store.Productos(), cantidad: dec("2")})

	assert.True(t, errors.Is(uc.Delete(ctx, id), domain.ErrConflict))

	p, err := store.Productos().GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, p, "el producto sigue activo")
	assert.True(t, dec("2").Equal(p.StockReservado))
}
