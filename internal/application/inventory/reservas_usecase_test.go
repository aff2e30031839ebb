package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/testutil/memstore"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type recordingPublisher struct {
	mu     sync.Mutex
	events []ports.Event
}

func (p *recordingPublisher) Publish(_ context.Context, evt ports.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func newReservas(t *testing.T) (*inventory.ReservasUseCase, *memstore.Store, *recordingPublisher) {
	t.Helper()
	store := memstore.New()
	pub := &recordingPublisher{}
	uc := inventory.NewReservasUseCase(store, store.Productos(), store.Reservas(), pub, zerolog.Nop())
	return uc, store, pub
}

// ──────────────────────────────────────────────────────────────────────────────
// ReservarMaterial
// ──────────────────────────────────────────────────────────────────────────────

func TestReservarMaterial_Exito(t *testing.T) {
	uc, store, pub := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("100"), dec("10"), dec("2.5"))

	res, err := uc.ReservarMaterial(context.Background(), dto.ReservarMaterialRequest{
		ProductoID: prodID, ObraID: 7, Cantidad: dec("30"), Observaciones: "piso 2",
	}, "bodega1")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaActiva, res.Estado)
	assert.True(t, dec("30").Equal(res.Cantidad))

	disp, err := uc.ObtenerDisponibilidad(context.Background(), &prodID)
	require.NoError(t, err)
	require.Len(t, disp, 1)
	assert.True(t, dec("70").Equal(disp[0].Disponible))
	assert.True(t, dec("30").Equal(disp[0].StockReservado))

	movs := store.MovimientosDe(prodID)
	require.Len(t, movs, 1)
	assert.Equal(t, entity.MovimientoReserva, movs[0].Tipo)
	assert.True(t, dec("100").Equal(movs[0].StockAnterior))
	assert.True(t, dec("70").Equal(movs[0].StockNuevo))
	assert.Equal(t, []string{ports.EventReservaCreada}, pub.types())
}

func TestReservarMaterial_StockInsuficiente(t *testing.T) {
	uc, store, _ := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("100"), dec("10"), dec("1"))

	_, err := uc.ReservarMaterial(context.Background(), dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 1, Cantidad: dec("80")}, "u")
	require.NoError(t, err)

	_, err = uc.ReservarMaterial(context.Background(), dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 2, Cantidad: dec("30")}, "u")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))

	var stockErr *domain.StockInsuficienteError
	require.True(t, errors.As(err, &stockErr))
	assert.True(t, dec("20").Equal(stockErr.Disponible))
	assert.True(t, dec("30").Equal(stockErr.Solicitado))
	assert.Contains(t, err.Error(), "disponible 20, solicitado 30")

	// sin efectos: sigue una sola reserva y un solo movimiento
	reservas, err := uc.ListarPorProducto(context.Background(), prodID, false)
	require.NoError(t, err)
	assert.Len(t, reservas, 1)
	assert.Len(t, store.MovimientosDe(prodID), 1)
}

func TestReservarMaterial_Validaciones(t *testing.T) {
	uc, store, _ := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("10"), dec("1"), dec("1"))

	tests := []struct {
		name string
		in   dto.ReservarMaterialRequest
		want error
	}{
		{"cantidad cero", dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 1, Cantidad: decimal.Zero}, domain.ErrInvalidInput},
		{"cantidad negativa", dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 1, Cantidad: dec("-1")}, domain.ErrInvalidInput},
		{"sin obra", dto.ReservarMaterialRequest{ProductoID: prodID, Cantidad: dec("1")}, domain.ErrInvalidInput},
		{"producto inexistente", dto.ReservarMaterialRequest{ProductoID: 999, ObraID: 1, Cantidad: dec("1")}, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ReservarMaterial(context.Background(), tt.in, "u")
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

// Reservas concurrentes nunca dejan el disponible negativo.
func TestReservarMaterial_Concurrente(t *testing.T) {
	uc, store, _ := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("100"), dec("0"), dec("1"))

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.ReservarMaterial(context.Background(), dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 1, Cantidad: dec("15")}, "u")
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, ok)
	disp, err := uc.ObtenerDisponibilidad(context.Background(), &prodID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(disp[0].Disponible))
	assert.False(t, disp[0].Disponible.IsNegative())
}

// ──────────────────────────────────────────────────────────────────────────────
// LiberarReserva
// ──────────────────────────────────────────────────────────────────────────────

func TestLiberarReserva_DevuelveDisponible(t *testing.T) {
	uc, store, pub := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("50"), dec("5"), dec("1"))
	ctx := context.Background()

	res, err := uc.ReservarMaterial(ctx, dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 3, Cantidad: dec("20")}, "u")
	require.NoError(t, err)

	lib, err := uc.LiberarReserva(ctx, res.ID, "supervisor1", "obra suspendida")
	require.NoError(t, err)
	assert.Equal(t, entity.ReservaLiberada, lib.Estado)
	assert.Equal(t, "supervisor1", lib.UsuarioLiberacion)
	assert.Equal(t, "obra suspendida", lib.MotivoLiberacion)
	assert.NotNil(t, lib.FechaLiberacion)

	disp, err := uc.ObtenerDisponibilidad(ctx, &prodID)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(disp[0].Disponible))

	movs := store.MovimientosDe(prodID)
	require.Len(t, movs, 2)
	assert.Equal(t, entity.MovimientoLiberacionReserva, movs[1].Tipo)
	assert.True(t, dec("-20").Equal(movs[1].Cantidad))
	assert.Equal(t, []string{ports.EventReservaCreada, ports.EventReservaLiberada}, pub.types())
}

func TestLiberarReserva_DobleLiberacionFalla(t *testing.T) {
	uc, store, _ := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("50"), dec("5"), dec("1"))
	ctx := context.Background()

	res, err := uc.ReservarMaterial(ctx, dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 3, Cantidad: dec("20")}, "u")
	require.NoError(t, err)
	_, err = uc.LiberarReserva(ctx, res.ID, "u", "m")
	require.NoError(t, err)

	_, err = uc.LiberarReserva(ctx, res.ID, "u", "m")
	assert.True(t, errors.Is(err, domain.ErrReservaLiberada))

	disp, err := uc.ObtenerDisponibilidad(ctx, &prodID)
	require.NoError(t, err)
	assert.True(t, dec("0").Equal(disp[0].StockReservado), "el reservado no se descuenta dos veces")
}

func TestLiberarReserva_Inexistente(t *testing.T) {
	uc, _, _ := newReservas(t)
	_, err := uc.LiberarReserva(context.Background(), 404, "u", "m")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

// ──────────────────────────────────────────────────────────────────────────────
// Disponibilidad y listados
// ──────────────────────────────────────────────────────────────────────────────

func TestObtenerDisponibilidad_Estados(t *testing.T) {
	uc, store, _ := newReservas(t)
	normal := store.SeedProducto("A", dec("100"), dec("10"), dec("1"))
	bajo := store.SeedProducto("B", dec("8"), dec("10"), dec("1"))
	agotado := store.SeedProducto("C", dec("0"), dec("10"), dec("1"))

	todos, err := uc.ObtenerDisponibilidad(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, todos, 3)

	estados := map[int64]string{}
	for _, d := range todos {
		estados[d.ProductoID] = d.Estado
	}
	assert.Equal(t, "NORMAL", estados[normal])
	assert.Equal(t, "BAJO", estados[bajo])
	assert.Equal(t, "AGOTADO", estados[agotado])
}

func TestObtenerDisponibilidad_ProductoInexistente(t *testing.T) {
	uc, _, _ := newReservas(t)
	id := int64(99)
	_, err := uc.ObtenerDisponibilidad(context.Background(), &id)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestListarPorObra_SoloActivas(t *testing.T) {
	uc, store, _ := newReservas(t)
	prodID := store.SeedProducto("P-1", dec("100"), dec("0"), dec("1"))
	ctx := context.Background()

	r1, err := uc.ReservarMaterial(ctx, dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 5, Cantidad: dec("1")}, "u")
	require.NoError(t, err)
	_, err = uc.ReservarMaterial(ctx, dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 5, Cantidad: dec("2")}, "u")
	require.NoError(t, err)
	_, err = uc.ReservarMaterial(ctx, dto.ReservarMaterialRequest{ProductoID: prodID, ObraID: 6, Cantidad: dec("3")}, "u")
	require.NoError(t, err)
	_, err = uc.LiberarReserva(ctx, r1.ID, "u", "m")
	require.NoError(t, err)

	todas, err := uc.ListarPorObra(ctx, 5, false)
	require.NoError(t, err)
	assert.Len(t, todas, 2)

	activas, err := uc.ListarPorObra(ctx, 5, true)
	require.NoError(t, err)
	require.Len(t, activas, 1)
	assert.True(t, dec("2").Equal(activas[0].Cantidad))
}
