package pedidos_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/pedidos"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

func pedidoListo(t *testing.T, f *fixture) *dto.PedidoResponse {
	t.Helper()
	p, err := f.uc.CrearPedido(context.Background(), "u", requestReferencia(), "")
	require.NoError(t, err)
	avanzar(t, f.uc, p.ID, entity.EstadoPendiente, entity.EstadoAprobado, entity.EstadoEnPreparacion, entity.EstadoListoEntrega)
	return p
}

func TestRegistrarEntrega_Parcial(t *testing.T) {
	f := newFixture(t, pedidos.Config{})
	ctx := context.Background()
	p := pedidoListo(t, f)
	tornillos := p.Lineas[0].ID

	out, err := f.uc.RegistrarEntrega(ctx, p.ID, dto.RegistrarEntregaRequest{
		Lineas:        []dto.EntregaLineaRequest{{DetalleID: tornillos, Cantidad: dec("4")}},
		Observaciones: "primer viaje",
	}, "bodega")
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, dec("4").Equal(out[0].Cantidad))

	_, err = f.uc.RegistrarEntrega(ctx, p.ID, dto.RegistrarEntregaRequest{
		Lineas: []dto.EntregaLineaRequest{{DetalleID: tornillos, Cantidad: dec("6")}},
	}, "bodega")
	require.NoError(t, err)

	got, err := f.uc.ObtenerPorID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(got.Lineas[0].CantidadEntregada))
	assert.True(t, got.Lineas[0].CantidadPendiente.IsZero())
	assert.True(t, dec("2").Equal(got.Lineas[1].CantidadPendiente))

	entregas, err := f.uc.ListarEntregas(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, entregas, 2)
	assert.Equal(t, "primer viaje", entregas[0].Observaciones)
	assert.Contains(t, f.pub.types(), ports.EventPedidoEntrega)
}

func TestRegistrarEntrega_ExcedeCantidadPedida(t *testing.T) {
	f := newFixture(t, pedidos.Config{})
	ctx := context.Background()
	p := pedidoListo(t, f)

	_, err := f.uc.RegistrarEntrega(ctx, p.ID, dto.RegistrarEntregaRequest{
		Lineas: []dto.EntregaLineaRequest{
			{DetalleID: p.Lineas[0].ID, Cantidad: dec("5")},
			{DetalleID: p.Lineas[1].ID, Cantidad: dec("3")},
		},
	}, "bodega")
	assert.True(t, errors.Is(err, domain.ErrEntregaExcedida))

	got, err := f.uc.ObtenerPorID(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, got.Lineas[0].CantidadEntregada.IsZero(), "la primera línea no queda aplicada")
	entregas, err := f.uc.ListarEntregas(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, entregas)
}

func TestRegistrarEntrega_EstadoNoPermitido(t *testing.T) {
	f := newFixture(t, pedidos.Config{})
	p, err := f.uc.CrearPedido(context.Background(), "u", requestReferencia(), "")
	require.NoError(t, err)

	_, err = f.uc.RegistrarEntrega(context.Background(), p.ID, dto.RegistrarEntregaRequest{
		Lineas: []dto.EntregaLineaRequest{{DetalleID: p.Lineas[0].ID, Cantidad: dec("1")}},
	}, "bodega")
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestRegistrarEntrega_Validaciones(t *testing.T) {
	f := newFixture(t, pedidos.Config{})
	p := pedidoListo(t, f)

	casos := map[string]dto.RegistrarEntregaRequest{
		"sin líneas":       {},
		"cantidad cero":    {Lineas: []dto.EntregaLineaRequest{{DetalleID: p.Lineas[0].ID, Cantidad: dec("0")}}},
		"línea de otro":    {Lineas: []dto.EntregaLineaRequest{{DetalleID: 99999, Cantidad: dec("1")}}},
		"detalle inválido": {Lineas: []dto.EntregaLineaRequest{{DetalleID: 0, Cantidad: dec("1")}}},
	}
	for name, in := range casos {
		t.Run(name, func(t *testing.T) {
			_, err := f.uc.RegistrarEntrega(context.Background(), p.ID, in, "bodega")
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PDF
// ──────────────────────────────────────────────────────────────────────────────

type fakeGenerator struct {
	numero    string
	historial int
}

func (g *fakeGenerator) GeneratePedidoPDF(_ context.Context, p *entity.Pedido, historial []*entity.PedidoHistorial) ([]byte, error) {
	g.numero = p.Numero
	g.historial = len(historial)
	return []byte("%PDF-fake"), nil
}

func TestDescargarPDF(t *testing.T) {
	f := newFixture(t, pedidos.Config{})
	p, err := f.uc.CrearPedido(context.Background(), "u", requestReferencia(), "")
	require.NoError(t, err)

	gen := &fakeGenerator{}
	uc := pedidos.NewPDFUseCase(f.store.Pedidos(), gen)

	data, filename, err := uc.DescargarPDF(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(data))
	assert.Equal(t, fmt.Sprintf("pedido_%s.pdf", p.Numero), filename)
	assert.Equal(t, p.Numero, gen.numero)
	assert.Equal(t, 1, gen.historial)

	_, _, err = uc.DescargarPDF(context.Background(), 424242)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
