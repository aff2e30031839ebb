package pedido_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/pedido"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func linea(cant, precio, desc string) *entity.PedidoDetalle {
	return &entity.PedidoDetalle{
		Descripcion:    "item",
		Cantidad:       dec(cant),
		PrecioUnitario: dec(precio),
		Descuento:      dec(desc),
	}
}

// Ejemplo de referencia: 10 x 5.00 + (2 x 25.00 - 5.00) = 95.00; IVA 18.05; total 113.05.
func TestCalcularTotales_EjemploReferencia(t *testing.T) {
	detalles := []*entity.PedidoDetalle{
		linea("10", "5.00", "0"),
		linea("2", "25.00", "5.00"),
	}

	tot, err := pedido.CalcularTotales(detalles, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, dec("50.00").Equal(detalles[0].Subtotal), "subtotal línea 1")
	assert.True(t, dec("45.00").Equal(detalles[1].Subtotal), "subtotal línea 2")
	assert.True(t, dec("95.00").Equal(tot.Subtotal), "subtotal: %s", tot.Subtotal)
	assert.True(t, dec("18.05").Equal(tot.Impuestos), "impuestos: %s", tot.Impuestos)
	assert.True(t, dec("113.05").Equal(tot.Total), "total: %s", tot.Total)
}

func TestCalcularTotales_ConDescuentoGeneral(t *testing.T) {
	detalles := []*entity.PedidoDetalle{linea("3", "33.33", "0")}

	tot, err := pedido.CalcularTotales(detalles, dec("9.99"))
	require.NoError(t, err)

	// subtotal 99.99, IVA round(18.9981, 2) = 19.00, total = 99.99 - 9.99 + 19.00
	assert.True(t, dec("99.99").Equal(tot.Subtotal))
	assert.True(t, dec("19.00").Equal(tot.Impuestos))
	assert.True(t, dec("109.00").Equal(tot.Total))
	assert.True(t, tot.Total.Equal(tot.Subtotal.Sub(tot.Descuento).Add(tot.Impuestos)))
}

func TestCalcularTotales_InvarianteImpuestos(t *testing.T) {
	casos := [][]*entity.PedidoDetalle{
		{linea("1", "0.01", "0")},
		{linea("7", "13.37", "1.11"), linea("0.5", "1000", "0")},
		{linea("12.75", "3.3333", "0.25")},
	}
	for _, detalles := range casos {
		tot, err := pedido.CalcularTotales(detalles, decimal.Zero)
		require.NoError(t, err)
		assert.True(t, tot.Impuestos.Equal(tot.Subtotal.Mul(dec("0.19")).Round(2)))
		assert.True(t, tot.Total.Equal(tot.Subtotal.Sub(tot.Descuento).Add(tot.Impuestos)))
	}
}

// Cantidades fraccionarias: los montos quedan a 2 decimales antes de calcular el IVA,
// igual que en las columnas NUMERIC(14,2) donde se guardan.
func TestCalcularTotales_CantidadFraccionaria(t *testing.T) {
	detalles := []*entity.PedidoDetalle{linea("0.026", "1.00", "0")}

	tot, err := pedido.CalcularTotales(detalles, decimal.Zero)
	require.NoError(t, err)

	assert.True(t, dec("0.03").Equal(detalles[0].Subtotal), "subtotal línea: %s", detalles[0].Subtotal)
	assert.True(t, dec("0.03").Equal(tot.Subtotal), "subtotal: %s", tot.Subtotal)
	assert.True(t, dec("0.01").Equal(tot.Impuestos), "impuestos: %s", tot.Impuestos)
	assert.True(t, dec("0.04").Equal(tot.Total), "total: %s", tot.Total)
}

func TestCalcularTotales_NormalizaEscalas(t *testing.T) {
	detalles := []*entity.PedidoDetalle{linea("12.7504", "3.3333", "0.254")}

	tot, err := pedido.CalcularTotales(detalles, dec("1.005"))
	require.NoError(t, err)

	d := detalles[0]
	assert.True(t, dec("12.75").Equal(d.Cantidad), "cantidad: %s", d.Cantidad)
	assert.True(t, dec("3.33").Equal(d.PrecioUnitario), "precio: %s", d.PrecioUnitario)
	assert.True(t, dec("0.25").Equal(d.Descuento), "descuento: %s", d.Descuento)
	// 12.75 x 3.33 - 0.25 = 42.2075 -> 42.21
	assert.True(t, dec("42.21").Equal(d.Subtotal), "subtotal: %s", d.Subtotal)
	assert.True(t, dec("1.01").Equal(tot.Descuento), "descuento general: %s", tot.Descuento)
	for _, v := range []decimal.Decimal{tot.Subtotal, tot.Descuento, tot.Impuestos, tot.Total} {
		assert.True(t, v.Equal(v.Round(2)), "monto con más de 2 decimales: %s", v)
	}
}

func TestCalcularTotales_Validaciones(t *testing.T) {
	tests := []struct {
		name      string
		detalles  []*entity.PedidoDetalle
		descuento decimal.Decimal
	}{
		{"cantidad cero", []*entity.PedidoDetalle{linea("0", "1", "0")}, decimal.Zero},
		{"precio negativo", []*entity.PedidoDetalle{linea("1", "-1", "0")}, decimal.Zero},
		{"descuento de línea mayor al bruto", []*entity.PedidoDetalle{linea("1", "10", "11")}, decimal.Zero},
		{"descuento general negativo", []*entity.PedidoDetalle{linea("1", "10", "0")}, dec("-1")},
		{"descuento general mayor al subtotal", []*entity.PedidoDetalle{linea("1", "10", "0")}, dec("10.01")},
		{"línea sin producto ni descripción", []*entity.PedidoDetalle{{Cantidad: dec("1"), PrecioUnitario: dec("1")}}, decimal.Zero},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := pedido.CalcularTotales(tt.detalles, tt.descuento)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
		})
	}
}

func TestAplicarTotales_IgnoraImpuestosDeEntrada(t *testing.T) {
	p := &entity.Pedido{
		Impuestos: dec("999"),
		Total:     dec("999"),
		Detalles:  []*entity.PedidoDetalle{linea("1", "100", "0")},
	}
	require.NoError(t, pedido.AplicarTotales(p))
	assert.True(t, dec("19.00").Equal(p.Impuestos))
	assert.True(t, dec("119.00").Equal(p.Total))
}
