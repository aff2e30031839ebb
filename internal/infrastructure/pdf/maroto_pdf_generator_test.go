package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "25.000,00", formatMoney(decimal.NewFromInt(25000)))
	assert.Equal(t, "1.234,50", formatMoney(decimal.RequireFromString("1234.5")))
	assert.Equal(t, "113,05", formatMoney(decimal.RequireFromString("113.05")))
	assert.Equal(t, "-1.000,00", formatMoney(decimal.NewFromInt(-1000)))
}

func TestGeneratePedidoPDF(t *testing.T) {
	prod := int64(3)
	p := &entity.Pedido{
		Numero:      "PED-2025-00001",
		ClienteID:   1,
		Tipo:        entity.TipoPedidoMaterial,
		Prioridad:   entity.PrioridadNormal,
		Estado:      entity.EstadoBorrador,
		Subtotal:    decimal.RequireFromString("95"),
		Impuestos:   decimal.RequireFromString("18.05"),
		Total:       decimal.RequireFromString("113.05"),
		FechaPedido: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Detalles: []*entity.PedidoDetalle{
			{ProductoID: &prod, Cantidad: decimal.NewFromInt(10), PrecioUnitario: decimal.NewFromInt(5), Subtotal: decimal.NewFromInt(50)},
			{Descripcion: "Instalación", Cantidad: decimal.NewFromInt(2), PrecioUnitario: decimal.NewFromInt(25), Descuento: decimal.NewFromInt(5), Subtotal: decimal.NewFromInt(45)},
		},
	}
	hist := []*entity.PedidoHistorial{{EstadoNuevo: entity.EstadoBorrador, Usuario: "admin", Fecha: p.FechaPedido}}

	out, err := NewMarotoPDFGenerator("Rexus").GeneratePedidoPDF(context.Background(), p, hist)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}
