package pedido

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// TasaIVA es el IVA general colombiano aplicado al subtotal del pedido.
var TasaIVA = decimal.NewFromFloat(0.19)

// Totales agrupa los montos derivados de un pedido.
type Totales struct {
	Subtotal  decimal.Decimal
	Descuento decimal.Decimal
	Impuestos decimal.Decimal
	Total     decimal.Decimal
}

// Escalas de las columnas NUMERIC: montos con 2 decimales, cantidades con 3.
const (
	escalaMonto    = 2
	escalaCantidad = 3
)

// SubtotalLinea = round(Cantidad * PrecioUnitario - Descuento, 2).
func SubtotalLinea(cantidad, precioUnitario, descuento decimal.Decimal) decimal.Decimal {
	return cantidad.Mul(precioUnitario).Sub(descuento).Round(escalaMonto)
}

// ValidarLinea revisa cantidades y montos de una línea antes de calcular.
func ValidarLinea(d *entity.PedidoDetalle) error {
	if d == nil {
		return domain.ErrInvalidInput
	}
	if d.ProductoID == nil && d.Descripcion == "" {
		return domain.ErrInvalidInput
	}
	if !d.Cantidad.GreaterThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if d.PrecioUnitario.LessThan(decimal.Zero) || d.Descuento.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	if d.Descuento.GreaterThan(d.Cantidad.Mul(d.PrecioUnitario)) {
		return domain.ErrInvalidInput
	}
	return nil
}

// CalcularTotales lleva cada línea a la escala en que se persiste, fija su Subtotal y
// devuelve los totales del pedido: impuestos = round(subtotal * 0.19, 2);
// total = subtotal - descuento + impuestos. Lo que se devuelve es lo que queda guardado.
func CalcularTotales(detalles []*entity.PedidoDetalle, descuentoGeneral decimal.Decimal) (Totales, error) {
	if descuentoGeneral.LessThan(decimal.Zero) {
		return Totales{}, domain.ErrInvalidInput
	}
	descuentoGeneral = descuentoGeneral.Round(escalaMonto)
	subtotal := decimal.Zero
	for _, d := range detalles {
		if d != nil {
			d.Cantidad = d.Cantidad.Round(escalaCantidad)
			d.PrecioUnitario = d.PrecioUnitario.Round(escalaMonto)
			d.Descuento = d.Descuento.Round(escalaMonto)
		}
		if err := ValidarLinea(d); err != nil {
			return Totales{}, err
		}
		d.Subtotal = SubtotalLinea(d.Cantidad, d.PrecioUnitario, d.Descuento)
		subtotal = subtotal.Add(d.Subtotal)
	}
	if descuentoGeneral.GreaterThan(subtotal) {
		return Totales{}, domain.ErrInvalidInput
	}
	impuestos := subtotal.Mul(TasaIVA).Round(2)
	return Totales{
		Subtotal:  subtotal,
		Descuento: descuentoGeneral,
		Impuestos: impuestos,
		Total:     subtotal.Sub(descuentoGeneral).Add(impuestos),
	}, nil
}

// AplicarTotales recalcula y asigna los totales a la cabecera del pedido.
func AplicarTotales(p *entity.Pedido) error {
	t, err := CalcularTotales(p.Detalles, p.Descuento)
	if err != nil {
		return err
	}
	p.Subtotal = t.Subtotal
	p.Descuento = t.Descuento
	p.Impuestos = t.Impuestos
	p.Total = t.Total
	return nil
}
