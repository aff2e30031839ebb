// Package pdf genera la orden de pedido impresa.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Empresa              │  N° Pedido + Fecha + Estado │
//	│  ─────────────────────────────────────────────────────────  │
//	│  DATOS: Cliente / Obra / Tipo / Prioridad / Entrega          │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Descripción | P.Unit | Desc. | Subtotal       │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / Descuento / IVA / TOTAL                 │
//	│  HISTORIAL + QR con el número del pedido                     │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
)

// MarotoPDFGenerator implementa pedidos.PDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct {
	empresa string
}

// NewMarotoPDFGenerator construye el generador; empresa aparece en la cabecera.
func NewMarotoPDFGenerator(empresa string) *MarotoPDFGenerator {
	return &MarotoPDFGenerator{empresa: empresa}
}

// GeneratePedidoPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GeneratePedidoPDF(
	_ context.Context,
	p *entity.Pedido,
	historial []*entity.PedidoHistorial,
) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Orden de pedido "+p.Numero, true).
		WithAuthor(g.empresa, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(g.headerRow(p))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(datosRow(p))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(p.Detalles)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(p))

	m.AddRows(line.NewRow(3))
	m.AddRows(footerRows(p, historial)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: empresa (izq) y N° pedido + fecha + estado (der).
func (g *MarotoPDFGenerator) headerRow(p *entity.Pedido) core.Row {
	return row.New(20).Add(
		col.New(7).Add(
			text.New(g.empresa, props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Creado por: "+p.UsuarioCreador, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("ORDEN DE PEDIDO", props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New(p.Numero, props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Right, Top: 6,
			}),
			text.New("Fecha: "+p.FechaPedido.Format("02/01/2006"), props.Text{
				Size: 8, Align: align.Right, Top: 12, Color: colorGray,
			}),
			text.New("Estado: "+p.Estado, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Right, Top: 16,
			}),
		),
	)
}

// datosRow: cliente, obra y datos de entrega.
func datosRow(p *entity.Pedido) core.Row {
	obra := "-"
	if p.ObraID != nil {
		obra = fmt.Sprintf("%d", *p.ObraID)
	}
	entrega := "-"
	if p.FechaEntregaSolicitada != nil {
		entrega = p.FechaEntregaSolicitada.Format("02/01/2006")
	}
	return row.New(20).Add(
		col.New(12).Add(
			text.New("DATOS DEL PEDIDO", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
			text.New(fmt.Sprintf("Cliente: %d   |   Obra: %s   |   Tipo: %s   |   Prioridad: %s",
				p.ClienteID, obra, p.Tipo, p.Prioridad,
			), props.Text{Size: 8, Top: 6}),
			text.New(fmt.Sprintf("Entrega solicitada: %s   |   Dirección: %s",
				entrega, nonEmpty(p.DireccionEntrega, "-"),
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
			text.New(fmt.Sprintf("Contacto: %s   |   Tel: %s",
				nonEmpty(p.ContactoEntrega, "-"), nonEmpty(p.TelefonoContacto, "-"),
			), props.Text{Size: 8, Top: 15, Color: colorGray}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Descripción", 5, align.Left),
		h("Precio Unit.", 2, align.Right),
		h("Desc.", 1, align.Right),
		h("Subtotal", 3, align.Right),
	)
}

func tableDetailRows(detalles []*entity.PedidoDetalle) []core.Row {
	result := make([]core.Row, 0, len(detalles))
	for _, d := range detalles {
		desc := d.Descripcion
		if desc == "" && d.ProductoID != nil {
			desc = fmt.Sprintf("Producto %d", *d.ProductoID)
		}
		result = append(result, row.New(7).Add(
			col.New(1).Add(text.New(d.Cantidad.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(5).Add(text.New(desc, props.Text{Size: 8, Align: align.Left, Top: 1, Left: 1})),
			col.New(2).Add(text.New("$"+formatMoney(d.PrecioUnitario), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatMoney(d.Descuento), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(3).Add(text.New("$"+formatMoney(d.Subtotal), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(p *entity.Pedido) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(26).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 0),
			label("Descuento:", 5),
			label("IVA 19%:", 10),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 16}),
		),
		col.New(3).Add(
			value("$"+formatMoney(p.Subtotal), 0),
			value("$"+formatMoney(p.Descuento), 5),
			value("$"+formatMoney(p.Impuestos), 10),
			text.New("$"+formatMoney(p.Total), props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 16}),
		),
	)
}

// footerRows: observaciones, historial de estados y QR con el número del pedido.
func footerRows(p *entity.Pedido, historial []*entity.PedidoHistorial) []core.Row {
	var lines []string
	for _, h := range historial {
		desde := nonEmpty(h.EstadoAnterior, "-")
		lines = append(lines, fmt.Sprintf("%s  %s → %s  (%s)",
			h.Fecha.Format("02/01/2006 15:04"), desde, h.EstadoNuevo, h.Usuario))
	}
	return []core.Row{
		row.New(40).Add(
			col.New(9).Add(
				text.New("OBSERVACIONES", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
				text.New(nonEmpty(p.Observaciones, "-"), props.Text{Size: 8, Top: 6, Color: colorGray}),
				text.New("HISTORIAL", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 16}),
				text.New(strings.Join(lines, "\n"), props.Text{Size: 7, Top: 21, Color: colorGray}),
			),
			col.New(3).Add(code.NewQr(p.Numero, props.Rect{Percent: 90, Center: true})),
		),
	}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney redondea a 2 decimales e inserta puntos de miles en la parte entera.
// Ej: 25000 → "25.000,00", 1234.5 → "1.234,50"
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	entero, frac, _ := strings.Cut(s, ".")

	n := len(entero)
	buf := make([]byte, 0, n+n/3+3)
	for i, c := range []byte(entero) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	out := string(buf) + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
