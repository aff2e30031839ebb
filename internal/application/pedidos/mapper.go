package pedidos

import (
	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// ToPedidoResponse convierte la entidad y su historial (opcional) al DTO de salida.
func ToPedidoResponse(p *entity.Pedido, historial []*entity.PedidoHistorial) *dto.PedidoResponse {
	if p == nil {
		return nil
	}
	out := &dto.PedidoResponse{
		ID:                     p.ID,
		Numero:                 p.Numero,
		ClienteID:              p.ClienteID,
		ObraID:                 p.ObraID,
		Tipo:                   p.Tipo,
		Prioridad:              p.Prioridad,
		Estado:                 p.Estado,
		Subtotal:               p.Subtotal,
		Descuento:              p.Descuento,
		Impuestos:              p.Impuestos,
		Total:                  p.Total,
		FechaPedido:            p.FechaPedido,
		FechaEntregaSolicitada: p.FechaEntregaSolicitada,
		FechaEntregaReal:       p.FechaEntregaReal,
		Observaciones:          p.Observaciones,
		DireccionEntrega:       p.DireccionEntrega,
		ContactoEntrega:        p.ContactoEntrega,
		TelefonoContacto:       p.TelefonoContacto,
		UsuarioCreador:         p.UsuarioCreador,
		UsuarioAprobador:       p.UsuarioAprobador,
		FechaAprobacion:        p.FechaAprobacion,
		Lineas:                 make([]dto.LineaPedidoResponse, 0, len(p.Detalles)),
	}
	for _, d := range p.Detalles {
		out.Lineas = append(out.Lineas, dto.LineaPedidoResponse{
			ID:                d.ID,
			ProductoID:        d.ProductoID,
			Descripcion:       d.Descripcion,
			Cantidad:          d.Cantidad,
			PrecioUnitario:    d.PrecioUnitario,
			Descuento:         d.Descuento,
			Subtotal:          d.Subtotal,
			CantidadEntregada: d.CantidadEntregada,
			CantidadPendiente: d.CantidadPendiente(),
		})
	}
	for _, h := range historial {
		out.Historial = append(out.Historial, dto.HistorialResponse{
			EstadoAnterior: h.EstadoAnterior,
			EstadoNuevo:    h.EstadoNuevo,
			Usuario:        h.Usuario,
			Observaciones:  h.Observaciones,
			Fecha:          h.Fecha,
		})
	}
	return out
}
