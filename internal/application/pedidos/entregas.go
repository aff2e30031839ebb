package pedidos

import (
	"context"
	"fmt"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// RegistrarEntrega registra entregas parciales por línea. Solo en LISTO_ENTREGA o EN_TRANSITO;
// la cantidad entregada acumulada nunca supera la pedida.
func (uc *UseCase) RegistrarEntrega(ctx context.Context, id int64, in dto.RegistrarEntregaRequest, usuario string) ([]dto.EntregaResponse, error) {
	if len(in.Lineas) == 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, l := range in.Lineas {
		if l.DetalleID <= 0 || !l.Cantidad.IsPositive() {
			return nil, domain.ErrInvalidInput
		}
	}

	var creadas []*entity.PedidoEntrega
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		p, err := repos.Pedidos.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if p.Estado != entity.EstadoListoEntrega && p.Estado != entity.EstadoEnTransito {
			return fmt.Errorf("pedido %s en estado %s no admite entregas: %w", p.Numero, p.Estado, domain.ErrConflict)
		}
		detalles := make(map[int64]*entity.PedidoDetalle, len(p.Detalles))
		for _, d := range p.Detalles {
			detalles[d.ID] = d
		}

		now := uc.now()
		creadas = creadas[:0]
		for _, l := range in.Lineas {
			d, ok := detalles[l.DetalleID]
			if !ok {
				return domain.ErrInvalidInput
			}
			nueva := d.CantidadEntregada.Add(l.Cantidad)
			if nueva.GreaterThan(d.Cantidad) {
				return fmt.Errorf("línea %d: pendiente %s, entregado %s: %w",
					d.ID, d.CantidadPendiente(), l.Cantidad, domain.ErrEntregaExcedida)
			}
			d.CantidadEntregada = nueva
			if err := repos.Pedidos.UpdateCantidadEntregada(ctx, d.ID, nueva); err != nil {
				return err
			}
			e := &entity.PedidoEntrega{
				PedidoID:      p.ID,
				DetalleID:     d.ID,
				Cantidad:      l.Cantidad,
				Usuario:       usuario,
				Observaciones: in.Observaciones,
				Fecha:         now,
			}
			if err := repos.Pedidos.CreateEntrega(ctx, e); err != nil {
				return err
			}
			creadas = append(creadas, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := toEntregaResponses(creadas)
	uc.publish(ctx, ports.EventPedidoEntrega, id, out)
	return out, nil
}

// ListarEntregas entregas registradas de un pedido, en orden cronológico.
func (uc *UseCase) ListarEntregas(ctx context.Context, id int64) ([]dto.EntregaResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	list, err := uc.repo.ListEntregas(ctx, id)
	if err != nil {
		return nil, err
	}
	return toEntregaResponses(list), nil
}

func toEntregaResponses(list []*entity.PedidoEntrega) []dto.EntregaResponse {
	out := make([]dto.EntregaResponse, 0, len(list))
	for _, e := range list {
		out = append(out, dto.EntregaResponse{
			ID:            e.ID,
			DetalleID:     e.DetalleID,
			Cantidad:      e.Cantidad,
			Usuario:       e.Usuario,
			Observaciones: e.Observaciones,
			Fecha:         e.Fecha,
		})
	}
	return out
}
