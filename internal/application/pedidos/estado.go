package pedidos

import (
	"context"
	"fmt"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/pedido"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// ActualizarEstado mueve el pedido a nuevoEstado si la tabla de transiciones lo permite.
// La fila del pedido queda bloqueada durante la transacción, así que dos transiciones
// concurrentes se serializan y la segunda se valida contra el estado ya confirmado.
// Una transición no permitida devuelve *domain.TransicionInvalidaError sin modificar nada.
func (uc *UseCase) ActualizarEstado(ctx context.Context, id int64, nuevoEstado, usuario, observaciones string) (*dto.PedidoResponse, error) {
	if !pedido.EsEstadoValido(nuevoEstado) {
		return nil, domain.ErrInvalidInput
	}
	var anterior string
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		p, err := repos.Pedidos.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if !pedido.PuedeTransicionar(p.Estado, nuevoEstado) {
			return &domain.TransicionInvalidaError{Desde: p.Estado, Hacia: nuevoEstado}
		}
		anterior = p.Estado

		now := uc.now()
		if err := uc.efectosDeTransicion(ctx, repos, p, nuevoEstado, usuario); err != nil {
			return err
		}
		p.Estado = nuevoEstado
		p.UpdatedAt = now
		switch nuevoEstado {
		case entity.EstadoAprobado:
			p.UsuarioAprobador = usuario
			p.FechaAprobacion = &now
		case entity.EstadoEntregado:
			p.FechaEntregaReal = &now
			for _, d := range p.Detalles {
				if d.CantidadEntregada.Equal(d.Cantidad) {
					continue
				}
				d.CantidadEntregada = d.Cantidad
				if err := repos.Pedidos.UpdateCantidadEntregada(ctx, d.ID, d.Cantidad); err != nil {
					return err
				}
			}
		}
		if err := repos.Pedidos.UpdateEstado(ctx, p); err != nil {
			return err
		}
		return repos.Pedidos.AppendHistorial(ctx, &entity.PedidoHistorial{
			PedidoID:       p.ID,
			EstadoAnterior: anterior,
			EstadoNuevo:    nuevoEstado,
			Usuario:        usuario,
			Observaciones:  observaciones,
			Fecha:          now,
		})
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().Int64("pedido_id", id).Str("desde", anterior).Str("hacia", nuevoEstado).Str("usuario", usuario).Msg("estado de pedido actualizado")
	out, err := uc.ObtenerPorID(ctx, id)
	if err != nil {
		return nil, err
	}
	uc.publish(ctx, ports.EventPedidoEstado, id, map[string]any{
		"pedido_id":       id,
		"numero":          out.Numero,
		"estado_anterior": anterior,
		"estado_nuevo":    nuevoEstado,
		"usuario":         usuario,
	})
	return out, nil
}

// efectosDeTransicion aplica los efectos sobre reservas de la obra del pedido:
// APROBADO reserva las líneas de producto, CANCELADO libera y ENTREGADO consume.
func (uc *UseCase) efectosDeTransicion(ctx context.Context, repos repository.Repos, p *entity.Pedido, nuevoEstado, usuario string) error {
	if !uc.cfg.ReservarAlAprobar || p.ObraID == nil {
		return nil
	}
	switch nuevoEstado {
	case entity.EstadoAprobado:
		for _, d := range p.Detalles {
			if d.ProductoID == nil {
				continue
			}
			cantidad := d.CantidadPendiente()
			if !cantidad.IsPositive() {
				continue
			}
			pedidoID := p.ID
			_, err := inventory.ReservarEnTx(ctx, repos, inventory.ReservaInput{
				ProductoID:    *d.ProductoID,
				ObraID:        *p.ObraID,
				PedidoID:      &pedidoID,
				Cantidad:      cantidad,
				Usuario:       usuario,
				Observaciones: fmt.Sprintf("Reserva por aprobación del pedido %s", p.Numero),
			}, uc.now())
			if err != nil {
				return err
			}
		}
	case entity.EstadoCancelado:
		return uc.liberarReservas(ctx, repos, p, usuario, fmt.Sprintf("Pedido %s cancelado", p.Numero))
	case entity.EstadoEntregado:
		reservas, err := repos.Reservas.ListActivasByPedido(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, r := range reservas {
			if _, err := inventory.ConsumirEnTx(ctx, repos, r.ID, usuario, fmt.Sprintf("Entrega del pedido %s", p.Numero), uc.now()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (uc *UseCase) liberarReservas(ctx context.Context, repos repository.Repos, p *entity.Pedido, usuario, motivo string) error {
	reservas, err := repos.Reservas.ListActivasByPedido(ctx, p.ID)
	if err != nil {
		return err
	}
	for _, r := range reservas {
		if _, err := inventory.LiberarEnTx(ctx, repos, r.ID, usuario, motivo, uc.now()); err != nil {
			return err
		}
	}
	return nil
}

// Transiciones devuelve los estados a los que puede pasar el pedido desde su estado actual.
func (uc *UseCase) Transiciones(ctx context.Context, id int64) (*dto.TransicionesResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return &dto.TransicionesResponse{
		Estado:     p.Estado,
		Siguientes: pedido.TransicionesPermitidas(p.Estado),
		Terminal:   pedido.EsTerminal(p.Estado),
	}, nil
}
