package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/inventory"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// ReservasUseCase gestiona reservas de material por obra y la consulta de disponibilidad.
type ReservasUseCase struct {
	txRunner  ports.TxRunner
	productos repository.ProductoRepository
	reservas  repository.ReservaRepository
	events    ports.EventPublisher
	log       zerolog.Logger
	now       func() time.Time
}

// NewReservasUseCase construye el caso de uso. events puede ser nil.
func NewReservasUseCase(
	txRunner ports.TxRunner,
	productos repository.ProductoRepository,
	reservas repository.ReservaRepository,
	events ports.EventPublisher,
	log zerolog.Logger,
) *ReservasUseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &ReservasUseCase{
		txRunner:  txRunner,
		productos: productos,
		reservas:  reservas,
		events:    events,
		log:       log,
		now:       time.Now,
	}
}

// ReservarMaterial crea una reserva ACTIVA y sube el reservado del producto en una sola transacción.
// Si no hay disponible suficiente devuelve *domain.StockInsuficienteError.
func (uc *ReservasUseCase) ReservarMaterial(ctx context.Context, in dto.ReservarMaterialRequest, usuario string) (*dto.ReservaResponse, error) {
	var reserva *entity.Reserva
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		r, err := ReservarEnTx(ctx, repos, ReservaInput{
			ProductoID:    in.ProductoID,
			ObraID:        in.ObraID,
			Cantidad:      in.Cantidad,
			Usuario:       usuario,
			Observaciones: in.Observaciones,
		}, uc.now())
		reserva = r
		return err
	})
	if err != nil {
		return nil, err
	}
	out := ToReservaResponse(reserva)
	uc.publish(ctx, ports.EventReservaCreada, reserva.ID, out)
	return out, nil
}

// LiberarReserva marca la reserva como LIBERADA y devuelve su cantidad al disponible.
func (uc *ReservasUseCase) LiberarReserva(ctx context.Context, reservaID int64, usuario, motivo string) (*dto.ReservaResponse, error) {
	if reservaID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	var reserva *entity.Reserva
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		r, err := LiberarEnTx(ctx, repos, reservaID, usuario, motivo, uc.now())
		reserva = r
		return err
	})
	if err != nil {
		return nil, err
	}
	out := ToReservaResponse(reserva)
	uc.publish(ctx, ports.EventReservaLiberada, reserva.ID, out)
	return out, nil
}

// ObtenerDisponibilidad devuelve la disponibilidad de un producto, o de todos los activos si productoID es nil.
func (uc *ReservasUseCase) ObtenerDisponibilidad(ctx context.Context, productoID *int64) ([]dto.DisponibilidadResponse, error) {
	if productoID != nil {
		p, err := uc.productos.GetByID(ctx, *productoID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.ErrNotFound
		}
		return []dto.DisponibilidadResponse{toDisponibilidad(p)}, nil
	}
	list, err := uc.productos.ListActivos(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DisponibilidadResponse, 0, len(list))
	for _, p := range list {
		out = append(out, toDisponibilidad(p))
	}
	return out, nil
}

// ListarPorObra reservas de una obra, más recientes primero.
func (uc *ReservasUseCase) ListarPorObra(ctx context.Context, obraID int64, soloActivas bool) ([]dto.ReservaResponse, error) {
	list, err := uc.reservas.ListByObra(ctx, obraID, soloActivas)
	if err != nil {
		return nil, err
	}
	return toReservaResponses(list), nil
}

// ListarPorProducto reservas de un producto.
func (uc *ReservasUseCase) ListarPorProducto(ctx context.Context, productoID int64, soloActivas bool) ([]dto.ReservaResponse, error) {
	list, err := uc.reservas.ListByProducto(ctx, productoID, soloActivas)
	if err != nil {
		return nil, err
	}
	return toReservaResponses(list), nil
}

func (uc *ReservasUseCase) publish(ctx context.Context, tipo string, reservaID int64, payload any) {
	evt := ports.Event{
		ID:         uuid.NewString(),
		Type:       tipo,
		Version:    1,
		OccurredAt: uc.now().UTC(),
		Key:        fmt.Sprintf("reserva:%d", reservaID),
		Payload:    payload,
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn().Err(err).Str("event", tipo).Int64("reserva_id", reservaID).Msg("no se pudo publicar el evento")
	}
}

func toDisponibilidad(p *entity.Producto) dto.DisponibilidadResponse {
	disp := p.Disponible()
	return dto.DisponibilidadResponse{
		ProductoID:     p.ID,
		Codigo:         p.Codigo,
		Descripcion:    p.Descripcion,
		StockActual:    p.StockActual,
		StockReservado: p.StockReservado,
		Disponible:     disp,
		StockMinimo:    p.StockMinimo,
		Estado:         inventory.EstadoDisponibilidad(disp, p.StockMinimo),
	}
}

// ToReservaResponse convierte la entidad a su DTO de salida.
func ToReservaResponse(r *entity.Reserva) *dto.ReservaResponse {
	if r == nil {
		return nil
	}
	return &dto.ReservaResponse{
		ID:                r.ID,
		ProductoID:        r.ProductoID,
		ObraID:            r.ObraID,
		PedidoID:          r.PedidoID,
		Cantidad:          r.Cantidad,
		Estado:            r.Estado,
		Usuario:           r.Usuario,
		Observaciones:     r.Observaciones,
		FechaReserva:      r.FechaReserva,
		UsuarioLiberacion: r.UsuarioLiberacion,
		MotivoLiberacion:  r.MotivoLiberacion,
		FechaLiberacion:   r.FechaLiberacion,
	}
}

func toReservaResponses(list []*entity.Reserva) []dto.ReservaResponse {
	out := make([]dto.ReservaResponse, 0, len(list))
	for _, r := range list {
		out = append(out, *ToReservaResponse(r))
	}
	return out
}
