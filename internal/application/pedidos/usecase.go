// Package pedidos orquesta el ciclo de vida de los pedidos: creación con numeración anual,
// transiciones de estado con historial, edición, entregas parciales y los efectos sobre
// las reservas de material de la obra.
package pedidos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/pedido"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
	"github.com/jhoicas/Rexus-api/pkg/textnorm"
)

// Config reglas configurables del caso de uso.
type Config struct {
	ReservarAlAprobar   bool
	MaxReintentosNumero int
}

// UseCase casos de uso de pedidos.
type UseCase struct {
	txRunner ports.TxRunner
	repo     repository.PedidoRepository
	idem     ports.IdempotencyStore
	events   ports.EventPublisher
	log      zerolog.Logger
	cfg      Config
	now      func() time.Time
}

// NewUseCase construye el caso de uso. idem y events pueden ser nil.
func NewUseCase(
	txRunner ports.TxRunner,
	repo repository.PedidoRepository,
	idem ports.IdempotencyStore,
	events ports.EventPublisher,
	log zerolog.Logger,
	cfg Config,
) *UseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	if cfg.MaxReintentosNumero <= 0 {
		cfg.MaxReintentosNumero = 3
	}
	return &UseCase{
		txRunner: txRunner,
		repo:     repo,
		idem:     idem,
		events:   events,
		log:      log,
		cfg:      cfg,
		now:      time.Now,
	}
}

// CrearPedido crea un pedido en BORRADOR con sus líneas y la primera entrada del historial,
// todo en una transacción. Impuestos y total se calculan aquí.
// Con idempotencyKey no vacía, repetir la petición devuelve el pedido ya creado.
func (uc *UseCase) CrearPedido(ctx context.Context, usuario string, in dto.CrearPedidoRequest, idempotencyKey string) (*dto.PedidoResponse, error) {
	p, err := uc.nuevoPedido(usuario, in)
	if err != nil {
		return nil, err
	}

	if idempotencyKey != "" && uc.idem != nil {
		existingID, reserved, err := uc.idem.Reserve(ctx, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if !reserved {
			return uc.ObtenerPorID(ctx, existingID)
		}
		defer func() {
			if p.ID == 0 {
				if err := uc.idem.Release(context.WithoutCancel(ctx), idempotencyKey); err != nil {
					uc.log.Warn().Err(err).Str("key", idempotencyKey).Msg("no se pudo liberar la clave de idempotencia")
				}
			}
		}()
	}

	if err := uc.insertarConNumero(ctx, p); err != nil {
		return nil, err
	}

	if idempotencyKey != "" && uc.idem != nil {
		if err := uc.idem.Complete(ctx, idempotencyKey, p.ID); err != nil {
			uc.log.Warn().Err(err).Str("key", idempotencyKey).Int64("pedido_id", p.ID).Msg("no se pudo guardar la clave de idempotencia")
		}
	}

	uc.log.Info().Int64("pedido_id", p.ID).Str("numero", p.Numero).Str("usuario", usuario).Msg("pedido creado")
	out := ToPedidoResponse(p, []*entity.PedidoHistorial{{
		PedidoID:      p.ID,
		EstadoNuevo:   p.Estado,
		Usuario:       usuario,
		Observaciones: "Pedido creado",
		Fecha:         p.FechaPedido,
	}})
	uc.publish(ctx, ports.EventPedidoCreado, p.ID, out)
	return out, nil
}

func (uc *UseCase) nuevoPedido(usuario string, in dto.CrearPedidoRequest) (*entity.Pedido, error) {
	if in.ClienteID <= 0 || len(in.Lineas) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if in.ObraID != nil && *in.ObraID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	tipo := in.Tipo
	if tipo == "" {
		tipo = entity.TipoPedidoMaterial
	}
	prioridad := in.Prioridad
	if prioridad == "" {
		prioridad = entity.PrioridadNormal
	}
	if !pedido.EsTipoValido(tipo) || !pedido.EsPrioridadValida(prioridad) {
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	p := &entity.Pedido{
		ClienteID:              in.ClienteID,
		ObraID:                 in.ObraID,
		Tipo:                   tipo,
		Prioridad:              prioridad,
		Estado:                 pedido.EstadoInicial,
		Descuento:              in.Descuento,
		FechaPedido:            now,
		FechaEntregaSolicitada: in.FechaEntregaSolicitada,
		Observaciones:          in.Observaciones,
		DireccionEntrega:       in.DireccionEntrega,
		ContactoEntrega:        in.ContactoEntrega,
		TelefonoContacto:       in.TelefonoContacto,
		UsuarioCreador:         usuario,
		Activo:                 true,
		CreatedAt:              now,
		UpdatedAt:              now,
		Detalles:               toDetalles(in.Lineas),
	}
	if err := pedido.AplicarTotales(p); err != nil {
		return nil, err
	}
	return p, nil
}

// insertarConNumero obtiene el siguiente número del año y persiste el pedido. Si el número
// choca con uno existente (UNIQUE) se reintenta con un número nuevo.
func (uc *UseCase) insertarConNumero(ctx context.Context, p *entity.Pedido) error {
	var err error
	for intento := 0; intento <= uc.cfg.MaxReintentosNumero; intento++ {
		p.Numero = uc.siguienteNumero(ctx, p.FechaPedido.Year())
		p.ID = 0
		for _, d := range p.Detalles {
			d.ID = 0
		}
		err = uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
			if err := repos.Pedidos.Create(ctx, p); err != nil {
				return err
			}
			for _, d := range p.Detalles {
				d.PedidoID = p.ID
				if err := repos.Pedidos.CreateDetalle(ctx, d); err != nil {
					return err
				}
			}
			return repos.Pedidos.AppendHistorial(ctx, &entity.PedidoHistorial{
				PedidoID:      p.ID,
				EstadoNuevo:   p.Estado,
				Usuario:       p.UsuarioCreador,
				Observaciones: "Pedido creado",
				Fecha:         p.FechaPedido,
			})
		})
		if err == nil {
			return nil
		}
		p.ID = 0
		if !errors.Is(err, domain.ErrDuplicate) {
			return err
		}
		uc.log.Warn().Str("numero", p.Numero).Int("intento", intento+1).Msg("número de pedido duplicado, reintentando")
	}
	return fmt.Errorf("crear pedido: %w", err)
}

// siguienteNumero PED-<año>-<secuencia>; si la secuencia no está disponible usa el número de respaldo.
func (uc *UseCase) siguienteNumero(ctx context.Context, anio int) string {
	seq, err := uc.repo.SiguienteSecuencia(ctx, anio)
	if err != nil {
		uc.log.Warn().Err(err).Int("anio", anio).Msg("secuencia de pedidos no disponible, usando número de respaldo")
		return pedido.NumeroFallback(anio)
	}
	return pedido.FormatNumero(anio, seq)
}

// ObtenerPorID devuelve el pedido con líneas e historial. domain.ErrNotFound si no existe o está inactivo.
func (uc *UseCase) ObtenerPorID(ctx context.Context, id int64) (*dto.PedidoResponse, error) {
	p, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	historial, err := uc.repo.ListHistorial(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToPedidoResponse(p, historial), nil
}

// Listar pedidos activos con filtros y paginación, más recientes primero.
func (uc *UseCase) Listar(ctx context.Context, f dto.FiltrosPedido) (*dto.PedidoListResponse, error) {
	if f.Estado != "" && !pedido.EsEstadoValido(f.Estado) {
		return nil, domain.ErrInvalidInput
	}
	if f.Desde != nil && f.Hasta != nil && f.Hasta.Before(*f.Desde) {
		return nil, domain.ErrInvalidInput
	}
	f.DefaultPage()
	list, total, err := uc.repo.List(ctx, repository.FiltrosPedido{
		Estado:    f.Estado,
		ObraID:    f.ObraID,
		ClienteID: f.ClienteID,
		Desde:     f.Desde,
		Hasta:     f.Hasta,
		Busqueda:  textnorm.Fold(f.Busqueda),
		Limit:     f.Limit,
		Offset:    f.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.PedidoResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToPedidoResponse(p, nil))
	}
	return &dto.PedidoListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset, Total: total},
	}, nil
}

// ActualizarPedido modifica la cabecera y opcionalmente reemplaza las líneas de un pedido en
// BORRADOR o PENDIENTE. Los totales se recalculan siempre.
func (uc *UseCase) ActualizarPedido(ctx context.Context, id int64, in dto.ActualizarPedidoRequest) (*dto.PedidoResponse, error) {
	if in.Prioridad != nil && !pedido.EsPrioridadValida(*in.Prioridad) {
		return nil, domain.ErrInvalidInput
	}
	if in.Lineas != nil && len(in.Lineas) == 0 {
		return nil, domain.ErrInvalidInput
	}
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		p, err := repos.Pedidos.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if !pedido.EsEditable(p.Estado) {
			return domain.ErrPedidoNoEditable
		}
		aplicarCambios(p, in)
		if in.Lineas != nil {
			p.Detalles = toDetalles(in.Lineas)
		}
		if err := pedido.AplicarTotales(p); err != nil {
			return err
		}
		p.UpdatedAt = uc.now()
		if in.Lineas != nil {
			if err := repos.Pedidos.ReplaceDetalles(ctx, p.ID, p.Detalles); err != nil {
				return err
			}
		}
		return repos.Pedidos.UpdateCabecera(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return uc.ObtenerPorID(ctx, id)
}

func aplicarCambios(p *entity.Pedido, in dto.ActualizarPedidoRequest) {
	if in.Prioridad != nil {
		p.Prioridad = *in.Prioridad
	}
	if in.Descuento != nil {
		p.Descuento = *in.Descuento
	}
	if in.FechaEntregaSolicitada != nil {
		p.FechaEntregaSolicitada = in.FechaEntregaSolicitada
	}
	if in.Observaciones != nil {
		p.Observaciones = *in.Observaciones
	}
	if in.DireccionEntrega != nil {
		p.DireccionEntrega = *in.DireccionEntrega
	}
	if in.ContactoEntrega != nil {
		p.ContactoEntrega = *in.ContactoEntrega
	}
	if in.TelefonoContacto != nil {
		p.TelefonoContacto = *in.TelefonoContacto
	}
}

// Desactivar hace el borrado lógico del pedido y libera sus reservas activas.
func (uc *UseCase) Desactivar(ctx context.Context, id int64, usuario string) error {
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		p, err := repos.Pedidos.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p == nil {
			return domain.ErrNotFound
		}
		if err := uc.liberarReservas(ctx, repos, p, usuario, fmt.Sprintf("Pedido %s desactivado", p.Numero)); err != nil {
			return err
		}
		return repos.Pedidos.Desactivar(ctx, id, uc.now())
	})
	if err != nil {
		return err
	}
	uc.log.Info().Int64("pedido_id", id).Str("usuario", usuario).Msg("pedido desactivado")
	return nil
}

func (uc *UseCase) publish(ctx context.Context, tipo string, pedidoID int64, payload any) {
	evt := ports.Event{
		ID:         uuid.NewString(),
		Type:       tipo,
		Version:    1,
		OccurredAt: uc.now().UTC(),
		Key:        fmt.Sprintf("pedido:%d", pedidoID),
		Payload:    payload,
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn().Err(err).Str("event", tipo).Int64("pedido_id", pedidoID).Msg("no se pudo publicar el evento")
	}
}

func toDetalles(lineas []dto.LineaPedidoRequest) []*entity.PedidoDetalle {
	out := make([]*entity.PedidoDetalle, 0, len(lineas))
	for _, l := range lineas {
		out = append(out, &entity.PedidoDetalle{
			ProductoID:        l.ProductoID,
			Descripcion:       strings.TrimSpace(l.Descripcion),
			Cantidad:          l.Cantidad,
			PrecioUnitario:    l.PrecioUnitario,
			Descuento:         l.Descuento,
			CantidadEntregada: decimal.Zero,
		})
	}
	return out
}
