package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/inventory"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// RegisterMovementUseCase registra movimientos de stock físico (ENTRADA, SALIDA, AJUSTE)
// con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner    ports.TxRunner
	movimientos repository.MovimientoRepository
	events      ports.EventPublisher
	log         zerolog.Logger
	now         func() time.Time
}

// NewRegisterMovementUseCase construye el caso de uso. events puede ser nil.
func NewRegisterMovementUseCase(
	txRunner ports.TxRunner,
	movimientos repository.MovimientoRepository,
	events ports.EventPublisher,
	log zerolog.Logger,
) *RegisterMovementUseCase {
	if events == nil {
		events = ports.NopPublisher{}
	}
	return &RegisterMovementUseCase{
		txRunner:    txRunner,
		movimientos: movimientos,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

// RegisterMovement valida la entrada, bloquea el producto y aplica el movimiento según su tipo.
// ENTRADA exige costo unitario y recalcula el costo promedio ponderado.
// SALIDA y AJUSTE negativo nunca dejan el stock actual por debajo del reservado.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, in dto.RegisterMovementRequest, usuario string) (*dto.MovimientoResponse, error) {
	if in.ProductoID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	switch in.Tipo {
	case entity.MovimientoEntrada:
		if !in.Cantidad.GreaterThan(decimal.Zero) || in.CostoUnitario == nil || in.CostoUnitario.LessThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovimientoSalida:
		if !in.Cantidad.GreaterThan(decimal.Zero) {
			return nil, domain.ErrInvalidInput
		}
	case entity.MovimientoAjuste:
		if in.Cantidad.IsZero() || (in.CostoUnitario != nil && in.CostoUnitario.LessThan(decimal.Zero)) {
			return nil, domain.ErrInvalidInput
		}
	default:
		return nil, domain.ErrInvalidInput
	}

	now := uc.now()
	var mov *entity.MovimientoInventario
	err := uc.txRunner.Run(ctx, func(ctx context.Context, repos repository.Repos) error {
		producto, err := repos.Productos.GetForUpdate(ctx, in.ProductoID)
		if err != nil {
			return err
		}
		if producto == nil {
			return domain.ErrNotFound
		}
		mov = &entity.MovimientoInventario{
			TransaccionID: uuid.New().String(),
			ProductoID:    producto.ID,
			Tipo:          in.Tipo,
			StockAnterior: producto.StockActual,
			Usuario:       usuario,
			Observaciones: in.Observaciones,
			Fecha:         now,
		}
		switch {
		case in.Tipo == entity.MovimientoEntrada,
			in.Tipo == entity.MovimientoAjuste && in.Cantidad.GreaterThan(decimal.Zero):
			err = uc.doEntrada(ctx, repos, producto, in.Cantidad, in.CostoUnitario, mov)
		case in.Tipo == entity.MovimientoSalida:
			err = uc.doSalida(ctx, repos, producto, in.Cantidad, mov)
		default:
			err = uc.doSalida(ctx, repos, producto, in.Cantidad.Neg(), mov)
		}
		if err != nil {
			return err
		}
		return repos.Movimientos.Create(ctx, mov)
	})
	if err != nil {
		return nil, err
	}

	out := ToMovimientoResponse(mov)
	evt := ports.Event{
		ID:         uuid.NewString(),
		Type:       ports.EventMovimientoRegistrado,
		Version:    1,
		OccurredAt: now.UTC(),
		Key:        fmt.Sprintf("producto:%d", mov.ProductoID),
		Payload:    out,
	}
	if err := uc.events.Publish(ctx, evt); err != nil {
		uc.log.Warn().Err(err).Int64("producto_id", mov.ProductoID).Msg("no se pudo publicar el movimiento")
	}
	return out, nil
}

// doEntrada suma stock y recalcula el costo promedio. costo nil (AJUSTE) conserva el costo actual.
func (uc *RegisterMovementUseCase) doEntrada(
	ctx context.Context,
	repos repository.Repos,
	producto *entity.Producto,
	cantidad decimal.Decimal,
	costo *decimal.Decimal,
	mov *entity.MovimientoInventario,
) error {
	costoUnitario := producto.CostoPromedio
	var nuevoCosto *decimal.Decimal
	if costo != nil {
		costoUnitario = *costo
		c := inventory.CostoPromedioPonderado(producto.StockActual, producto.CostoPromedio, cantidad, *costo)
		nuevoCosto = &c
	}
	actualizado, err := repos.Productos.AjustarStock(ctx, producto.ID, cantidad, nuevoCosto)
	if err != nil {
		return err
	}
	if actualizado == nil {
		return domain.ErrConflict
	}
	mov.Cantidad = cantidad
	mov.StockNuevo = actualizado.StockActual
	mov.CostoUnitario = costoUnitario
	return nil
}

// doSalida resta stock al costo promedio vigente; falla si el disponible no alcanza.
func (uc *RegisterMovementUseCase) doSalida(
	ctx context.Context,
	repos repository.Repos,
	producto *entity.Producto,
	cantidad decimal.Decimal,
	mov *entity.MovimientoInventario,
) error {
	actualizado, err := repos.Productos.AjustarStock(ctx, producto.ID, cantidad.Neg(), nil)
	if err != nil {
		return err
	}
	if actualizado == nil {
		return &domain.StockInsuficienteError{
			ProductoID: producto.ID,
			Disponible: producto.Disponible(),
			Solicitado: cantidad,
		}
	}
	mov.Cantidad = cantidad.Neg()
	mov.StockNuevo = actualizado.StockActual
	mov.CostoUnitario = producto.CostoPromedio
	return nil
}

// ListarMovimientos historial de movimientos de un producto, más recientes primero.
func (uc *RegisterMovementUseCase) ListarMovimientos(ctx context.Context, productoID int64, desde, hasta *time.Time, limit, offset int) ([]dto.MovimientoResponse, error) {
	if productoID <= 0 {
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.movimientos.ListByProducto(ctx, productoID, desde, hasta, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovimientoResponse, 0, len(list))
	for _, m := range list {
		out = append(out, *ToMovimientoResponse(m))
	}
	return out, nil
}

// ToMovimientoResponse convierte la entidad a su DTO de salida.
func ToMovimientoResponse(m *entity.MovimientoInventario) *dto.MovimientoResponse {
	if m == nil {
		return nil
	}
	return &dto.MovimientoResponse{
		ID:            m.ID,
		TransaccionID: m.TransaccionID,
		ProductoID:    m.ProductoID,
		Tipo:          m.Tipo,
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		CostoUnitario: m.CostoUnitario,
		ObraID:        m.ObraID,
		PedidoID:      m.PedidoID,
		ReservaID:     m.ReservaID,
		Usuario:       m.Usuario,
		Observaciones: m.Observaciones,
		Fecha:         m.Fecha,
	}
}
