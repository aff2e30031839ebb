package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// ReservaInput datos para reservar material dentro de una transacción.
type ReservaInput struct {
	ProductoID    int64
	ObraID        int64
	PedidoID      *int64
	Cantidad      decimal.Decimal
	Usuario       string
	Observaciones string
}

// ReservarEnTx compromete stock para una obra usando los repositorios de la transacción del caller.
// El contador de reservado se incrementa con una actualización condicional, así que dos reservas
// concurrentes nunca pueden dejar disponible < 0.
func ReservarEnTx(ctx context.Context, repos repository.Repos, in ReservaInput, now time.Time) (*entity.Reserva, error) {
	if in.ProductoID <= 0 || in.ObraID <= 0 || !in.Cantidad.GreaterThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	producto, err := repos.Productos.GetByID(ctx, in.ProductoID)
	if err != nil {
		return nil, err
	}
	if producto == nil {
		return nil, domain.ErrNotFound
	}

	actualizado, err := repos.Productos.IncrementarReservado(ctx, in.ProductoID, in.Cantidad)
	if err != nil {
		return nil, err
	}
	if actualizado == nil {
		// Releer para informar el disponible vigente, no el de la primera lectura.
		vigente, err := repos.Productos.GetByID(ctx, in.ProductoID)
		if err != nil {
			return nil, err
		}
		if vigente != nil {
			producto = vigente
		}
		return nil, &domain.StockInsuficienteError{
			ProductoID: in.ProductoID,
			Disponible: producto.Disponible(),
			Solicitado: in.Cantidad,
		}
	}

	reserva := &entity.Reserva{
		ProductoID:    in.ProductoID,
		ObraID:        in.ObraID,
		PedidoID:      in.PedidoID,
		Cantidad:      in.Cantidad,
		Estado:        entity.ReservaActiva,
		Usuario:       in.Usuario,
		Observaciones: in.Observaciones,
		FechaReserva:  now,
	}
	if err := repos.Reservas.Create(ctx, reserva); err != nil {
		return nil, err
	}

	obraID := in.ObraID
	mov := &entity.MovimientoInventario{
		TransaccionID: uuid.New().String(),
		ProductoID:    in.ProductoID,
		Tipo:          entity.MovimientoReserva,
		Cantidad:      in.Cantidad,
		StockAnterior: actualizado.Disponible().Add(in.Cantidad),
		StockNuevo:    actualizado.Disponible(),
		CostoUnitario: actualizado.CostoPromedio,
		ObraID:        &obraID,
		PedidoID:      in.PedidoID,
		ReservaID:     &reserva.ID,
		Usuario:       in.Usuario,
		Observaciones: in.Observaciones,
		Fecha:         now,
	}
	if err := repos.Movimientos.Create(ctx, mov); err != nil {
		return nil, err
	}
	return reserva, nil
}

// LiberarEnTx devuelve al disponible una reserva ACTIVA. La fila de la reserva queda bloqueada
// hasta el fin de la transacción; una segunda liberación falla con domain.ErrReservaLiberada.
func LiberarEnTx(ctx context.Context, repos repository.Repos, reservaID int64, usuario, motivo string, now time.Time) (*entity.Reserva, error) {
	reserva, err := repos.Reservas.GetForUpdate(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if reserva == nil {
		return nil, domain.ErrNotFound
	}
	if reserva.Estado != entity.ReservaActiva {
		return nil, domain.ErrReservaLiberada
	}

	actualizado, err := repos.Productos.DecrementarReservado(ctx, reserva.ProductoID, reserva.Cantidad)
	if err != nil {
		return nil, err
	}
	if actualizado == nil {
		return nil, fmt.Errorf("reserva %d: %w", reserva.ID, domain.ErrStockBajoReservado)
	}
	if err := repos.Reservas.MarcarLiberada(ctx, reserva.ID, usuario, motivo, now); err != nil {
		return nil, err
	}
	marcarLiberada(reserva, usuario, motivo, now)

	obraID := reserva.ObraID
	mov := &entity.MovimientoInventario{
		TransaccionID: uuid.New().String(),
		ProductoID:    reserva.ProductoID,
		Tipo:          entity.MovimientoLiberacionReserva,
		Cantidad:      reserva.Cantidad.Neg(),
		StockAnterior: actualizado.Disponible().Sub(reserva.Cantidad),
		StockNuevo:    actualizado.Disponible(),
		CostoUnitario: actualizado.CostoPromedio,
		ObraID:        &obraID,
		PedidoID:      reserva.PedidoID,
		ReservaID:     &reserva.ID,
		Usuario:       usuario,
		Observaciones: motivo,
		Fecha:         now,
	}
	if err := repos.Movimientos.Create(ctx, mov); err != nil {
		return nil, err
	}
	return reserva, nil
}

// ConsumirEnTx convierte una reserva ACTIVA en una salida física: baja el reservado y el stock
// actual en la misma cantidad y registra una SALIDA al costo promedio vigente.
func ConsumirEnTx(ctx context.Context, repos repository.Repos, reservaID int64, usuario, motivo string, now time.Time) (*entity.Reserva, error) {
	reserva, err := repos.Reservas.GetForUpdate(ctx, reservaID)
	if err != nil {
		return nil, err
	}
	if reserva == nil {
		return nil, domain.ErrNotFound
	}
	if reserva.Estado != entity.ReservaActiva {
		return nil, domain.ErrReservaLiberada
	}

	if p, err := repos.Productos.DecrementarReservado(ctx, reserva.ProductoID, reserva.Cantidad); err != nil {
		return nil, err
	} else if p == nil {
		return nil, fmt.Errorf("reserva %d: %w", reserva.ID, domain.ErrStockBajoReservado)
	}
	actualizado, err := repos.Productos.AjustarStock(ctx, reserva.ProductoID, reserva.Cantidad.Neg(), nil)
	if err != nil {
		return nil, err
	}
	if actualizado == nil {
		return nil, fmt.Errorf("reserva %d: %w", reserva.ID, domain.ErrInsufficientStock)
	}
	if err := repos.Reservas.MarcarLiberada(ctx, reserva.ID, usuario, motivo, now); err != nil {
		return nil, err
	}
	marcarLiberada(reserva, usuario, motivo, now)

	obraID := reserva.ObraID
	mov := &entity.MovimientoInventario{
		TransaccionID: uuid.New().String(),
		ProductoID:    reserva.ProductoID,
		Tipo:          entity.MovimientoSalida,
		Cantidad:      reserva.Cantidad.Neg(),
		StockAnterior: actualizado.StockActual.Add(reserva.Cantidad),
		StockNuevo:    actualizado.StockActual,
		CostoUnitario: actualizado.CostoPromedio,
		ObraID:        &obraID,
		PedidoID:      reserva.PedidoID,
		ReservaID:     &reserva.ID,
		Usuario:       usuario,
		Observaciones: motivo,
		Fecha:         now,
	}
	if err := repos.Movimientos.Create(ctx, mov); err != nil {
		return nil, err
	}
	return reserva, nil
}

func marcarLiberada(r *entity.Reserva, usuario, motivo string, at time.Time) {
	r.Estado = entity.ReservaLiberada
	r.UsuarioLiberacion = usuario
	r.MotivoLiberacion = motivo
	t := at
	r.FechaLiberacion = &t
}
