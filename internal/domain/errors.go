package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrUserAlreadyExists  = errors.New("el usuario ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrPedidoNoEditable   = errors.New("el pedido solo puede modificarse en BORRADOR o PENDIENTE")
	ErrReservaLiberada    = errors.New("la reserva ya fue liberada")
	ErrEntregaExcedida    = errors.New("la cantidad entregada excede la cantidad pedida")
	ErrStockBajoReservado = errors.New("el stock actual no puede quedar por debajo del stock reservado")
)

// TransicionInvalidaError describe una transición rechazada por la máquina de estados.
type TransicionInvalidaError struct {
	Desde string
	Hacia string
}

func (e *TransicionInvalidaError) Error() string {
	return fmt.Sprintf("transición no permitida: %s → %s", e.Desde, e.Hacia)
}

func (e *TransicionInvalidaError) Unwrap() error { return ErrInvalidTransition }

// StockInsuficienteError reporta disponible vs. solicitado para un producto.
type StockInsuficienteError struct {
	ProductoID int64
	Disponible decimal.Decimal
	Solicitado decimal.Decimal
}

func (e *StockInsuficienteError) Error() string {
	return fmt.Sprintf("stock insuficiente para el producto %d: disponible %s, solicitado %s",
		e.ProductoID, e.Disponible.String(), e.Solicitado.String())
}

func (e *StockInsuficienteError) Unwrap() error { return ErrInsufficientStock }
