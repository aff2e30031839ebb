package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/domain"
)

// RequestLogger deja en el contexto de la petición un logger con método y ruta;
// writeError lo usa para registrar los errores que terminan en 500.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqLog := log.With().Str("method", c.Method()).Str("path", c.Path()).Logger()
		c.SetUserContext(reqLog.WithContext(c.UserContext()))
		return c.Next()
	}
}

// writeError traduce un error de dominio al status y código HTTP correspondientes.
func writeError(c *fiber.Ctx, err error) error {
	var stockErr *domain.StockInsuficienteError
	var transErr *domain.TransicionInvalidaError

	switch {
	case errors.As(err, &stockErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":        "INSUFFICIENT_STOCK",
			"message":     stockErr.Error(),
			"producto_id": stockErr.ProductoID,
			"disponible":  stockErr.Disponible,
			"solicitado":  stockErr.Solicitado,
		})
	case errors.As(err, &transErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"code":    "INVALID_TRANSITION",
			"message": transErr.Error(),
			"desde":   transErr.Desde,
			"hacia":   transErr.Hacia,
		})
	case errors.Is(err, domain.ErrInsufficientStock):
		return fail(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err)
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", err)
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err)
	case errors.Is(err, domain.ErrDuplicate), errors.Is(err, domain.ErrUserAlreadyExists):
		return fail(c, fiber.StatusConflict, "DUPLICATE", err)
	case errors.Is(err, domain.ErrPedidoNoEditable):
		return fail(c, fiber.StatusConflict, "NOT_EDITABLE", err)
	case errors.Is(err, domain.ErrReservaLiberada):
		return fail(c, fiber.StatusConflict, "RESERVA_LIBERADA", err)
	case errors.Is(err, domain.ErrEntregaExcedida):
		return fail(c, fiber.StatusConflict, "ENTREGA_EXCEDIDA", err)
	case errors.Is(err, domain.ErrStockBajoReservado):
		return fail(c, fiber.StatusConflict, "STOCK_BELOW_RESERVED", err)
	case errors.Is(err, domain.ErrConflict):
		return fail(c, fiber.StatusConflict, "CONFLICT", err)
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err)
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN", err)
	}
	// Persistencia, driver o generación de documentos: el detalle solo va al log.
	zerolog.Ctx(c.UserContext()).Error().Err(err).Msg("error interno")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

func fail(c *fiber.Ctx, status int, code string, err error) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
