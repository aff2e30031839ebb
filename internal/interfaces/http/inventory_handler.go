package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
)

// InventoryHandler maneja reservas, disponibilidad, movimientos y reposición (protegido).
type InventoryHandler struct {
	reservas      *inventory.ReservasUseCase
	movimientos   *inventory.RegisterMovementUseCase
	replenishment *inventory.ReplenishmentUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	reservas *inventory.ReservasUseCase,
	movimientos *inventory.RegisterMovementUseCase,
	replenishment *inventory.ReplenishmentUseCase,
) *InventoryHandler {
	return &InventoryHandler{reservas: reservas, movimientos: movimientos, replenishment: replenishment}
}

// Reservar godoc
// @Summary      Reservar material para una obra
// @Tags         inventario
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservarMaterialRequest  true  "producto_id, obra_id, cantidad"
// @Success      201   {object}  dto.ReservaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventario/reservas [post]
func (h *InventoryHandler) Reservar(c *fiber.Ctx) error {
	var in dto.ReservarMaterialRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.reservas.ReservarMaterial(c.UserContext(), in, GetUsuario(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Liberar godoc
// @Summary      Liberar reserva
// @Tags         inventario
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                        true   "ID de la reserva"
// @Param        body  body  dto.LiberarReservaRequest  false  "Motivo"
// @Success      200   {object}  dto.ReservaResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventario/reservas/{id}/liberar [post]
func (h *InventoryHandler) Liberar(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.LiberarReservaRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	out, err := h.reservas.LiberarReserva(c.UserContext(), id, GetUsuario(c), in.Motivo)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListarReservas godoc
// @Summary      Reservas por obra o por producto
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        obra_id       query  int   false  "Obra"
// @Param        producto_id   query  int   false  "Producto"
// @Param        solo_activas  query  bool  false  "Solo reservas ACTIVA"
// @Success      200  {array}   dto.ReservaResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventario/reservas [get]
func (h *InventoryHandler) ListarReservas(c *fiber.Ctx) error {
	obraID, ok := queryInt64(c, "obra_id")
	if !ok {
		return badRequest(c, "INVALID_QUERY", "obra_id inválido")
	}
	productoID, ok := queryInt64(c, "producto_id")
	if !ok {
		return badRequest(c, "INVALID_QUERY", "producto_id inválido")
	}
	soloActivas := c.QueryBool("solo_activas", false)

	var (
		out []dto.ReservaResponse
		err error
	)
	switch {
	case obraID != nil:
		out, err = h.reservas.ListarPorObra(c.UserContext(), *obraID, soloActivas)
	case productoID != nil:
		out, err = h.reservas.ListarPorProducto(c.UserContext(), *productoID, soloActivas)
	default:
		return badRequest(c, "VALIDATION", "obra_id o producto_id es requerido")
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Disponibilidad godoc
// @Summary      Stock disponible (actual - reservado)
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        producto_id  query  int  false  "Producto; vacío = todos los activos"
// @Success      200  {array}   dto.DisponibilidadResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventario/disponibilidad [get]
func (h *InventoryHandler) Disponibilidad(c *fiber.Ctx) error {
	productoID, ok := queryInt64(c, "producto_id")
	if !ok {
		return badRequest(c, "INVALID_QUERY", "producto_id inválido")
	}
	out, err := h.reservas.ObtenerDisponibilidad(c.UserContext(), productoID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventario
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "producto_id, tipo (ENTRADA|SALIDA|AJUSTE), cantidad, costo_unitario (entradas)"
// @Success      201   {object}  dto.MovimientoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.movimientos.RegisterMovement(c.UserContext(), in, GetUsuario(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListarMovimientos godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Param        producto_id  query  int     true   "Producto"
// @Param        desde        query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        hasta        query  string  false  "Hasta (YYYY-MM-DD o RFC3339)"
// @Param        limit        query  int     false  "Límite (default 20)"
// @Param        offset       query  int     false  "Offset"
// @Success      200  {array}   dto.MovimientoResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventario/movimientos [get]
func (h *InventoryHandler) ListarMovimientos(c *fiber.Ctx) error {
	productoID, ok := queryInt64(c, "producto_id")
	if !ok || productoID == nil {
		return badRequest(c, "INVALID_QUERY", "producto_id es requerido")
	}
	desde, ok := queryTime(c, "desde", false)
	if !ok {
		return badRequest(c, "INVALID_QUERY", "desde inválido")
	}
	hasta, ok := queryTime(c, "hasta", true)
	if !ok {
		return badRequest(c, "INVALID_QUERY", "hasta inválido")
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)}
	page.DefaultPage()

	out, err := h.movimientos.ListarMovimientos(c.UserContext(), *productoID, desde, hasta, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetReplenishmentList godoc
// @Summary      Lista de reposición
// @Description  Productos con disponible en o por debajo del mínimo, con la cantidad sugerida
//
//	para volver a 1.5 veces el mínimo, ordenados por urgencia.
//
// @Tags         inventario
// @Security     Bearer
// @Produce      json
// @Success      200  {array}   dto.ReplenishmentSuggestionDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/inventario/reposicion [get]
func (h *InventoryHandler) GetReplenishmentList(c *fiber.Ctx) error {
	list, err := h.replenishment.GenerateReplenishmentList(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
