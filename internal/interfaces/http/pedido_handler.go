package http

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/pedidos"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// HeaderIdempotencyKey cabecera opcional de POST /api/pedidos.
const HeaderIdempotencyKey = "Idempotency-Key"

// PedidoHandler maneja las peticiones HTTP de pedidos (protegido).
type PedidoHandler struct {
	uc    *pedidos.UseCase
	pdfUC *pedidos.PDFUseCase
}

// NewPedidoHandler construye el handler. pdfUC puede ser nil si el PDF no está habilitado.
func NewPedidoHandler(uc *pedidos.UseCase, pdfUC *pedidos.PDFUseCase) *PedidoHandler {
	return &PedidoHandler{uc: uc, pdfUC: pdfUC}
}

// Create godoc
// @Summary      Crear pedido
// @Description  Crea el pedido en BORRADOR. Impuestos y total se calculan en el servidor.
// @Tags         pedidos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                  false  "Clave de idempotencia"
// @Param        body             body    dto.CrearPedidoRequest  true   "Cabecera y líneas"
// @Success      201   {object}  dto.PedidoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pedidos [post]
func (h *PedidoHandler) Create(c *fiber.Ctx) error {
	var in dto.CrearPedidoRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	key := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
	out, err := h.uc.CrearPedido(c.UserContext(), GetUsuario(c), in, key)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar pedidos
// @Tags         pedidos
// @Security     Bearer
// @Produce      json
// @Param        estado      query  string  false  "Estado"
// @Param        obra_id     query  int     false  "Obra"
// @Param        cliente_id  query  int     false  "Cliente"
// @Param        desde       query  string  false  "Desde (YYYY-MM-DD o RFC3339)"
// @Param        hasta       query  string  false  "Hasta (YYYY-MM-DD o RFC3339)"
// @Param        q           query  string  false  "Búsqueda en número, observaciones y contacto"
// @Param        limit       query  int     false  "Límite (default 20)"
// @Param        offset      query  int     false  "Offset"
// @Success      200  {object}  dto.PedidoListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/pedidos [get]
func (h *PedidoHandler) List(c *fiber.Ctx) error {
	f := dto.FiltrosPedido{
		Estado:   strings.ToUpper(strings.TrimSpace(c.Query("estado"))),
		Busqueda: c.Query("q"),
	}
	var ok bool
	if f.ObraID, ok = queryInt64(c, "obra_id"); !ok {
		return badRequest(c, "INVALID_QUERY", "obra_id inválido")
	}
	if f.ClienteID, ok = queryInt64(c, "cliente_id"); !ok {
		return badRequest(c, "INVALID_QUERY", "cliente_id inválido")
	}
	if f.Desde, ok = queryTime(c, "desde", false); !ok {
		return badRequest(c, "INVALID_QUERY", "desde inválido")
	}
	if f.Hasta, ok = queryTime(c, "hasta", true); !ok {
		return badRequest(c, "INVALID_QUERY", "hasta inválido")
	}
	f.Limit = c.QueryInt("limit", 20)
	f.Offset = c.QueryInt("offset", 0)

	out, err := h.uc.Listar(c.UserContext(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener pedido con líneas e historial
// @Tags         pedidos
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.PedidoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id} [get]
func (h *PedidoHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.uc.ObtenerPorID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Update godoc
// @Summary      Actualizar pedido (BORRADOR o PENDIENTE)
// @Tags         pedidos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                          true  "ID del pedido"
// @Param        body  body  dto.ActualizarPedidoRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.PedidoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id} [put]
func (h *PedidoHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.ActualizarPedidoRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.ActualizarPedido(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Desactivar pedido
// @Description  Borrado lógico; libera las reservas activas del pedido.
// @Tags         pedidos
// @Security     Bearer
// @Param        id   path  int  true  "ID del pedido"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id} [delete]
func (h *PedidoHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	if err := h.uc.Desactivar(c.UserContext(), id, GetUsuario(c)); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CambiarEstado godoc
// @Summary      Cambiar estado del pedido
// @Description  Aprobar requiere rol admin o supervisor.
// @Tags         pedidos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                       true  "ID del pedido"
// @Param        body  body  dto.CambiarEstadoRequest  true  "Estado destino"
// @Success      200   {object}  dto.PedidoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/estado [post]
func (h *PedidoHandler) CambiarEstado(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.CambiarEstadoRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	estado := strings.ToUpper(strings.TrimSpace(in.Estado))
	if estado == entity.EstadoAprobado && !hasRole(c, entity.RoleAdmin, entity.RoleSupervisor) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo admin o supervisor pueden aprobar pedidos"})
	}
	out, err := h.uc.ActualizarEstado(c.UserContext(), id, estado, GetUsuario(c), in.Observaciones)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Transiciones godoc
// @Summary      Estados alcanzables desde el estado actual
// @Tags         pedidos
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {object}  dto.TransicionesResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/transiciones [get]
func (h *PedidoHandler) Transiciones(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.uc.Transiciones(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RegistrarEntrega godoc
// @Summary      Registrar entrega (total o parcial)
// @Tags         pedidos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  int                          true  "ID del pedido"
// @Param        body  body  dto.RegistrarEntregaRequest  true  "Cantidades entregadas por línea"
// @Success      201   {array}   dto.EntregaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/entregas [post]
func (h *PedidoHandler) RegistrarEntrega(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	var in dto.RegistrarEntregaRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.RegistrarEntrega(c.UserContext(), id, in, GetUsuario(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ListarEntregas godoc
// @Summary      Entregas registradas de un pedido
// @Tags         pedidos
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {array}   dto.EntregaResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/entregas [get]
func (h *PedidoHandler) ListarEntregas(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	out, err := h.uc.ListarEntregas(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Descargar orden de pedido en PDF
// @Tags         pedidos
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  int  true  "ID del pedido"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/pedidos/{id}/pdf [get]
func (h *PedidoHandler) PDF(c *fiber.Ctx) error {
	if h.pdfUC == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "generación de PDF no configurada"})
	}
	id, ok := paramID(c)
	if !ok {
		return badRequest(c, "INVALID_ID", "id inválido")
	}
	pdfBytes, filename, err := h.pdfUC.DescargarPDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(pdfBytes)
}
