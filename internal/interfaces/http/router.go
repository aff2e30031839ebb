package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Rexus-api/internal/application/auth"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
	"github.com/jhoicas/Rexus-api/internal/application/pedidos"
	"github.com/jhoicas/Rexus-api/internal/application/usecase"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC           *auth.AuthUseCase
	PedidoUC         *pedidos.UseCase
	PedidoPDF        *pedidos.PDFUseCase
	ProductUC        *usecase.ProductUseCase
	ReservasUC       *inventory.ReservasUseCase
	RegisterMovement *inventory.RegisterMovementUseCase
	Replenishment    *inventory.ReplenishmentUseCase
	JWTSecret        string
	Log              zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", RequestLogger(deps.Log))
	requireAuth := AuthMiddleware(deps.JWTSecret)

	// Auth: login público, registro solo admin
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/register", requireAuth, RequireRole(entity.RoleAdmin), authHandler.Register)

	// Pedidos (protegido)
	pedidosGroup := api.Group("/pedidos", requireAuth)
	pedidoHandler := NewPedidoHandler(deps.PedidoUC, deps.PedidoPDF)
	pedidosGroup.Post("/", pedidoHandler.Create)
	pedidosGroup.Get("/", pedidoHandler.List)
	pedidosGroup.Get("/:id", pedidoHandler.GetByID)
	pedidosGroup.Put("/:id", pedidoHandler.Update)
	pedidosGroup.Delete("/:id", pedidoHandler.Delete)
	pedidosGroup.Post("/:id/estado", pedidoHandler.CambiarEstado)
	pedidosGroup.Get("/:id/transiciones", pedidoHandler.Transiciones)
	pedidosGroup.Post("/:id/entregas", pedidoHandler.RegistrarEntrega)
	pedidosGroup.Get("/:id/entregas", pedidoHandler.ListarEntregas)
	pedidosGroup.Get("/:id/pdf", pedidoHandler.PDF)

	// Productos (protegido)
	productos := api.Group("/productos", requireAuth)
	productHandler := NewProductHandler(deps.ProductUC)
	productos.Post("/", productHandler.Create)
	productos.Get("/", productHandler.List)
	productos.Get("/:id", productHandler.GetByID)
	productos.Put("/:id", productHandler.Update)
	productos.Delete("/:id", productHandler.Delete)

	// Inventario (protegido); reservar y liberar solo roles de bodega
	inv := api.Group("/inventario", requireAuth)
	invHandler := NewInventoryHandler(deps.ReservasUC, deps.RegisterMovement, deps.Replenishment)
	bodega := RequireRole(entity.RoleAdmin, entity.RoleSupervisor, entity.RoleBodeguero)
	inv.Post("/reservas", bodega, invHandler.Reservar)
	inv.Post("/reservas/:id/liberar", bodega, invHandler.Liberar)
	inv.Get("/reservas", invHandler.ListarReservas)
	inv.Get("/disponibilidad", invHandler.Disponibilidad)
	inv.Post("/movimientos", invHandler.RegisterMovement)
	inv.Get("/movimientos", invHandler.ListarMovimientos)
	inv.Get("/reposicion", invHandler.GetReplenishmentList)
}
