package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/Rexus-api/internal/application/auth"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
	"github.com/jhoicas/Rexus-api/internal/application/pedidos"
	"github.com/jhoicas/Rexus-api/internal/application/ports"
	"github.com/jhoicas/Rexus-api/internal/application/usecase"
	"github.com/jhoicas/Rexus-api/internal/infrastructure/kafka"
	infrapdf "github.com/jhoicas/Rexus-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Rexus-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Rexus-api/internal/infrastructure/redisx"
	httpRouter "github.com/jhoicas/Rexus-api/internal/interfaces/http"
	"github.com/jhoicas/Rexus-api/pkg/config"
	"github.com/jhoicas/Rexus-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		log.Info().Msg("migraciones aplicadas")
	}

	// Idempotencia de creación de pedidos: solo con Redis configurado.
	var idem ports.IdempotencyStore
	if cfg.Redis.Enabled() {
		rdb, err := redisx.New(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		idem = redisx.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: Idempotency-Key deshabilitado")
	}

	// Eventos de dominio: Kafka si hay brokers, si no se descartan.
	var events ports.EventPublisher = ports.NopPublisher{}
	var publisher *kafka.Publisher
	if cfg.Kafka.Enabled() {
		publisher = kafka.NewPublisher(cfg.Kafka, log.Zerolog())
		publisher.Start(context.Background())
		events = publisher
	}

	pedidoRepo := postgres.NewPedidoRepository(pool)
	productoRepo := postgres.NewProductoRepository(pool)
	reservaRepo := postgres.NewReservaRepository(pool)
	movimientoRepo := postgres.NewMovimientoRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	pedidoUC := pedidos.NewUseCase(txRunner, pedidoRepo, idem, events, log.Zerolog(), pedidos.Config{
		ReservarAlAprobar:   cfg.Pedidos.ReservarAlAprobar,
		MaxReintentosNumero: cfg.Pedidos.MaxReintentosNumero,
	})
	pedidoPDFUC := pedidos.NewPDFUseCase(pedidoRepo, infrapdf.NewMarotoPDFGenerator(cfg.App.Empresa))
	reservasUC := inventory.NewReservasUseCase(txRunner, productoRepo, reservaRepo, events, log.Zerolog())
	registerMovementUC := inventory.NewRegisterMovementUseCase(txRunner, movimientoRepo, events, log.Zerolog())
	replenishmentUC := inventory.NewReplenishmentUseCase(productoRepo)
	productUC := usecase.NewProductUseCase(productoRepo)
	authUC := auth.NewAuthUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Rexus API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:           authUC,
		PedidoUC:         pedidoUC,
		PedidoPDF:        pedidoPDFUC,
		ProductUC:        productUC,
		ReservasUC:       reservasUC,
		RegisterMovement: registerMovementUC,
		Replenishment:    replenishmentUC,
		JWTSecret:        cfg.JWT.Secret,
		Log:              log.Zerolog(),
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if publisher != nil {
		publisher.Close()
	}

	log.Info().Msg("aplicación detenida")
}
