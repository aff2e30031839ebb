// seed carga el catálogo inicial de productos desde un CSV y crea el usuario admin.
//
// Uso: go run ./cmd/seed [ruta/catalogo.csv]
// Por defecto busca catalogo.csv en el directorio actual. El archivo se lee como
// ISO-8859-1 salvo SEED_CSV_UTF8=true. El stock inicial entra como movimiento ENTRADA
// para que quede en el historial con su costo.
package main

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/jhoicas/Rexus-api/internal/application/auth"
	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
	"github.com/jhoicas/Rexus-api/internal/application/usecase"
	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Rexus-api/pkg/config"
	"github.com/jhoicas/Rexus-api/pkg/logger"
)

const usuarioSeed = "seed"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: "seed"})

	v := viper.New()
	v.AutomaticEnv()

	csvPath := "catalogo.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	// Usuario admin
	authUC := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{Secret: cfg.JWT.Secret})
	adminUser := strings.TrimSpace(v.GetString("SEED_ADMIN_USER"))
	if adminUser == "" {
		adminUser = "admin"
	}
	if pass := v.GetString("SEED_ADMIN_PASSWORD"); pass != "" {
		_, err := authUC.RegisterUser(ctx, dto.RegisterRequest{
			Usuario:  adminUser,
			Password: pass,
			Nombre:   "Administrador",
			Role:     entity.RoleAdmin,
		})
		switch {
		case errors.Is(err, domain.ErrUserAlreadyExists):
			log.Info().Str("usuario", adminUser).Msg("admin ya existe")
		case err != nil:
			log.Fatal().Err(err).Msg("crear admin")
		default:
			log.Info().Str("usuario", adminUser).Msg("admin creado")
		}
	} else {
		log.Warn().Msg("SEED_ADMIN_PASSWORD vacío: no se crea el usuario admin")
	}

	// Catálogo
	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatal().Err(err).Str("archivo", csvPath).Msg("abrir catálogo")
	}
	defer f.Close()

	filas, err := leerCatalogo(f, !v.GetBool("SEED_CSV_UTF8"))
	if err != nil {
		log.Fatal().Err(err).Msg("leer catálogo")
	}

	productoRepo := postgres.NewProductoRepository(pool)
	productUC := usecase.NewProductUseCase(productoRepo)
	movUC := inventory.NewRegisterMovementUseCase(postgres.NewTxRunner(pool), postgres.NewMovimientoRepository(pool), nil, log.Zerolog())

	var creados, existentes int
	for _, fila := range filas {
		p, err := productUC.Create(ctx, dto.CreateProductoRequest{
			Codigo:         fila.Codigo,
			Descripcion:    fila.Descripcion,
			Categoria:      fila.Categoria,
			Unidad:         fila.Unidad,
			StockMinimo:    fila.StockMinimo,
			PrecioUnitario: fila.PrecioUnitario,
		})
		if errors.Is(err, domain.ErrDuplicate) {
			existentes++
			continue
		}
		if err != nil {
			log.Fatal().Err(err).Str("codigo", fila.Codigo).Msg("crear producto")
		}
		creados++

		if !fila.StockInicial.IsPositive() {
			continue
		}
		costo := fila.CostoUnitario
		if _, err := movUC.RegisterMovement(ctx, dto.RegisterMovementRequest{
			ProductoID:    p.ID,
			Tipo:          entity.MovimientoEntrada,
			Cantidad:      fila.StockInicial,
			CostoUnitario: &costo,
			Observaciones: "Stock inicial",
		}, usuarioSeed); err != nil {
			log.Fatal().Err(err).Str("codigo", fila.Codigo).Msg("stock inicial")
		}
	}

	log.Info().Int("creados", creados).Int("existentes", existentes).Msg("catálogo cargado")
}
