package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Rexus-api/internal/application/auth"
	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/application/inventory"
	"github.com/jhoicas/Rexus-api/internal/application/pedidos"
	"github.com/jhoicas/Rexus-api/internal/application/usecase"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	apphttp "github.com/jhoicas/Rexus-api/internal/interfaces/http"
	"github.com/jhoicas/Rexus-api/internal/testutil/memstore"
)

type fakePDF struct{}

func (fakePDF) GeneratePedidoPDF(context.Context, *entity.Pedido, []*entity.PedidoHistorial) ([]byte, error) {
	return []byte("%PDF-1.4 fake"), nil
}

type failingPDF struct{ err error }

func (f failingPDF) GeneratePedidoPDF(context.Context, *entity.Pedido, []*entity.PedidoHistorial) ([]byte, error) {
	return nil, f.err
}

type apiFixture struct {
	app    *fiber.App
	store  *memstore.Store
	authUC *auth.AuthUseCase
}

func newAPI(t *testing.T, opts ...func(*apphttp.RouterDeps, *memstore.Store)) *apiFixture {
	t.Helper()
	store := memstore.New()
	log := zerolog.Nop()
	authUC := auth.NewAuthUseCase(store.Users(), auth.JWTConfig{Secret: testJWTSecret, ExpMinutes: testExpMin, Issuer: testIssuer})

	deps := apphttp.RouterDeps{
		AuthUC:           authUC,
		PedidoUC:         pedidos.NewUseCase(store, store.Pedidos(), nil, nil, log, pedidos.Config{ReservarAlAprobar: true}),
		PedidoPDF:        pedidos.NewPDFUseCase(store.Pedidos(), fakePDF{}),
		ProductUC:        usecase.NewProductUseCase(store.Productos()),
		ReservasUC:       inventory.NewReservasUseCase(store, store.Productos(), store.Reservas(), nil, log),
		RegisterMovement: inventory.NewRegisterMovementUseCase(store, store.Movimientos(), nil, log),
		Replenishment:    inventory.NewReplenishmentUseCase(store.Productos()),
		JWTSecret:        testJWTSecret,
		Log:              zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&deps, store)
	}

	app := fiber.New()
	apphttp.Router(app, deps)
	return &apiFixture{app: app, store: store, authUC: authUC}
}

func (f *apiFixture) do(t *testing.T, method, path, role string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	return decode[dto.ErrorResponse](t, resp).Code
}

func pedidoBody() map[string]any {
	return map[string]any{
		"cliente_id": 1,
		"lineas": []map[string]any{
			{"descripcion": "Tornillo", "cantidad": 10, "precio_unitario": 5},
			{"descripcion": "Bisagra", "cantidad": 2, "precio_unitario": 25, "descuento": 5},
		},
	}
}

func (f *apiFixture) crearPedido(t *testing.T) dto.PedidoResponse {
	t.Helper()
	resp := f.do(t, http.MethodPost, "/api/pedidos", "vendedor", pedidoBody())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[dto.PedidoResponse](t, resp)
}

func cambiarEstado(estado string) map[string]any {
	return map[string]any{"estado": estado}
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

func TestLogin_Endpoint(t *testing.T) {
	f := newAPI(t)
	_, err := f.authUC.RegisterUser(context.Background(), dto.RegisterRequest{
		Usuario: "admin", Password: "secreto123", Role: entity.RoleAdmin,
	})
	require.NoError(t, err)

	resp := f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"usuario": "admin", "password": "secreto123"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.LoginResponse](t, resp)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, entity.RoleAdmin, out.User.Role)

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"usuario": "admin", "password": "otra-clave"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, resp))

	resp = f.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"usuario": "nadie", "password": "secreto123"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegister_SoloAdmin(t *testing.T) {
	f := newAPI(t)
	body := map[string]string{"usuario": "bodega1", "password": "secreto123", "role": "bodeguero"}

	resp := f.do(t, http.MethodPost, "/api/auth/register", "vendedor", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/auth/register", "admin", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "bodeguero", decode[dto.UserResponse](t, resp).Role)

	resp = f.do(t, http.MethodPost, "/api/auth/register", "admin", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

// ─── Pedidos ──────────────────────────────────────────────────────────────────

func TestPedidos_CrearCalculaTotales(t *testing.T) {
	f := newAPI(t)
	out := f.crearPedido(t)

	assert.Equal(t, entity.EstadoBorrador, out.Estado)
	assert.Equal(t, testUsuario, out.UsuarioCreador)
	assert.True(t, decimal.RequireFromString("95").Equal(out.Subtotal), "subtotal %s", out.Subtotal)
	assert.True(t, decimal.RequireFromString("18.05").Equal(out.Impuestos), "impuestos %s", out.Impuestos)
	assert.True(t, decimal.RequireFromString("113.05").Equal(out.Total), "total %s", out.Total)
	assert.Len(t, out.Lineas, 2)
}

func TestPedidos_SinTokenRetorna401(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodGet, "/api/pedidos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPedidos_CuerpoInvalido(t *testing.T) {
	f := newAPI(t)
	resp := f.do(t, http.MethodPost, "/api/pedidos", "vendedor", map[string]any{"cliente_id": 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", errorCode(t, resp))
}

func TestPedidos_ObtenerYListar(t *testing.T) {
	f := newAPI(t)
	creado := f.crearPedido(t)
	f.crearPedido(t)

	resp := f.do(t, http.MethodGet, "/api/pedidos/"+itoa(creado.ID), "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[dto.PedidoResponse](t, resp)
	assert.Equal(t, creado.Numero, got.Numero)
	assert.NotEmpty(t, got.Historial)

	resp = f.do(t, http.MethodGet, "/api/pedidos?estado=borrador&limit=1", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[dto.PedidoListResponse](t, resp)
	assert.Len(t, list.Items, 1)
	assert.Equal(t, 2, list.Page.Total)

	resp = f.do(t, http.MethodGet, "/api/pedidos/999", "vendedor", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/pedidos/abc", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/pedidos?desde=ayer", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPedidos_AprobarRequiereSupervisor(t *testing.T) {
	f := newAPI(t)
	p := f.crearPedido(t)
	path := "/api/pedidos/" + itoa(p.ID) + "/estado"

	resp := f.do(t, http.MethodPost, path, "vendedor", cambiarEstado(entity.EstadoPendiente))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, path, "vendedor", cambiarEstado(entity.EstadoAprobado))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, path, "supervisor", cambiarEstado(entity.EstadoAprobado))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[dto.PedidoResponse](t, resp)
	assert.Equal(t, entity.EstadoAprobado, out.Estado)
	assert.Equal(t, testUsuario, out.UsuarioAprobador)
}

func TestPedidos_TransicionInvalida(t *testing.T) {
	f := newAPI(t)
	p := f.crearPedido(t)

	resp := f.do(t, http.MethodPost, "/api/pedidos/"+itoa(p.ID)+"/estado", "admin", cambiarEstado(entity.EstadoEntregado))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_TRANSITION", errorCode(t, resp))

	resp = f.do(t, http.MethodGet, "/api/pedidos/"+itoa(p.ID)+"/transiciones", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	tr := decode[dto.TransicionesResponse](t, resp)
	assert.ElementsMatch(t, []string{entity.EstadoPendiente, entity.EstadoCancelado}, tr.Siguientes)
	assert.False(t, tr.Terminal)
}

func TestPedidos_DesactivarYPDF(t *testing.T) {
	f := newAPI(t)
	p := f.crearPedido(t)

	resp := f.do(t, http.MethodGet, "/api/pedidos/"+itoa(p.ID)+"/pdf", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "pedido_"+p.Numero+".pdf")

	resp = f.do(t, http.MethodDelete, "/api/pedidos/"+itoa(p.ID), "vendedor", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/pedidos/"+itoa(p.ID), "vendedor", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPedidos_ErrorInternoSeRegistra(t *testing.T) {
	var logs bytes.Buffer
	f := newAPI(t, func(d *apphttp.RouterDeps, store *memstore.Store) {
		d.PedidoPDF = pedidos.NewPDFUseCase(store.Pedidos(), failingPDF{err: errors.New("fuente no disponible")})
		d.Log = zerolog.New(&logs)
	})
	p := f.crearPedido(t)

	resp := f.do(t, http.MethodGet, "/api/pedidos/"+itoa(p.ID)+"/pdf", "vendedor", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := decode[dto.ErrorResponse](t, resp)
	assert.Equal(t, "INTERNAL", out.Code)
	assert.NotContains(t, out.Message, "fuente no disponible")

	require.NotEmpty(t, logs.String(), "el error interno debe quedar en el log")
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Contains(t, entry["error"], "fuente no disponible")
	assert.Equal(t, http.MethodGet, entry["method"])
	assert.Equal(t, "/api/pedidos/"+itoa(p.ID)+"/pdf", entry["path"])
}

// ─── Inventario ───────────────────────────────────────────────────────────────

func TestReservas_RolesYStock(t *testing.T) {
	f := newAPI(t)
	prodID := f.store.SeedProducto("P-1", decimal.NewFromInt(10), decimal.NewFromInt(2), decimal.NewFromInt(3))
	body := map[string]any{"producto_id": prodID, "obra_id": 4, "cantidad": 6}

	resp := f.do(t, http.MethodPost, "/api/inventario/reservas", "vendedor", body)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/inventario/reservas", "bodeguero", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	reserva := decode[dto.ReservaResponse](t, resp)
	assert.Equal(t, entity.ReservaActiva, reserva.Estado)

	resp = f.do(t, http.MethodPost, "/api/inventario/reservas", "bodeguero", body)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INSUFFICIENT_STOCK", errorCode(t, resp))

	resp = f.do(t, http.MethodGet, "/api/inventario/disponibilidad?producto_id="+itoa(prodID), "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	disp := decode[[]dto.DisponibilidadResponse](t, resp)
	require.Len(t, disp, 1)
	assert.True(t, decimal.NewFromInt(4).Equal(disp[0].Disponible))

	resp = f.do(t, http.MethodPost, "/api/inventario/reservas/"+itoa(reserva.ID)+"/liberar", "supervisor", map[string]string{"motivo": "obra suspendida"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/api/inventario/reservas/"+itoa(reserva.ID)+"/liberar", "supervisor", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/inventario/reservas?obra_id=4", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.ReservaResponse](t, resp), 1)

	resp = f.do(t, http.MethodGet, "/api/inventario/reservas", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestMovimientos_Endpoint(t *testing.T) {
	f := newAPI(t)
	prodID := f.store.SeedProducto("P-2", decimal.Zero, decimal.NewFromInt(5), decimal.Zero)

	resp := f.do(t, http.MethodPost, "/api/inventario/movimientos", "bodeguero", map[string]any{
		"producto_id": prodID, "tipo": "ENTRADA", "cantidad": 20, "costo_unitario": 4,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	mov := decode[dto.MovimientoResponse](t, resp)
	assert.True(t, decimal.NewFromInt(20).Equal(mov.StockNuevo))

	resp = f.do(t, http.MethodPost, "/api/inventario/movimientos", "bodeguero", map[string]any{
		"producto_id": prodID, "tipo": "SALIDA", "cantidad": 50,
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/inventario/movimientos?producto_id="+itoa(prodID), "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.MovimientoResponse](t, resp), 1)

	resp = f.do(t, http.MethodGet, "/api/inventario/movimientos", "vendedor", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReposicion_Endpoint(t *testing.T) {
	f := newAPI(t)
	f.store.SeedProducto("BAJO", decimal.NewFromInt(1), decimal.NewFromInt(10), decimal.NewFromInt(2))
	f.store.SeedProducto("OK", decimal.NewFromInt(100), decimal.NewFromInt(10), decimal.NewFromInt(2))

	resp := f.do(t, http.MethodGet, "/api/inventario/reposicion", "compras", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decode[struct {
		Total          int                              `json:"total"`
		Replenishments []dto.ReplenishmentSuggestionDTO `json:"replenishments"`
	}](t, resp)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "BAJO", out.Replenishments[0].Codigo)
}

// ─── Productos ────────────────────────────────────────────────────────────────

func TestProductos_CRUD(t *testing.T) {
	f := newAPI(t)

	resp := f.do(t, http.MethodPost, "/api/productos", "compras", map[string]any{
		"codigo": "VID-4", "descripcion": "Vidrio templado 4mm", "stock_minimo": 10, "precio_unitario": 120,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	p := decode[dto.ProductoResponse](t, resp)

	resp = f.do(t, http.MethodPost, "/api/productos", "compras", map[string]any{"codigo": "VID-4", "descripcion": "otro"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = f.do(t, http.MethodPut, "/api/productos/"+itoa(p.ID), "compras", map[string]any{"descripcion": "Vidrio templado 4 mm"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Vidrio templado 4 mm", decode[dto.ProductoResponse](t, resp).Descripcion)

	resp = f.do(t, http.MethodGet, "/api/productos?q=vidrio", "vendedor", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[dto.ProductoListResponse](t, resp).Items, 1)

	resp = f.do(t, http.MethodDelete, "/api/productos/"+itoa(p.ID), "admin", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/api/productos/"+itoa(p.ID), "admin", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
