// Package memstore implementa los puertos de repositorio en memoria para tests de casos de uso.
// Run serializa las transacciones y, si fn falla, restaura el estado previo completo.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/domain"
	"github.com/jhoicas/Rexus-api/internal/domain/entity"
	"github.com/jhoicas/Rexus-api/internal/domain/pedido"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
	"github.com/jhoicas/Rexus-api/pkg/textnorm"
)

// Las entidades guardadas nunca se mutan en sitio: cada escritura reemplaza la entrada
// del mapa por una copia, así el snapshot de Run puede ser superficial.
type state struct {
	pedidos     map[int64]*entity.Pedido
	detalles    map[int64]*entity.PedidoDetalle
	historial   []*entity.PedidoHistorial
	entregas    []*entity.PedidoEntrega
	secuencias  map[int]int
	productos   map[int64]*entity.Producto
	reservas    map[int64]*entity.Reserva
	movimientos []*entity.MovimientoInventario
	users       map[int64]*entity.User
	nextID      int64
}

func (st *state) clone() *state {
	c := &state{
		pedidos:     make(map[int64]*entity.Pedido, len(st.pedidos)),
		detalles:    make(map[int64]*entity.PedidoDetalle, len(st.detalles)),
		historial:   st.historial[:len(st.historial):len(st.historial)],
		entregas:    st.entregas[:len(st.entregas):len(st.entregas)],
		secuencias:  make(map[int]int, len(st.secuencias)),
		productos:   make(map[int64]*entity.Producto, len(st.productos)),
		reservas:    make(map[int64]*entity.Reserva, len(st.reservas)),
		movimientos: st.movimientos[:len(st.movimientos):len(st.movimientos)],
		users:       make(map[int64]*entity.User, len(st.users)),
		nextID:      st.nextID,
	}
	for k, v := range st.pedidos {
		c.pedidos[k] = v
	}
	for k, v := range st.detalles {
		c.detalles[k] = v
	}
	for k, v := range st.secuencias {
		c.secuencias[k] = v
	}
	for k, v := range st.productos {
		c.productos[k] = v
	}
	for k, v := range st.reservas {
		c.reservas[k] = v
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	return c
}

// Store base de datos en memoria.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex
	st   *state

	// FailSecuencia, si no es nil, lo devuelve SiguienteSecuencia.
	FailSecuencia error
}

// New crea un store vacío.
func New() *Store {
	return &Store{st: &state{
		pedidos:    map[int64]*entity.Pedido{},
		detalles:   map[int64]*entity.PedidoDetalle{},
		secuencias: map[int]int{},
		productos:  map[int64]*entity.Producto{},
		reservas:   map[int64]*entity.Reserva{},
		users:      map[int64]*entity.User{},
	}}
}

// Run implementa ports.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, repos repository.Repos) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.st.clone()
	s.mu.Unlock()

	if err := fn(ctx, s.Repos()); err != nil {
		s.mu.Lock()
		s.st = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

// Repos devuelve los repositorios del store.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Pedidos:     s.Pedidos(),
		Reservas:    s.Reservas(),
		Productos:   s.Productos(),
		Movimientos: s.Movimientos(),
	}
}

func (s *Store) Pedidos() repository.PedidoRepository         { return pedidoRepo{s} }
func (s *Store) Reservas() repository.ReservaRepository       { return reservaRepo{s} }
func (s *Store) Productos() repository.ProductoRepository     { return productoRepo{s} }
func (s *Store) Movimientos() repository.MovimientoRepository { return movimientoRepo{s} }
func (s *Store) Users() repository.UserRepository             { return userRepo{s} }

// SetSecuencia fija el último consecutivo emitido para un año.
func (s *Store) SetSecuencia(anio, ultimo int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.secuencias[anio] = ultimo
}

// SeedProducto inserta un producto activo y devuelve su ID.
func (s *Store) SeedProducto(codigo string, stockActual, stockMinimo, costo decimal.Decimal) int64 {
	p := &entity.Producto{
		Codigo:         codigo,
		Descripcion:    "Producto " + codigo,
		StockActual:    stockActual,
		StockReservado: decimal.Zero,
		StockMinimo:    stockMinimo,
		CostoPromedio:  costo,
		Activo:         true,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}
	_ = s.Productos().Create(context.Background(), p)
	return p.ID
}

// MovimientosDe devuelve todos los movimientos de un producto en orden de inserción.
func (s *Store) MovimientosDe(productoID int64) []*entity.MovimientoInventario {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.MovimientoInventario
	for _, m := range s.st.movimientos {
		if m.ProductoID == productoID {
			c := *m
			out = append(out, &c)
		}
	}
	return out
}

func (s *Store) id() int64 {
	s.st.nextID++
	return s.st.nextID
}

// ── Pedidos ─────────────────────────────────────────────────────────────────

type pedidoRepo struct{ s *Store }

func (r pedidoRepo) Create(_ context.Context, p *entity.Pedido) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.st.pedidos {
		if e.Numero == p.Numero {
			return domain.ErrDuplicate
		}
	}
	p.ID = r.s.id()
	c := *p
	c.Detalles = nil
	r.s.st.pedidos[p.ID] = &c
	return nil
}

func (r pedidoRepo) CreateDetalle(_ context.Context, d *entity.PedidoDetalle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.st.pedidos[d.PedidoID]; !ok {
		return domain.ErrNotFound
	}
	d.ID = r.s.id()
	c := *d
	r.s.st.detalles[d.ID] = &c
	return nil
}

func (r pedidoRepo) ReplaceDetalles(_ context.Context, pedidoID int64, detalles []*entity.PedidoDetalle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, d := range r.s.st.detalles {
		if d.PedidoID == pedidoID {
			delete(r.s.st.detalles, id)
		}
	}
	for _, d := range detalles {
		d.ID = r.s.id()
		d.PedidoID = pedidoID
		c := *d
		r.s.st.detalles[d.ID] = &c
	}
	return nil
}

func (r pedidoRepo) load(id int64) *entity.Pedido {
	p, ok := r.s.st.pedidos[id]
	if !ok || !p.Activo {
		return nil
	}
	c := *p
	for _, d := range r.s.st.detalles {
		if d.PedidoID == id {
			dc := *d
			c.Detalles = append(c.Detalles, &dc)
		}
	}
	sort.Slice(c.Detalles, func(i, j int) bool { return c.Detalles[i].ID < c.Detalles[j].ID })
	return &c
}

func (r pedidoRepo) GetByID(_ context.Context, id int64) (*entity.Pedido, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.load(id), nil
}

func (r pedidoRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Pedido, error) {
	return r.GetByID(ctx, id)
}

func (r pedidoRepo) List(_ context.Context, f repository.FiltrosPedido) ([]*entity.Pedido, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Pedido
	for id, p := range r.s.st.pedidos {
		if !p.Activo {
			continue
		}
		if f.Estado != "" && p.Estado != f.Estado {
			continue
		}
		if f.ObraID != nil && (p.ObraID == nil || *p.ObraID != *f.ObraID) {
			continue
		}
		if f.ClienteID != nil && p.ClienteID != *f.ClienteID {
			continue
		}
		if f.Desde != nil && p.FechaPedido.Before(*f.Desde) {
			continue
		}
		if f.Hasta != nil && p.FechaPedido.After(*f.Hasta) {
			continue
		}
		if f.Busqueda != "" &&
			!textnorm.Contains(p.Numero, f.Busqueda) &&
			!textnorm.Contains(p.Observaciones, f.Busqueda) &&
			!textnorm.Contains(p.ContactoEntrega, f.Busqueda) {
			continue
		}
		out = append(out, r.load(id))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FechaPedido.Equal(out[j].FechaPedido) {
			return out[i].FechaPedido.After(out[j].FechaPedido)
		}
		return out[i].ID > out[j].ID
	})
	total := len(out)
	return page(out, f.Limit, f.Offset), total, nil
}

func (r pedidoRepo) update(id int64, fn func(p *entity.Pedido)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.pedidos[id]
	if !ok {
		return domain.ErrNotFound
	}
	c := *p
	fn(&c)
	r.s.st.pedidos[id] = &c
	return nil
}

func (r pedidoRepo) UpdateCabecera(_ context.Context, p *entity.Pedido) error {
	return r.update(p.ID, func(c *entity.Pedido) {
		c.Prioridad = p.Prioridad
		c.Subtotal, c.Descuento, c.Impuestos, c.Total = p.Subtotal, p.Descuento, p.Impuestos, p.Total
		c.FechaEntregaSolicitada = p.FechaEntregaSolicitada
		c.Observaciones = p.Observaciones
		c.DireccionEntrega = p.DireccionEntrega
		c.ContactoEntrega = p.ContactoEntrega
		c.TelefonoContacto = p.TelefonoContacto
		c.UpdatedAt = p.UpdatedAt
	})
}

func (r pedidoRepo) UpdateEstado(_ context.Context, p *entity.Pedido) error {
	return r.update(p.ID, func(c *entity.Pedido) {
		c.Estado = p.Estado
		c.UsuarioAprobador = p.UsuarioAprobador
		c.FechaAprobacion = p.FechaAprobacion
		c.FechaEntregaReal = p.FechaEntregaReal
		c.UpdatedAt = p.UpdatedAt
	})
}

func (r pedidoRepo) UpdateCantidadEntregada(_ context.Context, detalleID int64, cantidad decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.st.detalles[detalleID]
	if !ok {
		return domain.ErrNotFound
	}
	c := *d
	c.CantidadEntregada = cantidad
	r.s.st.detalles[detalleID] = &c
	return nil
}

func (r pedidoRepo) Desactivar(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(c *entity.Pedido) {
		c.Activo = false
		c.UpdatedAt = at
	})
}

func (r pedidoRepo) AppendHistorial(_ context.Context, h *entity.PedidoHistorial) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	h.ID = r.s.id()
	c := *h
	r.s.st.historial = append(r.s.st.historial, &c)
	return nil
}

func (r pedidoRepo) ListHistorial(_ context.Context, pedidoID int64) ([]*entity.PedidoHistorial, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.PedidoHistorial
	for _, h := range r.s.st.historial {
		if h.PedidoID == pedidoID {
			c := *h
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r pedidoRepo) CreateEntrega(_ context.Context, e *entity.PedidoEntrega) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e.ID = r.s.id()
	c := *e
	r.s.st.entregas = append(r.s.st.entregas, &c)
	return nil
}

func (r pedidoRepo) ListEntregas(_ context.Context, pedidoID int64) ([]*entity.PedidoEntrega, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.PedidoEntrega
	for _, e := range r.s.st.entregas {
		if e.PedidoID == pedidoID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// SiguienteSecuencia replica el contador anual: la primera vez en el año parte del mayor
// sufijo existente.
func (r pedidoRepo) SiguienteSecuencia(_ context.Context, anio int) (int, error) {
	if r.s.FailSecuencia != nil {
		return 0, r.s.FailSecuencia
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ultimo, ok := r.s.st.secuencias[anio]
	if !ok {
		numeros := make([]string, 0, len(r.s.st.pedidos))
		for _, p := range r.s.st.pedidos {
			numeros = append(numeros, p.Numero)
		}
		ultimo = pedido.SiguienteSecuencia(anio, numeros) - 1
	}
	ultimo++
	r.s.st.secuencias[anio] = ultimo
	return ultimo, nil
}

// ── Reservas ────────────────────────────────────────────────────────────────

type reservaRepo struct{ s *Store }

func (r reservaRepo) Create(_ context.Context, res *entity.Reserva) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res.ID = r.s.id()
	c := *res
	r.s.st.reservas[res.ID] = &c
	return nil
}

func (r reservaRepo) GetByID(_ context.Context, id int64) (*entity.Reserva, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.st.reservas[id]
	if !ok {
		return nil, nil
	}
	c := *res
	return &c, nil
}

func (r reservaRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Reserva, error) {
	return r.GetByID(ctx, id)
}

func (r reservaRepo) MarcarLiberada(_ context.Context, id int64, usuario, motivo string, fecha time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	res, ok := r.s.st.reservas[id]
	if !ok {
		return domain.ErrNotFound
	}
	if res.Estado != entity.ReservaActiva {
		return domain.ErrReservaLiberada
	}
	c := *res
	c.Estado = entity.ReservaLiberada
	c.UsuarioLiberacion = usuario
	c.MotivoLiberacion = motivo
	c.FechaLiberacion = &fecha
	r.s.st.reservas[id] = &c
	return nil
}

func (r reservaRepo) list(match func(*entity.Reserva) bool, soloActivas bool) []*entity.Reserva {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Reserva
	for _, res := range r.s.st.reservas {
		if soloActivas && res.Estado != entity.ReservaActiva {
			continue
		}
		if match(res) {
			c := *res
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (r reservaRepo) ListByObra(_ context.Context, obraID int64, soloActivas bool) ([]*entity.Reserva, error) {
	return r.list(func(res *entity.Reserva) bool { return res.ObraID == obraID }, soloActivas), nil
}

func (r reservaRepo) ListByProducto(_ context.Context, productoID int64, soloActivas bool) ([]*entity.Reserva, error) {
	return r.list(func(res *entity.Reserva) bool { return res.ProductoID == productoID }, soloActivas), nil
}

func (r reservaRepo) ListActivasByPedido(_ context.Context, pedidoID int64) ([]*entity.Reserva, error) {
	out := r.list(func(res *entity.Reserva) bool { return res.PedidoID != nil && *res.PedidoID == pedidoID }, true)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// ── Productos ───────────────────────────────────────────────────────────────

type productoRepo struct{ s *Store }

func (r productoRepo) Create(_ context.Context, p *entity.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.st.productos {
		if e.Codigo == p.Codigo {
			return domain.ErrDuplicate
		}
	}
	p.ID = r.s.id()
	c := *p
	r.s.st.productos[p.ID] = &c
	return nil
}

func (r productoRepo) get(id int64) *entity.Producto {
	p, ok := r.s.st.productos[id]
	if !ok || !p.Activo {
		return nil
	}
	c := *p
	return &c
}

func (r productoRepo) GetByID(_ context.Context, id int64) (*entity.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.get(id), nil
}

func (r productoRepo) GetByCodigo(_ context.Context, codigo string) (*entity.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, p := range r.s.st.productos {
		if p.Codigo == codigo {
			c := *p
			return &c, nil
		}
	}
	return nil, nil
}

func (r productoRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Producto, error) {
	return r.GetByID(ctx, id)
}

func (r productoRepo) Update(_ context.Context, p *entity.Producto) error {
	return r.modify(p.ID, func(c *entity.Producto) bool {
		c.Descripcion = p.Descripcion
		c.Categoria = p.Categoria
		c.Unidad = p.Unidad
		c.StockMinimo = p.StockMinimo
		c.PrecioUnitario = p.PrecioUnitario
		c.UpdatedAt = p.UpdatedAt
		return true
	})
}

func (r productoRepo) activos(busqueda string) []*entity.Producto {
	var out []*entity.Producto
	for _, p := range r.s.st.productos {
		if !p.Activo {
			continue
		}
		if busqueda != "" && !textnorm.Contains(p.Codigo, busqueda) && !textnorm.Contains(p.Descripcion, busqueda) {
			continue
		}
		c := *p
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Codigo < out[j].Codigo })
	return out
}

func (r productoRepo) List(_ context.Context, busqueda string, limit, offset int) ([]*entity.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return page(r.activos(busqueda), limit, offset), nil
}

func (r productoRepo) ListActivos(_ context.Context) ([]*entity.Producto, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.activos(""), nil
}

func (r productoRepo) Desactivar(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := r.get(id)
	if c == nil {
		return domain.ErrNotFound
	}
	if c.StockReservado.IsPositive() {
		return domain.ErrConflict
	}
	c.Activo = false
	c.UpdatedAt = time.Now()
	r.s.st.productos[id] = c
	return nil
}

func (r productoRepo) modify(id int64, fn func(c *entity.Producto) bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.productos[id]
	if !ok {
		return domain.ErrNotFound
	}
	c := *p
	if fn(&c) {
		r.s.st.productos[id] = &c
	}
	return nil
}

// conditional aplica fn solo si devuelve true; nil si el producto no existe o la condición falla.
func (r productoRepo) conditional(id int64, fn func(c *entity.Producto) bool) *entity.Producto {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.st.productos[id]
	if !ok || !p.Activo {
		return nil
	}
	c := *p
	if !fn(&c) {
		return nil
	}
	c.UpdatedAt = time.Now()
	r.s.st.productos[id] = &c
	out := c
	return &out
}

func (r productoRepo) IncrementarReservado(_ context.Context, id int64, cantidad decimal.Decimal) (*entity.Producto, error) {
	return r.conditional(id, func(c *entity.Producto) bool {
		nuevo := c.StockReservado.Add(cantidad)
		if nuevo.GreaterThan(c.StockActual) {
			return false
		}
		c.StockReservado = nuevo
		return true
	}), nil
}

func (r productoRepo) DecrementarReservado(_ context.Context, id int64, cantidad decimal.Decimal) (*entity.Producto, error) {
	return r.conditional(id, func(c *entity.Producto) bool {
		if c.StockReservado.LessThan(cantidad) {
			return false
		}
		c.StockReservado = c.StockReservado.Sub(cantidad)
		return true
	}), nil
}

func (r productoRepo) AjustarStock(_ context.Context, id int64, delta decimal.Decimal, costoPromedio *decimal.Decimal) (*entity.Producto, error) {
	return r.conditional(id, func(c *entity.Producto) bool {
		nuevo := c.StockActual.Add(delta)
		if nuevo.LessThan(c.StockReservado) {
			return false
		}
		c.StockActual = nuevo
		if costoPromedio != nil {
			c.CostoPromedio = *costoPromedio
		}
		return true
	}), nil
}

// ── Movimientos ─────────────────────────────────────────────────────────────

type movimientoRepo struct{ s *Store }

func (r movimientoRepo) Create(_ context.Context, m *entity.MovimientoInventario) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = r.s.id()
	c := *m
	r.s.st.movimientos = append(r.s.st.movimientos, &c)
	return nil
}

func (r movimientoRepo) ListByProducto(_ context.Context, productoID int64, from, to *time.Time, limit, offset int) ([]*entity.MovimientoInventario, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.MovimientoInventario
	for _, m := range r.s.st.movimientos {
		if m.ProductoID != productoID {
			continue
		}
		if from != nil && m.Fecha.Before(*from) {
			continue
		}
		if to != nil && m.Fecha.After(*to) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, offset), nil
}

// ── Usuarios ────────────────────────────────────────────────────────────────

type userRepo struct{ s *Store }

func (r userRepo) Create(_ context.Context, u *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.st.users {
		if e.Usuario == u.Usuario {
			return domain.ErrUserAlreadyExists
		}
	}
	u.ID = r.s.id()
	c := *u
	r.s.st.users[u.ID] = &c
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.st.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (r userRepo) GetByUsuario(_ context.Context, usuario string) (*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.st.users {
		if u.Usuario == usuario {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

// SetUserStatus cambia el estado de un usuario existente.
func (s *Store) SetUserStatus(usuario, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.st.users {
		if u.Usuario == usuario {
			c := *u
			c.Status = status
			s.st.users[id] = &c
		}
	}
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
