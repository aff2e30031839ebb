package repository

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Pedidos     PedidoRepository
	Reservas    ReservaRepository
	Productos   ProductoRepository
	Movimientos MovimientoRepository
}
