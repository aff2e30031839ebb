package inventory

import "github.com/shopspring/decimal"

// CostoPromedioPonderado recalcula el costo promedio de un producto tras una ENTRADA.
// Nuevo = ((StockActual * CostoActual) + (CantEntrada * CostoEntrada)) / (StockActual + CantEntrada)
// Con stock resultante <= 0 se conserva el costo de la entrada.
func CostoPromedioPonderado(stockActual, costoActual, cantEntrada, costoEntrada decimal.Decimal) decimal.Decimal {
	sum := stockActual.Add(cantEntrada)
	if sum.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	if stockActual.LessThanOrEqual(decimal.Zero) {
		return costoEntrada
	}
	num := stockActual.Mul(costoActual).Add(cantEntrada.Mul(costoEntrada))
	return num.DivRound(sum, 4)
}
