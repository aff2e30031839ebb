package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Rexus-api/internal/application/dto"
	"github.com/jhoicas/Rexus-api/internal/domain/inventory"
	"github.com/jhoicas/Rexus-api/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición a partir del stock disponible.
type ReplenishmentUseCase struct {
	productos repository.ProductoRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(productos repository.ProductoRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{productos: productos}
}

// GenerateReplenishmentList devuelve los productos activos cuyo disponible está en o bajo el mínimo,
// con la cantidad sugerida para llegar a 1.5 × mínimo y su costo estimado.
// Orden: mayor déficit frente al mínimo primero; empate por código.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context) ([]dto.ReplenishmentSuggestionDTO, error) {
	productos, err := uc.productos.ListActivos(ctx)
	if err != nil {
		return nil, err
	}

	factor := decimal.NewFromFloat(1.5)
	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, p := range productos {
		disponible := p.Disponible()
		if p.StockMinimo.LessThanOrEqual(decimal.Zero) || disponible.GreaterThan(p.StockMinimo) {
			continue
		}
		ideal := p.StockMinimo.Mul(factor)
		sugerida := ideal.Sub(disponible)
		if sugerida.LessThan(decimal.Zero) {
			sugerida = decimal.Zero
		}
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			ProductoID:       p.ID,
			Codigo:           p.Codigo,
			Descripcion:      p.Descripcion,
			Disponible:       disponible,
			StockMinimo:      p.StockMinimo,
			StockIdeal:       ideal,
			CantidadSugerida: sugerida,
			CostoUnitario:    p.CostoPromedio,
			CostoEstimado:    sugerida.Mul(p.CostoPromedio).Round(2),
			Estado:           inventory.EstadoDisponibilidad(disponible, p.StockMinimo),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA := a.StockMinimo.Sub(a.Disponible)
		defB := b.StockMinimo.Sub(b.Disponible)
		if !defA.Equal(defB) {
			return defA.GreaterThan(defB)
		}
		return a.Codigo < b.Codigo
	})

	// 1 = más urgente
	for i := range suggestions {
		suggestions[i].Prioridad = i + 1
	}
	return suggestions, nil
}
