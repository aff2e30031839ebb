package inventory_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Rexus-api/internal/domain/inventory"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestEstadoDisponibilidad(t *testing.T) {
	tests := []struct {
		disponible, minimo string
		want               string
	}{
		{"0", "10", inventory.DisponibilidadAgotado},
		{"-1", "0", inventory.DisponibilidadAgotado},
		{"0", "0", inventory.DisponibilidadAgotado},
		{"10", "10", inventory.DisponibilidadBajo},
		{"3", "10", inventory.DisponibilidadBajo},
		{"85", "10", inventory.DisponibilidadNormal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inventory.EstadoDisponibilidad(d(tt.disponible), d(tt.minimo)),
			"disponible=%s minimo=%s", tt.disponible, tt.minimo)
	}
}

func TestEstadoStock(t *testing.T) {
	assert.Equal(t, inventory.StockAgotado, inventory.EstadoStock(d("0"), d("10")))
	assert.Equal(t, inventory.StockCritico, inventory.EstadoStock(d("5"), d("10")))
	assert.Equal(t, inventory.StockBajo, inventory.EstadoStock(d("8"), d("10")))
	assert.Equal(t, inventory.StockOK, inventory.EstadoStock(d("11"), d("10")))
}

func TestCostoPromedioPonderado(t *testing.T) {
	// (10*100 + 10*200) / 20 = 150
	assert.True(t, d("150").Equal(inventory.CostoPromedioPonderado(d("10"), d("100"), d("10"), d("200"))))
	// sin stock previo se toma el costo de la entrada
	assert.True(t, d("37.5").Equal(inventory.CostoPromedioPonderado(d("0"), d("0"), d("4"), d("37.5"))))
}
