package pedido

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const prefijoNumero = "PED"

// FormatNumero devuelve PED-<año 4 dígitos>-<secuencia 5 dígitos>, p.ej. PED-2025-00001.
func FormatNumero(anio, secuencia int) string {
	return fmt.Sprintf("%s-%04d-%05d", prefijoNumero, anio, secuencia)
}

// NumeroFallback genera un número único cuando la secuencia del año no está disponible.
// El sufijo no es numérico, así que nunca entra en el cálculo del máximo de la secuencia.
func NumeroFallback(anio int) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
	return fmt.Sprintf("%s-%04d-%s", prefijoNumero, anio, id[:8])
}

// ParseSecuencia extrae año y secuencia de un número con formato estándar.
// ok = false para números de fallback o mal formados.
func ParseSecuencia(numero string) (anio, secuencia int, ok bool) {
	parts := strings.Split(numero, "-")
	if len(parts) != 3 || parts[0] != prefijoNumero || len(parts[1]) != 4 || len(parts[2]) != 5 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	s, err := strconv.Atoi(parts[2])
	if err != nil || s < 0 {
		return 0, 0, false
	}
	return a, s, true
}

// SiguienteSecuencia calcula max(sufijos del año) + 1 a partir de números existentes.
func SiguienteSecuencia(anio int, existentes []string) int {
	ultimo := 0
	for _, n := range existentes {
		a, s, ok := ParseSecuencia(n)
		if ok && a == anio && s > ultimo {
			ultimo = s
		}
	}
	return ultimo + 1
}
