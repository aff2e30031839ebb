// Package pedido contiene las reglas puras del ciclo de vida de un pedido:
// tabla de transiciones, cálculo de totales y formato del número.
package pedido

import "github.com/jhoicas/Rexus-api/internal/domain/entity"

// transiciones es la única fuente de verdad de los cambios de estado permitidos.
// CANCELADO y FACTURADO son terminales.
var transiciones = map[string][]string{
	entity.EstadoBorrador:      {entity.EstadoPendiente, entity.EstadoCancelado},
	entity.EstadoPendiente:     {entity.EstadoAprobado, entity.EstadoCancelado},
	entity.EstadoAprobado:      {entity.EstadoEnPreparacion, entity.EstadoCancelado},
	entity.EstadoEnPreparacion: {entity.EstadoListoEntrega, entity.EstadoCancelado},
	entity.EstadoListoEntrega:  {entity.EstadoEnTransito, entity.EstadoEntregado},
	entity.EstadoEnTransito:    {entity.EstadoEntregado},
	entity.EstadoEntregado:     {entity.EstadoFacturado},
	entity.EstadoCancelado:     {},
	entity.EstadoFacturado:     {},
}

// EstadoInicial de todo pedido recién creado.
const EstadoInicial = entity.EstadoBorrador

// EsEstadoValido indica si estado pertenece a la máquina de estados.
func EsEstadoValido(estado string) bool {
	_, ok := transiciones[estado]
	return ok
}

// PuedeTransicionar indica si desde → hacia está en la tabla de transiciones.
func PuedeTransicionar(desde, hacia string) bool {
	for _, e := range transiciones[desde] {
		if e == hacia {
			return true
		}
	}
	return false
}

// TransicionesPermitidas devuelve una copia de los estados alcanzables desde estado.
func TransicionesPermitidas(estado string) []string {
	next := transiciones[estado]
	out := make([]string, len(next))
	copy(out, next)
	return out
}

// EsTerminal indica si el estado no admite más transiciones.
func EsTerminal(estado string) bool {
	next, ok := transiciones[estado]
	return ok && len(next) == 0
}

// EsEditable indica si las líneas y la cabecera del pedido pueden modificarse.
func EsEditable(estado string) bool {
	return estado == entity.EstadoBorrador || estado == entity.EstadoPendiente
}

// EsTipoValido valida el tipo de pedido.
func EsTipoValido(tipo string) bool {
	switch tipo {
	case entity.TipoPedidoMaterial, entity.TipoPedidoHerramienta, entity.TipoPedidoServicio,
		entity.TipoPedidoVidrio, entity.TipoPedidoHerraje, entity.TipoPedidoMixto:
		return true
	}
	return false
}

// EsPrioridadValida valida la prioridad del pedido.
func EsPrioridadValida(p string) bool {
	switch p {
	case entity.PrioridadBaja, entity.PrioridadNormal, entity.PrioridadAlta, entity.PrioridadUrgente:
		return true
	}
	return false
}
