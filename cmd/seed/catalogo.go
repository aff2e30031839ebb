package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// filaCatalogo una línea del CSV de catálogo.
// Columnas: codigo;descripcion;categoria;unidad;stock_minimo;precio_unitario;stock_inicial;costo_unitario
type filaCatalogo struct {
	Codigo         string
	Descripcion    string
	Categoria      string
	Unidad         string
	StockMinimo    decimal.Decimal
	PrecioUnitario decimal.Decimal
	StockInicial   decimal.Decimal
	CostoUnitario  decimal.Decimal
}

const columnasCatalogo = 8

// leerCatalogo decodifica un CSV separado por ';'. Con latin1 el archivo se lee como
// ISO-8859-1 (exportación típica de Excel en español). La primera fila es encabezado.
func leerCatalogo(r io.Reader, latin1 bool) ([]filaCatalogo, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	var filas []filaCatalogo
	for linea := 1; ; linea++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", linea, err)
		}
		if linea == 1 || vacia(rec) {
			continue
		}
		if len(rec) < columnasCatalogo {
			return nil, fmt.Errorf("línea %d: se esperaban %d columnas, hay %d", linea, columnasCatalogo, len(rec))
		}
		f := filaCatalogo{
			Codigo:      strings.TrimSpace(rec[0]),
			Descripcion: strings.TrimSpace(rec[1]),
			Categoria:   strings.TrimSpace(rec[2]),
			Unidad:      strings.TrimSpace(rec[3]),
		}
		if f.Codigo == "" || f.Descripcion == "" {
			return nil, fmt.Errorf("línea %d: codigo y descripcion son obligatorios", linea)
		}
		nums := []*decimal.Decimal{&f.StockMinimo, &f.PrecioUnitario, &f.StockInicial, &f.CostoUnitario}
		for i, dst := range nums {
			v, err := parseNumero(rec[4+i])
			if err != nil {
				return nil, fmt.Errorf("línea %d, columna %d: %w", linea, 5+i, err)
			}
			*dst = v
		}
		filas = append(filas, f)
	}
	return filas, nil
}

// parseNumero acepta "1234.5", "1234,5" y "1.234,50". Vacío es cero.
func parseNumero(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	return decimal.NewFromString(s)
}

func vacia(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
