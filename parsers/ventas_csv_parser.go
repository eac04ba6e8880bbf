package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ParsedVentaCSVRecord es una línea válida del CSV de ventas del punto de
// venta. Los identificadores de receta y sucursal vienen crudos; el
// importador los resuelve contra el catálogo.
type ParsedVentaCSVRecord struct {
	Line        int
	Fecha       string
	RecetaID    int64
	Receta      string
	CodigoPoint string
	Sucursal    string
	Cantidad    decimal.Decimal
	Tickets     int
	MontoTotal  decimal.NullDecimal
}

// ParseIssue es una línea rechazada durante el parseo, con su motivo.
type ParseIssue struct {
	Line   int    `json:"line"`
	Motivo string `json:"motivo"`
}

// ParseVentasCSV parsea el CSV de ventas diarias. Las líneas inválidas se
// reportan como issues sin abortar el archivo; el encabezado inválido sí es
// error fatal.
func ParseVentasCSV(r io.Reader) ([]ParsedVentaCSVRecord, []ParseIssue, error) {
	reader := csv.NewReader(SkipBOM(r))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("el archivo CSV está vacío")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("no se pudo leer el encabezado del CSV: %w", err)
	}

	colIndex, err := getColIndex(header, []string{"fecha", "cantidad"})
	if err != nil {
		return nil, nil, err
	}
	hasIdentifier := false
	for _, col := range []string{"receta_id", "codigo_point", "receta"} {
		if _, ok := colIndex[col]; ok {
			hasIdentifier = true
			break
		}
	}
	if !hasIdentifier {
		return nil, nil, fmt.Errorf("el CSV necesita al menos una columna identificadora de receta (receta_id, codigo_point o receta)")
	}

	var records []ParsedVentaCSVRecord
	var issues []ParseIssue
	line := 1

	for {
		line++
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			issues = append(issues, ParseIssue{Line: line, Motivo: fmt.Sprintf("línea ilegible: %v", err)})
			continue
		}

		get := func(key string) string {
			if idx, ok := colIndex[key]; ok && idx < len(rec) {
				return strings.TrimSpace(rec[idx])
			}
			return ""
		}

		fecha := get("fecha")
		if _, err := time.Parse("2006-01-02", fecha); err != nil {
			issues = append(issues, ParseIssue{Line: line, Motivo: "fecha inválida (se espera AAAA-MM-DD): " + fecha})
			continue
		}

		cantidad, err := decimal.NewFromString(get("cantidad"))
		if err != nil {
			issues = append(issues, ParseIssue{Line: line, Motivo: "cantidad inválida: " + get("cantidad")})
			continue
		}
		if cantidad.IsNegative() {
			issues = append(issues, ParseIssue{Line: line, Motivo: "la cantidad no puede ser negativa"})
			continue
		}

		out := ParsedVentaCSVRecord{
			Line:        line,
			Fecha:       fecha,
			Receta:      get("receta"),
			CodigoPoint: get("codigo_point"),
			Sucursal:    get("sucursal"),
			Cantidad:    cantidad,
		}

		if raw := get("receta_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				issues = append(issues, ParseIssue{Line: line, Motivo: "receta_id inválido: " + raw})
				continue
			}
			out.RecetaID = id
		}
		if out.RecetaID == 0 && out.Receta == "" && out.CodigoPoint == "" {
			issues = append(issues, ParseIssue{Line: line, Motivo: "la línea no identifica la receta"})
			continue
		}

		if raw := get("tickets"); raw != "" {
			t, err := strconv.Atoi(raw)
			if err != nil || t < 0 {
				issues = append(issues, ParseIssue{Line: line, Motivo: "tickets inválido: " + raw})
				continue
			}
			out.Tickets = t
		}
		if raw := get("monto_total"); raw != "" {
			monto, err := decimal.NewFromString(raw)
			if err != nil {
				issues = append(issues, ParseIssue{Line: line, Motivo: "monto_total inválido: " + raw})
				continue
			}
			// monto no positivo equivale a no reportado
			if monto.IsPositive() {
				out.MontoTotal = decimal.NewNullDecimal(monto)
			}
		}

		records = append(records, out)
	}

	return records, issues, nil
}
