package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"panaderia/catalog"
	"panaderia/config"
	"panaderia/history"
	"panaderia/model"
)

// GenerateParams son los parámetros de una corrida de pronóstico.
// SafetyPct puede ser negativo; la banda resultante siempre se normaliza
// para que low <= base <= high. Lookback 0 toma el default de config
// (meses para "mes", semanas para los demás alcances).
type GenerateParams struct {
	Alcance              string
	Periodo              string
	FechaBase            time.Time
	SucursalID           int64
	IncluirPreparaciones bool
	SafetyPct            decimal.Decimal
	Lookback             int
}

var cien = decimal.NewFromInt(100)

// Generate deriva el pronóstico estadístico por receta a partir del
// historial: base = promedio de los totales por periodo observados en la
// ventana de lookback, banda = +-safety_pct, confianza por muestras y
// dispersión. Las recetas sin muestras se emiten con cantidad y confianza
// cero; solo se aborta si el alcance completo no tiene historial.
func Generate(conn *sqlx.DB, p GenerateParams) (*model.ForecastResult, error) {
	target, periodo, err := history.ResolveTargetWindow(p.Alcance, p.Periodo, p.FechaBase)
	if err != nil {
		return nil, err
	}

	sucursalNombre := "Todas"
	if p.SucursalID > 0 {
		sucursal, err := catalog.ResolveSucursal(conn, catalog.SucursalRef{ID: p.SucursalID})
		if err != nil {
			return nil, err
		}
		sucursalNombre = fmt.Sprintf("%s - %s", sucursal.Codigo, sucursal.Nombre)
	}

	lookback := p.Lookback
	if lookback <= 0 {
		cfg := config.GetConfig()
		if p.Alcance == model.AlcanceMes {
			lookback = cfg.LookbackMonths
		} else {
			lookback = cfg.LookbackWeeks
		}
	}

	histories, windows, err := history.Collect(conn, history.CollectParams{
		Alcance:              p.Alcance,
		TargetStart:          target.Start,
		SucursalID:           p.SucursalID,
		IncluirPreparaciones: p.IncluirPreparaciones,
		Lookback:             lookback,
	})
	if err != nil {
		return nil, err
	}

	result := &model.ForecastResult{
		Alcance:        p.Alcance,
		Periodo:        periodo,
		TargetStart:    target.StartISO(),
		TargetEnd:      target.EndISO(),
		SucursalID:     p.SucursalID,
		SucursalNombre: sucursalNombre,
		SafetyPct:      p.SafetyPct,
	}

	conMuestras := 0
	for _, h := range histories {
		row := buildRow(h, p.SafetyPct, len(windows))
		if row.Muestras > 0 {
			conMuestras++
		}
		result.Rows = append(result.Rows, row)
		result.Totals.ForecastTotal = result.Totals.ForecastTotal.Add(row.ForecastQty)
		result.Totals.LowTotal = result.Totals.LowTotal.Add(row.ForecastLow)
		result.Totals.HighTotal = result.Totals.HighTotal.Add(row.ForecastHigh)
	}
	if conMuestras == 0 {
		return nil, model.ErrNoData
	}

	sort.Slice(result.Rows, func(i, j int) bool {
		a, b := result.Rows[i], result.Rows[j]
		if !a.ForecastQty.Equal(b.ForecastQty) {
			return a.ForecastQty.GreaterThan(b.ForecastQty)
		}
		if a.Receta != b.Receta {
			return a.Receta < b.Receta
		}
		return a.RecetaID < b.RecetaID
	})
	return result, nil
}

func buildRow(h *history.RecetaHistory, safetyPct decimal.Decimal, ventanas int) model.ForecastRow {
	row := model.ForecastRow{
		RecetaID: h.Receta.ID,
		Receta:   h.Receta.Nombre,
	}
	n := len(h.Samples)
	row.Muestras = n
	if n == 0 {
		row.Recomendacion = "sin historial"
		row.Observaciones = "sin ventas registradas en la ventana de lookback"
		return row
	}

	total := decimal.Zero
	for _, s := range h.Samples {
		total = total.Add(s)
	}
	qty := total.Div(decimal.NewFromInt(int64(n)))

	low := qty.Mul(decimal.NewFromInt(1).Sub(safetyPct.Div(cien)))
	high := qty.Mul(decimal.NewFromInt(1).Add(safetyPct.Div(cien)))
	if low.GreaterThan(high) {
		low, high = high, low
	}
	if low.IsNegative() {
		low = decimal.Zero
	}

	std, cv := dispersion(h.Samples, qty)

	row.ForecastQty = qty
	row.ForecastLow = low
	row.ForecastHigh = high
	row.Desviacion = decimal.NewFromFloat(std).Round(3)
	row.Confianza = confianza(n, cv)
	row.Recomendacion = recomendacion(row.Confianza)
	row.Observaciones = fmt.Sprintf("%d de %d periodos con venta", n, ventanas)
	return row
}

// dispersion regresa la desviación estándar poblacional de las muestras y
// su coeficiente de variación. Se calcula en float64: alimenta solo el
// puntaje de confianza y la recomendación, nunca una cantidad; sigue
// siendo determinista para entradas idénticas.
func dispersion(samples []decimal.Decimal, mean decimal.Decimal) (float64, float64) {
	n := float64(len(samples))
	m, _ := mean.Float64()
	var sum float64
	for _, s := range samples {
		v, _ := s.Float64()
		d := v - m
		sum += d * d
	}
	std := math.Sqrt(sum / n)
	if m <= 0 {
		return std, 0
	}
	return std, std / m
}

// confianza combina profundidad de muestra (hasta 70 puntos con 6 o más
// periodos) y estabilidad (hasta 30 puntos con dispersión cero). Crece con
// las muestras y decrece con el coeficiente de variación.
func confianza(muestras int, cv float64) int {
	if muestras <= 0 {
		return 0
	}
	depth := math.Min(float64(muestras), 6) / 6 * 70
	stability := 30 / (1 + cv)
	score := int(math.Round(depth + stability))
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}

func recomendacion(confianza int) string {
	switch {
	case confianza >= 75:
		return "alta confianza"
	case confianza >= 50:
		return "confianza media"
	default:
		return "revisar: pocas muestras o alta variabilidad"
	}
}
