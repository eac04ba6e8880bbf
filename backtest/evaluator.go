package backtest

import (
	"errors"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"panaderia/database"
	"panaderia/forecast"
	"panaderia/history"
	"panaderia/model"
)

// Params controla cuántas ventanas previas se evalúan y con qué escenario
// se compara el pronóstico contra la venta real. Periods 0 usa 3, Top 0 usa 10.
type Params struct {
	Alcance              string
	FechaBase            time.Time
	Periods              int
	Escenario            string
	SucursalID           int64
	IncluirPreparaciones bool
	SafetyPct            decimal.Decimal
	MinConfianza         int
	Top                  int
}

var cien = decimal.NewFromInt(100)

// Run reconstruye el pronóstico que se habría emitido para cada ventana
// previa usando solo el historial anterior a ella, y lo compara contra la
// venta real de la ventana. Las ventanas sin pronóstico ni venta real se
// omiten; si ninguna ventana pudo evaluarse regresa ErrInsufficientHistory.
func Run(conn *sqlx.DB, p Params) (*model.BacktestSummary, error) {
	if !model.ValidAlcance(p.Alcance) {
		return nil, &model.InputError{Campo: "alcance", Motivo: "valor desconocido: " + p.Alcance}
	}
	escenario := p.Escenario
	if escenario == "" {
		escenario = model.EscenarioBase
	}
	if !model.ValidEscenario(escenario) {
		return nil, &model.InputError{Campo: "escenario", Motivo: "valor desconocido: " + escenario}
	}
	periods := p.Periods
	if periods <= 0 {
		periods = 3
	}
	top := p.Top
	if top <= 0 {
		top = 10
	}

	windows, err := history.PriorWindows(p.Alcance, p.FechaBase, periods)
	if err != nil {
		return nil, err
	}

	summary := &model.BacktestSummary{
		Alcance:    p.Alcance,
		FechaBase:  p.FechaBase.Format("2006-01-02"),
		Periods:    periods,
		Escenario:  escenario,
		SucursalID: p.SucursalID,
	}

	var sumAbsError decimal.Decimal
	var pctSumGlobal decimal.Decimal
	var pctRowsGlobal int

	for _, win := range windows {
		// pronóstico retrospectivo: solo ve historial anterior a la ventana
		result, err := forecast.Generate(conn, forecast.GenerateParams{
			Alcance:              p.Alcance,
			FechaBase:            win.Start,
			SucursalID:           p.SucursalID,
			IncluirPreparaciones: p.IncluirPreparaciones,
			SafetyPct:            p.SafetyPct,
		})
		forecastMap := make(map[int64]model.ForecastRow)
		switch {
		case err == nil:
			if p.MinConfianza > 0 {
				result, _ = forecast.FilterByConfidence(result, p.MinConfianza)
			}
			if summary.SucursalNombre == "" {
				summary.SucursalNombre = result.SucursalNombre
			}
			for _, row := range result.Rows {
				if row.Muestras > 0 {
					forecastMap[row.RecetaID] = row
				}
			}
		case errors.Is(err, model.ErrNoData):
			// sin historial previo a esta ventana; aún puede haber venta real
		default:
			return nil, err
		}

		actuales, err := database.SumVentasByReceta(conn, model.VentasFilter{
			Desde:                win.StartISO(),
			Hasta:                win.EndISO(),
			SucursalID:           p.SucursalID,
			IncluirPreparaciones: p.IncluirPreparaciones,
		})
		if err != nil {
			return nil, &model.StoreError{Op: "leer ventas reales", Err: err}
		}

		union := make(map[int64]struct{})
		for id := range forecastMap {
			union[id] = struct{}{}
		}
		for id := range actuales {
			union[id] = struct{}{}
		}
		if len(union) == 0 {
			continue
		}

		ids := make([]int64, 0, len(union))
		for id := range union {
			ids = append(ids, id)
		}
		names, err := database.GetRecetaNames(conn, ids)
		if err != nil {
			return nil, &model.StoreError{Op: "leer nombres de recetas", Err: err}
		}

		wr := model.BacktestWindow{
			WindowStart:  win.StartISO(),
			WindowEnd:    win.EndISO(),
			Periodo:      history.PeriodoLabel(win.Start),
			RecetasCount: len(union),
		}

		var windowAbs decimal.Decimal
		var pctSum decimal.Decimal
		pctRows := 0
		rows := make([]model.BacktestRow, 0, len(union))
		for id := range union {
			fr, hasForecast := forecastMap[id]
			actual := actuales[id]

			row := model.BacktestRow{
				RecetaID:  id,
				ActualQty: actual,
			}
			if hasForecast {
				row.ForecastQty = fr.CantidadEscenario(escenario)
				row.Receta = fr.Receta
			}
			if row.Receta == "" {
				row.Receta = names[id]
			}
			row.DeltaQty = row.ForecastQty.Sub(actual)
			row.AbsError = row.DeltaQty.Abs()

			if actual.IsPositive() {
				pct := row.DeltaQty.Div(actual).Mul(cien).Round(1)
				row.VariacionPct = &pct
				pctSum = pctSum.Add(pct.Abs())
				pctRows++
				switch {
				case pct.GreaterThan(decimal.NewFromInt(10)):
					row.Status = model.StatusSobre
				case pct.LessThan(decimal.NewFromInt(-10)):
					row.Status = model.StatusBajo
				default:
					row.Status = model.StatusOK
				}
			} else {
				row.Status = model.StatusSinBase
			}

			wr.ForecastTotal = wr.ForecastTotal.Add(row.ForecastQty)
			wr.ActualTotal = wr.ActualTotal.Add(actual)
			windowAbs = windowAbs.Add(row.AbsError)
			rows = append(rows, row)
		}

		wr.BiasTotal = wr.ForecastTotal.Sub(wr.ActualTotal)
		wr.MAE = windowAbs.Div(decimal.NewFromInt(int64(len(union)))).Round(3)
		if pctRows > 0 {
			mape := pctSum.Div(decimal.NewFromInt(int64(pctRows))).Round(1)
			wr.MAPE = &mape
			pctSumGlobal = pctSumGlobal.Add(pctSum)
			pctRowsGlobal += pctRows
		}

		sort.Slice(rows, func(i, j int) bool {
			if !rows[i].AbsError.Equal(rows[j].AbsError) {
				return rows[i].AbsError.GreaterThan(rows[j].AbsError)
			}
			return rows[i].RecetaID < rows[j].RecetaID
		})
		if len(rows) > top {
			rows = rows[:top]
		}
		wr.TopErrors = rows

		sumAbsError = sumAbsError.Add(windowAbs)
		summary.Totals.ForecastTotal = summary.Totals.ForecastTotal.Add(wr.ForecastTotal)
		summary.Totals.ActualTotal = summary.Totals.ActualTotal.Add(wr.ActualTotal)
		summary.Windows = append(summary.Windows, wr)
	}

	if len(summary.Windows) == 0 {
		return nil, model.ErrInsufficientHistory
	}

	summary.Totals.WindowsEvaluated = len(summary.Windows)
	summary.Totals.BiasTotal = summary.Totals.ForecastTotal.Sub(summary.Totals.ActualTotal)
	summary.Totals.MAEPromedio = sumAbsError.Div(decimal.NewFromInt(int64(len(summary.Windows)))).Round(3)
	if pctRowsGlobal > 0 {
		avg := pctSumGlobal.Div(decimal.NewFromInt(int64(pctRowsGlobal))).Round(1)
		summary.Totals.MAPEPromedio = &avg
	}

	return summary, nil
}
