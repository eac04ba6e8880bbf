package seasonality

import (
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"panaderia/config"
	"panaderia/database"
	"panaderia/model"
)

// AnalyzeParams define la ventana multi-mes del análisis de estacionalidad.
// Meses 0 toma el default de config (12). Top 0 usa 10.
type AnalyzeParams struct {
	Meses                int
	FechaBase            time.Time
	SucursalID           int64
	RecetaID             int64
	IncluirPreparaciones bool
	Top                  int
}

var cien = decimal.NewFromInt(100)

// Analyze calcula índices de demanda por mes calendario y día de la semana
// relativos al promedio diario global (100 = promedio), más el ranking de
// recetas por volumen. Salida informativa: no alimenta el pronóstico.
func Analyze(conn *sqlx.DB, p AnalyzeParams) (*model.SeasonalityInsights, error) {
	meses := p.Meses
	if meses <= 0 {
		meses = config.GetConfig().SeasonalityMonths
	}
	top := p.Top
	if top <= 0 {
		top = 10
	}

	hasta := time.Date(p.FechaBase.Year(), p.FechaBase.Month(), p.FechaBase.Day(), 0, 0, 0, 0, time.UTC)
	desde := hasta.AddDate(0, -meses, 0)

	diarias, err := database.FetchVentasDiarias(conn, model.VentasFilter{
		Desde:                desde.Format("2006-01-02"),
		Hasta:                hasta.Format("2006-01-02"),
		SucursalID:           p.SucursalID,
		RecetaID:             p.RecetaID,
		IncluirPreparaciones: p.IncluirPreparaciones,
	})
	if err != nil {
		return nil, &model.StoreError{Op: "leer historial de ventas", Err: err}
	}
	if len(diarias) == 0 {
		return nil, model.ErrNoData
	}

	// total vendido por día observado
	dayTotals := make(map[string]decimal.Decimal)
	type recetaAgg struct {
		total decimal.Decimal
		dias  int
	}
	porReceta := make(map[int64]*recetaAgg)
	for _, v := range diarias {
		dayTotals[v.Fecha] = dayTotals[v.Fecha].Add(v.Cantidad)
		agg, ok := porReceta[v.RecetaID]
		if !ok {
			agg = &recetaAgg{}
			porReceta[v.RecetaID] = agg
		}
		agg.total = agg.total.Add(v.Cantidad)
		agg.dias++
	}

	grandTotal := decimal.Zero
	var mesTotal [13]decimal.Decimal
	var mesDias [13]int
	var wdTotal [7]decimal.Decimal
	var wdDias [7]int
	for fecha, total := range dayTotals {
		t, err := time.Parse("2006-01-02", fecha)
		if err != nil {
			continue
		}
		grandTotal = grandTotal.Add(total)
		m := int(t.Month())
		mesTotal[m] = mesTotal[m].Add(total)
		mesDias[m]++
		wd := (int(t.Weekday()) + 6) % 7 // lunes = 0
		wdTotal[wd] = wdTotal[wd].Add(total)
		wdDias[wd]++
	}

	diasObservados := len(dayTotals)
	globalPromedio := decimal.Zero
	if diasObservados > 0 {
		globalPromedio = grandTotal.Div(decimal.NewFromInt(int64(diasObservados)))
	}

	insights := &model.SeasonalityInsights{
		Desde:                desde.Format("2006-01-02"),
		Hasta:                hasta.Format("2006-01-02"),
		SucursalID:           p.SucursalID,
		DiasObservados:       diasObservados,
		GlobalPromedioDiario: globalPromedio.Round(3),
	}

	for m := 1; m <= 12; m++ {
		idx := model.MesIndex{Mes: m, Dias: mesDias[m]}
		if mesDias[m] > 0 {
			idx.PromedioDiario = mesTotal[m].Div(decimal.NewFromInt(int64(mesDias[m]))).Round(3)
			idx.IndexPct = indexPct(idx.PromedioDiario, globalPromedio)
		}
		insights.Meses = append(insights.Meses, idx)
	}
	for d := 0; d < 7; d++ {
		idx := model.DiaSemanaIndex{Dia: d, Dias: wdDias[d]}
		if wdDias[d] > 0 {
			idx.PromedioDiario = wdTotal[d].Div(decimal.NewFromInt(int64(wdDias[d]))).Round(3)
			idx.IndexPct = indexPct(idx.PromedioDiario, globalPromedio)
		}
		insights.DiasSemana = append(insights.DiasSemana, idx)
	}

	ids := make([]int64, 0, len(porReceta))
	for id := range porReceta {
		ids = append(ids, id)
	}
	names, err := database.GetRecetaNames(conn, ids)
	if err != nil {
		return nil, &model.StoreError{Op: "leer nombres de recetas", Err: err}
	}

	ranking := make([]model.RecetaRank, 0, len(porReceta))
	for id, agg := range porReceta {
		rank := model.RecetaRank{
			RecetaID:      id,
			Receta:        names[id],
			TotalCantidad: agg.total,
			DiasActivos:   agg.dias,
		}
		if agg.dias > 0 {
			rank.PromedioPorDiaActivo = agg.total.Div(decimal.NewFromInt(int64(agg.dias))).Round(3)
		}
		if grandTotal.IsPositive() {
			rank.SharePct = agg.total.Div(grandTotal).Mul(cien).Round(1)
		}
		ranking = append(ranking, rank)
	}
	sort.Slice(ranking, func(i, j int) bool {
		if !ranking[i].TotalCantidad.Equal(ranking[j].TotalCantidad) {
			return ranking[i].TotalCantidad.GreaterThan(ranking[j].TotalCantidad)
		}
		return ranking[i].RecetaID < ranking[j].RecetaID
	})
	if len(ranking) > top {
		ranking = ranking[:top]
	}
	insights.TopRecetas = ranking

	return insights, nil
}

// indexPct expresa el promedio del bucket relativo al global; 100 cuando
// no hay promedio global.
func indexPct(bucket, global decimal.Decimal) decimal.Decimal {
	if !global.IsPositive() {
		return cien
	}
	return bucket.Div(global).Mul(cien).Round(1)
}
