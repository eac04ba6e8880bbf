package reconcile

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"panaderia/config"
	"panaderia/database"
	"panaderia/model"
)

var cien = decimal.NewFromInt(100)

// Compare contrasta un pronóstico recién generado contra las solicitudes de
// venta capturadas para el mismo periodo, alcance y sucursal. La comparación
// es transitoria; Apply es quien escribe. Una tolerancia nil toma el default
// de config; cero explícito exige coincidencia exacta.
func Compare(conn *sqlx.DB, result *model.ForecastResult, escenario string, toleranciaPct *decimal.Decimal) (*model.ReconcileResult, error) {
	if escenario == "" {
		escenario = model.EscenarioBase
	}
	if !model.ValidEscenario(escenario) {
		return nil, &model.InputError{Campo: "escenario", Motivo: "valor desconocido: " + escenario}
	}
	var tolerancia decimal.Decimal
	if toleranciaPct == nil {
		var err error
		tolerancia, err = decimal.NewFromString(config.GetConfig().ToleranciaPct)
		if err != nil {
			tolerancia = decimal.NewFromInt(10)
		}
	} else {
		tolerancia = *toleranciaPct
	}
	if tolerancia.IsNegative() {
		return nil, &model.InputError{Campo: "tolerancia", Motivo: "no puede ser negativa"}
	}

	solicitudes, err := database.ListSolicitudes(conn, result.Alcance, result.TargetStart, result.TargetEnd, result.SucursalID)
	if err != nil {
		return nil, &model.StoreError{Op: "leer solicitudes de venta", Err: err}
	}

	solicitudMap := make(map[int64]model.SolicitudVenta, len(solicitudes))
	for _, s := range solicitudes {
		solicitudMap[s.RecetaID] = s
	}

	forecastMap := make(map[int64]model.ForecastRow, len(result.Rows))
	for _, row := range result.Rows {
		forecastMap[row.RecetaID] = row
	}

	union := make(map[int64]struct{})
	for id := range forecastMap {
		union[id] = struct{}{}
	}
	for id := range solicitudMap {
		union[id] = struct{}{}
	}

	rec := &model.ReconcileResult{
		Alcance:       result.Alcance,
		Periodo:       result.Periodo,
		TargetStart:   result.TargetStart,
		TargetEnd:     result.TargetEnd,
		SucursalID:    result.SucursalID,
		Escenario:     escenario,
		ToleranciaPct: tolerancia,
	}

	var names map[int64]string
	for id := range union {
		fr, hasForecast := forecastMap[id]
		sol, hasSolicitud := solicitudMap[id]

		row := model.ReconcileRow{RecetaID: id, Receta: fr.Receta}
		if hasForecast {
			row.ForecastQty = fr.CantidadEscenario(escenario)
		}
		if hasSolicitud {
			row.SolicitudQty = sol.Cantidad
		}
		if row.Receta == "" {
			if names == nil {
				ids := make([]int64, 0, len(union))
				for uid := range union {
					ids = append(ids, uid)
				}
				names, err = database.GetRecetaNames(conn, ids)
				if err != nil {
					return nil, &model.StoreError{Op: "leer nombres de recetas", Err: err}
				}
			}
			row.Receta = names[id]
		}
		row.DeltaQty = row.ForecastQty.Sub(row.SolicitudQty)

		// un pronóstico de cero sin muestras equivale a no tener pronóstico
		conForecast := hasForecast && (fr.Muestras > 0 || row.ForecastQty.IsPositive())
		switch {
		case !conForecast:
			row.Status = model.StatusSinForecast
			rec.Totals.SinForecastCount++
		case !row.SolicitudQty.IsPositive():
			row.Status = model.StatusSinBase
			rec.Totals.SinBaseCount++
		default:
			pct := row.DeltaQty.Div(row.SolicitudQty).Mul(cien).Round(1)
			row.VariacionPct = &pct
			switch {
			case pct.GreaterThan(tolerancia):
				row.Status = model.StatusSobre
				rec.Totals.SobreCount++
			case pct.LessThan(tolerancia.Neg()):
				row.Status = model.StatusBajo
				rec.Totals.BajoCount++
			default:
				row.Status = model.StatusOK
				rec.Totals.OKCount++
			}
		}

		rec.Totals.ForecastTotal = rec.Totals.ForecastTotal.Add(row.ForecastQty)
		rec.Totals.SolicitudTotal = rec.Totals.SolicitudTotal.Add(row.SolicitudQty)
		rec.Rows = append(rec.Rows, row)
	}

	rec.Totals.DeltaTotal = rec.Totals.ForecastTotal.Sub(rec.Totals.SolicitudTotal)

	sort.Slice(rec.Rows, func(i, j int) bool {
		if !rec.Rows[i].DeltaQty.Abs().Equal(rec.Rows[j].DeltaQty.Abs()) {
			return rec.Rows[i].DeltaQty.Abs().GreaterThan(rec.Rows[j].DeltaQty.Abs())
		}
		if rec.Rows[i].Receta != rec.Rows[j].Receta {
			return rec.Rows[i].Receta < rec.Rows[j].Receta
		}
		return rec.Rows[i].RecetaID < rec.Rows[j].RecetaID
	})

	return rec, nil
}

// ApplyParams controla qué filas de la conciliación se escriben como
// solicitud de venta. MaxVariacionPct 0 desactiva el tope.
type ApplyParams struct {
	Modo            string
	RecetaID        int64
	MaxVariacionPct decimal.Decimal
	DryRun          bool
	Fuente          string
	StopOnError     bool
}

const fuenteAplicacion = "CONCILIACION"

// Apply escribe la cantidad pronosticada como solicitud de venta para las
// filas que el modo selecciona. Una corrida con DryRun produce los mismos
// contadores que la corrida real sin tocar el almacén.
func Apply(conn *sqlx.DB, rec *model.ReconcileResult, p ApplyParams) (*model.ApplySummary, error) {
	seleccion, err := selectRows(rec, p)
	if err != nil {
		return nil, err
	}

	fuente := p.Fuente
	if fuente == "" {
		fuente = fuenteAplicacion
	}

	summary := &model.ApplySummary{
		DryRun: p.DryRun,
		Modo:   p.Modo,
		Fuente: fuente,
	}

	// en seco se lee por el pool; en vivo por la transacción, para que el
	// conteo vea el mismo estado que la escritura
	var q sqlx.Queryer = conn
	var tx *sqlx.Tx
	if !p.DryRun {
		tx, err = conn.Beginx()
		if err != nil {
			return nil, &model.StoreError{Op: "abrir transacción", Err: err}
		}
		defer tx.Rollback()
		q = tx
	}
	ahora := time.Now().UTC().Format(time.RFC3339)

	for _, row := range seleccion {
		nueva := row.ForecastQty

		if p.MaxVariacionPct.IsPositive() && row.SolicitudQty.IsPositive() {
			variacion := nueva.Sub(row.SolicitudQty).Abs().Div(row.SolicitudQty).Mul(cien)
			if variacion.GreaterThan(p.MaxVariacionPct) {
				summary.SkippedCap++
				if p.StopOnError {
					return nil, &model.InputError{
						Campo:  "max-variacion",
						Motivo: fmt.Sprintf("receta %d excede el tope de variación (%s%%)", row.RecetaID, variacion.Round(1)),
					}
				}
				continue
			}
		}
		if !nueva.IsPositive() {
			summary.Skipped++
			continue
		}

		// creada contra actualizada se decide por la existencia del
		// registro: una solicitud capturada en cero sigue siendo registro
		action := model.ActionUpdated
		if _, err := database.FindSolicitud(q, row.RecetaID, rec.SucursalID, rec.Alcance, rec.TargetStart, rec.TargetEnd); err != nil {
			if !errors.Is(err, sql.ErrNoRows) {
				return nil, &model.StoreError{Op: "leer solicitud existente", Err: err}
			}
			action = model.ActionCreated
		}
		if !p.DryRun {
			err = database.UpsertSolicitudInTx(tx, model.SolicitudVenta{
				RecetaID:      row.RecetaID,
				SucursalID:    rec.SucursalID,
				Alcance:       rec.Alcance,
				Periodo:       rec.Periodo,
				FechaInicio:   rec.TargetStart,
				FechaFin:      rec.TargetEnd,
				Cantidad:      nueva,
				Fuente:        fuente,
				ActualizadoEn: ahora,
			})
			if err != nil {
				return nil, &model.StoreError{Op: "escribir solicitud de venta", Err: err}
			}
		}
		if action == model.ActionCreated {
			summary.Created++
		} else {
			summary.Updated++
		}
		summary.Rows = append(summary.Rows, model.ApplyRow{
			RecetaID:     row.RecetaID,
			Receta:       row.Receta,
			Anterior:     row.SolicitudQty,
			Nueva:        nueva,
			Action:       action,
			StatusBefore: row.Status,
		})
	}

	if !p.DryRun {
		if err := tx.Commit(); err != nil {
			return nil, &model.StoreError{Op: "confirmar transacción", Err: err}
		}
	}
	return summary, nil
}

// selectRows aplica el modo de selección sobre las filas conciliadas. Las
// filas SIN_FORECAST nunca se seleccionan: no hay cantidad que aplicar.
func selectRows(rec *model.ReconcileResult, p ApplyParams) ([]model.ReconcileRow, error) {
	var out []model.ReconcileRow
	for _, row := range rec.Rows {
		if row.Status == model.StatusSinForecast {
			continue
		}
		switch p.Modo {
		case model.ModoDesviadas:
			if row.Status == model.StatusSobre || row.Status == model.StatusBajo {
				out = append(out, row)
			}
		case model.ModoSobre:
			if row.Status == model.StatusSobre {
				out = append(out, row)
			}
		case model.ModoBajo:
			if row.Status == model.StatusBajo {
				out = append(out, row)
			}
		case model.ModoTodas:
			out = append(out, row)
		case model.ModoReceta:
			if p.RecetaID <= 0 {
				return nil, &model.InputError{Campo: "receta", Motivo: "el modo receta requiere un id de receta"}
			}
			if row.RecetaID == p.RecetaID {
				out = append(out, row)
			}
		default:
			return nil, &model.InputError{Campo: "modo", Motivo: "valor desconocido: " + p.Modo}
		}
	}
	if len(out) == 0 {
		return nil, &model.InputError{Campo: "modo", Motivo: "ninguna fila coincide con la selección"}
	}
	return out, nil
}
