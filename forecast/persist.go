package forecast

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"panaderia/database"
	"panaderia/model"
)

const fuenteDefault = "FORECAST_STAT"

// Persist escribe las cantidades del escenario elegido al almacén durable
// de pronósticos, por (receta, periodo), en una sola transacción. Filas
// con cantidad no positiva se omiten como skipped_invalid; registros ya
// existentes se omiten como skipped_existing salvo replaceExisting.
func Persist(conn *sqlx.DB, result *model.ForecastResult, escenario, fuente string, replaceExisting bool) (*model.PersistSummary, error) {
	if !model.ValidEscenario(escenario) {
		return nil, &model.InputError{Campo: "escenario", Motivo: fmt.Sprintf("%q no es base, low ni high", escenario)}
	}
	fuente = strings.TrimSpace(fuente)
	if fuente == "" {
		fuente = fuenteDefault
	}
	if len(fuente) > 40 {
		fuente = fuente[:40]
	}

	summary := &model.PersistSummary{
		Periodo:   result.Periodo,
		Escenario: escenario,
		Fuente:    fuente,
	}
	ahora := time.Now().UTC().Format(time.RFC3339)

	tx, err := conn.Beginx()
	if err != nil {
		return nil, &model.StoreError{Op: "iniciar transacción de pronósticos", Err: err}
	}
	defer tx.Rollback()

	for _, row := range result.Rows {
		qty := row.CantidadEscenario(escenario)
		if !qty.IsPositive() {
			summary.SkippedInvalid++
			continue
		}

		existing, err := database.FindPronostico(tx, row.RecetaID, result.Periodo)
		switch {
		case err == nil:
			if !replaceExisting {
				summary.SkippedExisting++
				continue
			}
			if err := database.UpsertPronosticoInTx(tx, model.PronosticoVenta{
				RecetaID:      row.RecetaID,
				Periodo:       result.Periodo,
				Cantidad:      qty,
				Fuente:        fuente,
				ActualizadoEn: ahora,
			}); err != nil {
				return nil, &model.StoreError{Op: "actualizar pronóstico", Err: err}
			}
			summary.Updated++
			summary.Rows = append(summary.Rows, model.PersistRow{
				RecetaID: row.RecetaID,
				Receta:   row.Receta,
				Periodo:  result.Periodo,
				Anterior: existing.Cantidad,
				Nueva:    qty,
				Action:   model.ActionUpdated,
			})

		case errors.Is(err, sql.ErrNoRows):
			if err := database.UpsertPronosticoInTx(tx, model.PronosticoVenta{
				RecetaID:      row.RecetaID,
				Periodo:       result.Periodo,
				Cantidad:      qty,
				Fuente:        fuente,
				ActualizadoEn: ahora,
			}); err != nil {
				return nil, &model.StoreError{Op: "crear pronóstico", Err: err}
			}
			summary.Created++
			summary.Rows = append(summary.Rows, model.PersistRow{
				RecetaID: row.RecetaID,
				Receta:   row.Receta,
				Periodo:  result.Periodo,
				Nueva:    qty,
				Action:   model.ActionCreated,
			})

		default:
			return nil, &model.StoreError{Op: "consultar pronóstico existente", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, &model.StoreError{Op: "confirmar transacción de pronósticos", Err: err}
	}
	return summary, nil
}
