package importer

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"panaderia/catalog"
	"panaderia/database"
	"panaderia/model"
	"panaderia/parsers"
)

// Params controla una corrida de importación de ventas.
type Params struct {
	// Accumulate suma la cantidad al registro existente del día en vez de
	// reemplazarlo.
	Accumulate  bool
	DryRun      bool
	StopOnError bool
	Fuente      string
}

// RowError es una línea que no pudo importarse.
type RowError struct {
	Line   int    `json:"line"`
	Motivo string `json:"motivo"`
}

// Report resume una corrida de importación. Con DryRun los contadores son
// los de la corrida real sin escribir nada.
type Report struct {
	DryRun          bool       `json:"dryRun"`
	Leidas          int        `json:"leidas"`
	Creadas         int        `json:"creadas"`
	Actualizadas    int        `json:"actualizadas"`
	Omitidas        int        `json:"omitidas"`
	Errores         []RowError `json:"errores"`
	TerminatedEarly bool       `json:"terminatedEarly"`
}

const fuenteDefault = "IMPORT_CSV"

// ImportVentasCSV importa el CSV de ventas diarias del punto de venta. Las
// recetas y sucursales se resuelven contra el catálogo; las líneas que no
// resuelven se acumulan en el reporte (o abortan con StopOnError). Toda la
// resolución ocurre antes de abrir la transacción, para que la escritura no
// mezcle lecturas del pool con la conexión de la transacción; la escritura
// completa va en una sola transacción.
func ImportVentasCSV(conn *sqlx.DB, r io.Reader, p Params) (*Report, error) {
	records, issues, err := parsers.ParseVentasCSV(r)
	if err != nil {
		return nil, err
	}

	fuente := p.Fuente
	if fuente == "" {
		fuente = fuenteDefault
	}

	report := &Report{DryRun: p.DryRun, Leidas: len(records) + len(issues)}
	for _, iss := range issues {
		report.Errores = append(report.Errores, RowError{Line: iss.Line, Motivo: iss.Motivo})
	}
	if p.StopOnError && len(issues) > 0 {
		report.TerminatedEarly = true
		return report, fmt.Errorf("línea %d: %s", issues[0].Line, issues[0].Motivo)
	}

	// los catálogos son chicos; un caché por corrida evita re-resolver
	recetaCache := make(map[string]model.Receta)
	sucursalCache := make(map[string]model.Sucursal)
	ahora := time.Now().UTC().Format(time.RFC3339)

	ventas := make([]model.VentaHistorica, 0, len(records))
	for _, rec := range records {
		receta, err := resolveRecetaCached(conn, recetaCache, rec)
		if err != nil {
			if fail := reportRowError(report, rec.Line, err, p.StopOnError); fail != nil {
				return report, fail
			}
			continue
		}

		var sucursalID int64
		if rec.Sucursal != "" {
			sucursal, err := resolveSucursalCached(conn, sucursalCache, rec.Sucursal)
			if err != nil {
				if fail := reportRowError(report, rec.Line, err, p.StopOnError); fail != nil {
					return report, fail
				}
				continue
			}
			sucursalID = sucursal.ID
		}

		ventas = append(ventas, model.VentaHistorica{
			RecetaID:      receta.ID,
			SucursalID:    sucursalID,
			Fecha:         rec.Fecha,
			Cantidad:      rec.Cantidad,
			Tickets:       rec.Tickets,
			MontoTotal:    rec.MontoTotal,
			Fuente:        fuente,
			ActualizadoEn: ahora,
		})
	}

	if p.DryRun {
		// en seco no hay transacción; los contadores se deciden contra el
		// estado actual del almacén con la misma comparación que la
		// corrida real
		for _, venta := range ventas {
			existing, err := findVenta(conn, venta.RecetaID, venta.SucursalID, venta.Fecha)
			switch {
			case err == nil:
				if p.Accumulate || cambiaVenta(existing, venta) {
					report.Actualizadas++
				} else {
					report.Omitidas++
				}
			case errors.Is(err, sql.ErrNoRows):
				report.Creadas++
			default:
				return report, &model.StoreError{Op: "leer venta existente", Err: err}
			}
		}
		logReport(report)
		return report, nil
	}

	tx, err := conn.Beginx()
	if err != nil {
		return nil, &model.StoreError{Op: "abrir transacción", Err: err}
	}
	defer tx.Rollback()

	for _, venta := range ventas {
		existing, err := database.FindVentaInTx(tx, venta.RecetaID, venta.SucursalID, venta.Fecha)
		switch {
		case err == nil:
			if p.Accumulate {
				venta.Cantidad = existing.Cantidad.Add(venta.Cantidad)
				venta.Tickets += existing.Tickets
				if existing.MontoTotal.Valid {
					if venta.MontoTotal.Valid {
						venta.MontoTotal.Decimal = existing.MontoTotal.Decimal.Add(venta.MontoTotal.Decimal)
					} else {
						venta.MontoTotal = existing.MontoTotal
					}
				}
			} else if !cambiaVenta(existing, venta) {
				report.Omitidas++
				continue
			}
			if err := database.UpsertVentaInTx(tx, venta); err != nil {
				return report, &model.StoreError{Op: "escribir venta", Err: err}
			}
			report.Actualizadas++
		case errors.Is(err, sql.ErrNoRows):
			if err := database.UpsertVentaInTx(tx, venta); err != nil {
				return report, &model.StoreError{Op: "escribir venta", Err: err}
			}
			report.Creadas++
		default:
			return report, &model.StoreError{Op: "leer venta existente", Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return report, &model.StoreError{Op: "confirmar transacción", Err: err}
	}

	logReport(report)
	return report, nil
}

// cambiaVenta reporta si la venta entrante difiere del registro existente
// en cantidad, tickets o monto. Es la única comparación que decide
// actualizada contra omitida, tanto en seco como en vivo.
func cambiaVenta(existing, nueva model.VentaHistorica) bool {
	if !existing.Cantidad.Equal(nueva.Cantidad) {
		return true
	}
	if existing.Tickets != nueva.Tickets {
		return true
	}
	if existing.MontoTotal.Valid != nueva.MontoTotal.Valid {
		return true
	}
	return existing.MontoTotal.Valid && !existing.MontoTotal.Decimal.Equal(nueva.MontoTotal.Decimal)
}

func logReport(report *Report) {
	log.Info().
		Str("component", "importer").
		Bool("dry_run", report.DryRun).
		Int("leidas", report.Leidas).
		Int("creadas", report.Creadas).
		Int("actualizadas", report.Actualizadas).
		Int("omitidas", report.Omitidas).
		Int("errores", len(report.Errores)).
		Msg("importación de ventas terminada")
}

func resolveRecetaCached(conn *sqlx.DB, cache map[string]model.Receta, rec parsers.ParsedVentaCSVRecord) (model.Receta, error) {
	key := fmt.Sprintf("%d|%s|%s", rec.RecetaID, rec.CodigoPoint, catalog.NormalizarNombre(rec.Receta))
	if r, ok := cache[key]; ok {
		return r, nil
	}
	r, err := catalog.ResolveReceta(conn, catalog.RecetaRef{ID: rec.RecetaID, Codigo: rec.CodigoPoint, Nombre: rec.Receta})
	if err != nil {
		return model.Receta{}, err
	}
	cache[key] = r
	return r, nil
}

func resolveSucursalCached(conn *sqlx.DB, cache map[string]model.Sucursal, ref string) (model.Sucursal, error) {
	key := catalog.NormalizarNombre(ref)
	if s, ok := cache[key]; ok {
		return s, nil
	}
	s, err := catalog.ResolveSucursal(conn, catalog.SucursalRef{Codigo: ref, Nombre: ref})
	if err != nil {
		return model.Sucursal{}, err
	}
	cache[key] = s
	return s, nil
}

func findVenta(conn *sqlx.DB, recetaID, sucursalID int64, fecha string) (model.VentaHistorica, error) {
	var v model.VentaHistorica
	err := conn.Get(&v, `
		SELECT id, receta_id, sucursal_id, fecha, cantidad, tickets, monto_total, fuente, actualizado_en
		FROM ventas_historicas
		WHERE receta_id = ? AND sucursal_id = ? AND fecha = ?`,
		recetaID, sucursalID, fecha)
	return v, err
}

func reportRowError(report *Report, line int, err error, stop bool) error {
	report.Errores = append(report.Errores, RowError{Line: line, Motivo: err.Error()})
	if stop {
		report.TerminatedEarly = true
		return fmt.Errorf("línea %d: %w", line, err)
	}
	return nil
}
