package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"panaderia/model"
)

const solicitudColumns = `id, receta_id, sucursal_id, alcance, periodo, fecha_inicio, fecha_fin, cantidad, fuente, actualizado_en`

func FindSolicitud(q sqlx.Queryer, recetaID, sucursalID int64, alcance, fechaInicio, fechaFin string) (model.SolicitudVenta, error) {
	var s model.SolicitudVenta
	err := sqlx.Get(q, &s, `
		SELECT `+solicitudColumns+`
		FROM solicitudes_venta
		WHERE receta_id = ? AND sucursal_id = ? AND alcance = ? AND fecha_inicio = ? AND fecha_fin = ?`,
		recetaID, sucursalID, alcance, fechaInicio, fechaFin)
	if err != nil {
		return model.SolicitudVenta{}, err
	}
	return s, nil
}

// ListSolicitudes regresa la vista de solicitudes del mismo alcance,
// ventana y sucursal que un resultado de pronóstico.
func ListSolicitudes(db *sqlx.DB, alcance, fechaInicio, fechaFin string, sucursalID int64) ([]model.SolicitudVenta, error) {
	var solicitudes []model.SolicitudVenta
	err := db.Select(&solicitudes, `
		SELECT `+solicitudColumns+`
		FROM solicitudes_venta
		WHERE alcance = ? AND fecha_inicio = ? AND fecha_fin = ? AND sucursal_id = ?
		ORDER BY receta_id`,
		alcance, fechaInicio, fechaFin, sucursalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query solicitudes (%s %s..%s): %w", alcance, fechaInicio, fechaFin, err)
	}
	return solicitudes, nil
}

// UpsertSolicitudInTx inserta o actualiza la solicitud por su llave de
// unicidad (receta, sucursal, alcance, fecha_inicio, fecha_fin).
func UpsertSolicitudInTx(tx *sqlx.Tx, s model.SolicitudVenta) error {
	const q = `
		INSERT INTO solicitudes_venta (receta_id, sucursal_id, alcance, periodo, fecha_inicio, fecha_fin, cantidad, fuente, actualizado_en)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(receta_id, sucursal_id, alcance, fecha_inicio, fecha_fin) DO UPDATE SET
			periodo = excluded.periodo,
			cantidad = excluded.cantidad,
			fuente = excluded.fuente,
			actualizado_en = excluded.actualizado_en`
	_, err := tx.Exec(q, s.RecetaID, s.SucursalID, s.Alcance, s.Periodo, s.FechaInicio, s.FechaFin, s.Cantidad.String(), s.Fuente, s.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("UpsertSolicitudInTx (receta %d, %s %s..%s) failed: %w", s.RecetaID, s.Alcance, s.FechaInicio, s.FechaFin, err)
	}
	return nil
}
