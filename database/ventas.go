package database

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"panaderia/model"
)

// FetchVentasDiarias regresa una observación por (fecha, receta) dentro de
// la ventana, ya consolidada entre sucursales cuando no hay filtro. La suma
// se hace en memoria con decimal; SUM() de SQLite coercería a float.
func FetchVentasDiarias(db *sqlx.DB, f model.VentasFilter) ([]model.VentaDiaria, error) {
	q := `
		SELECT v.fecha, v.receta_id, v.cantidad
		FROM ventas_historicas v
		JOIN recetas r ON r.id = v.receta_id
		WHERE v.fecha >= ? AND v.fecha <= ?`
	args := []interface{}{f.Desde, f.Hasta}
	if f.SucursalID > 0 {
		q += ` AND v.sucursal_id = ?`
		args = append(args, f.SucursalID)
	}
	if f.RecetaID > 0 {
		q += ` AND v.receta_id = ?`
		args = append(args, f.RecetaID)
	}
	if !f.IncluirPreparaciones {
		q += ` AND r.tipo = 'PRODUCTO_FINAL'`
	}
	q += ` ORDER BY v.fecha, v.receta_id`

	var raw []model.VentaDiaria
	if err := db.Select(&raw, q, args...); err != nil {
		return nil, fmt.Errorf("failed to query ventas historicas (%s..%s): %w", f.Desde, f.Hasta, err)
	}

	type key struct {
		fecha    string
		recetaID int64
	}
	grouped := make(map[key]decimal.Decimal, len(raw))
	for _, v := range raw {
		k := key{v.Fecha, v.RecetaID}
		grouped[k] = grouped[k].Add(v.Cantidad)
	}

	out := make([]model.VentaDiaria, 0, len(grouped))
	for k, total := range grouped {
		out = append(out, model.VentaDiaria{Fecha: k.fecha, RecetaID: k.recetaID, Cantidad: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Fecha != out[j].Fecha {
			return out[i].Fecha < out[j].Fecha
		}
		return out[i].RecetaID < out[j].RecetaID
	})
	return out, nil
}

// SumVentasByReceta acumula la venta real por receta dentro de la ventana.
func SumVentasByReceta(db *sqlx.DB, f model.VentasFilter) (map[int64]decimal.Decimal, error) {
	diarias, err := FetchVentasDiarias(db, f)
	if err != nil {
		return nil, err
	}
	totals := make(map[int64]decimal.Decimal, len(diarias))
	for _, v := range diarias {
		totals[v.RecetaID] = totals[v.RecetaID].Add(v.Cantidad)
	}
	return totals, nil
}

func FindVentaInTx(tx *sqlx.Tx, recetaID, sucursalID int64, fecha string) (model.VentaHistorica, error) {
	var v model.VentaHistorica
	err := tx.Get(&v, `
		SELECT id, receta_id, sucursal_id, fecha, cantidad, tickets, monto_total, fuente, actualizado_en
		FROM ventas_historicas
		WHERE receta_id = ? AND sucursal_id = ? AND fecha = ?`,
		recetaID, sucursalID, fecha)
	if err != nil {
		return model.VentaHistorica{}, err
	}
	return v, nil
}

// UpsertVentaInTx inserta o reemplaza el hecho de venta del día. La llave
// es (receta, sucursal, fecha); el modo accumulate lo resuelve el
// importador leyendo el registro previo.
func UpsertVentaInTx(tx *sqlx.Tx, v model.VentaHistorica) error {
	var monto interface{}
	if v.MontoTotal.Valid {
		monto = v.MontoTotal.Decimal.String()
	}
	const q = `
		INSERT INTO ventas_historicas (receta_id, sucursal_id, fecha, cantidad, tickets, monto_total, fuente, actualizado_en)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(receta_id, sucursal_id, fecha) DO UPDATE SET
			cantidad = excluded.cantidad,
			tickets = excluded.tickets,
			monto_total = excluded.monto_total,
			fuente = excluded.fuente,
			actualizado_en = excluded.actualizado_en`
	_, err := tx.Exec(q, v.RecetaID, v.SucursalID, v.Fecha, v.Cantidad.String(), v.Tickets, monto, v.Fuente, v.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("UpsertVentaInTx (receta %d, fecha %s) failed: %w", v.RecetaID, v.Fecha, err)
	}
	return nil
}

// HasVentas reporta si existe al menos una venta en la ventana dada.
func HasVentas(db *sqlx.DB, f model.VentasFilter) (bool, error) {
	q := `SELECT 1 FROM ventas_historicas v JOIN recetas r ON r.id = v.receta_id WHERE v.fecha >= ? AND v.fecha <= ?`
	args := []interface{}{f.Desde, f.Hasta}
	if f.SucursalID > 0 {
		q += ` AND v.sucursal_id = ?`
		args = append(args, f.SucursalID)
	}
	if !f.IncluirPreparaciones {
		q += ` AND r.tipo = 'PRODUCTO_FINAL'`
	}
	q += ` LIMIT 1`

	var one int
	err := db.Get(&one, q, args...)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to probe ventas historicas: %w", err)
	}
	return true, nil
}
