package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"panaderia/model"
)

const pronosticoColumns = `id, receta_id, periodo, cantidad, fuente, actualizado_en`

func FindPronostico(q sqlx.Queryer, recetaID int64, periodo string) (model.PronosticoVenta, error) {
	var p model.PronosticoVenta
	err := sqlx.Get(q, &p, `
		SELECT `+pronosticoColumns+`
		FROM pronosticos_venta
		WHERE receta_id = ? AND periodo = ?`,
		recetaID, periodo)
	if err != nil {
		return model.PronosticoVenta{}, err
	}
	return p, nil
}

func ListPronosticos(db *sqlx.DB, periodo string) ([]model.PronosticoVenta, error) {
	var pronosticos []model.PronosticoVenta
	err := db.Select(&pronosticos, `
		SELECT `+pronosticoColumns+`
		FROM pronosticos_venta
		WHERE periodo = ?
		ORDER BY receta_id`, periodo)
	if err != nil {
		return nil, fmt.Errorf("failed to query pronosticos (%s): %w", periodo, err)
	}
	return pronosticos, nil
}

// UpsertPronosticoInTx inserta o actualiza el pronóstico por su llave de
// unicidad (receta, periodo).
func UpsertPronosticoInTx(tx *sqlx.Tx, p model.PronosticoVenta) error {
	const q = `
		INSERT INTO pronosticos_venta (receta_id, periodo, cantidad, fuente, actualizado_en)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(receta_id, periodo) DO UPDATE SET
			cantidad = excluded.cantidad,
			fuente = excluded.fuente,
			actualizado_en = excluded.actualizado_en`
	_, err := tx.Exec(q, p.RecetaID, p.Periodo, p.Cantidad.String(), p.Fuente, p.ActualizadoEn)
	if err != nil {
		return fmt.Errorf("UpsertPronosticoInTx (receta %d, periodo %s) failed: %w", p.RecetaID, p.Periodo, err)
	}
	return nil
}
