package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"panaderia/model"
)

func GetRecetaByID(db *sqlx.DB, id int64) (model.Receta, error) {
	var r model.Receta
	err := db.Get(&r, `SELECT id, nombre, nombre_normalizado, codigo_point, tipo, activa FROM recetas WHERE id = ?`, id)
	if err != nil {
		return model.Receta{}, err
	}
	return r, nil
}

func GetRecetaByCodigo(db *sqlx.DB, codigo string) (model.Receta, error) {
	var r model.Receta
	err := db.Get(&r, `
		SELECT id, nombre, nombre_normalizado, codigo_point, tipo, activa
		FROM recetas
		WHERE codigo_point <> '' AND lower(codigo_point) = lower(?)
		ORDER BY id LIMIT 1`, codigo)
	if err != nil {
		return model.Receta{}, err
	}
	return r, nil
}

// GetRecetasByNombreNormalizado regresa todas las coincidencias exactas del
// nombre ya normalizado; el resolutor decide si la referencia es ambigua.
func GetRecetasByNombreNormalizado(db *sqlx.DB, nombreNormalizado string) ([]model.Receta, error) {
	var recetas []model.Receta
	err := db.Select(&recetas, `
		SELECT id, nombre, nombre_normalizado, codigo_point, tipo, activa
		FROM recetas
		WHERE nombre_normalizado = ?
		ORDER BY id`, nombreNormalizado)
	if err != nil {
		return nil, fmt.Errorf("failed to query recetas by nombre (%s): %w", nombreNormalizado, err)
	}
	return recetas, nil
}

// GetRecetasActivas regresa el universo de recetas del pronóstico. Por
// default solo productos terminados; las preparaciones intermedias no
// cuentan como demanda.
func GetRecetasActivas(db *sqlx.DB, incluirPreparaciones bool) ([]model.Receta, error) {
	q := `SELECT id, nombre, nombre_normalizado, codigo_point, tipo, activa FROM recetas WHERE activa = 1`
	if !incluirPreparaciones {
		q += ` AND tipo = 'PRODUCTO_FINAL'`
	}
	q += ` ORDER BY nombre, id`

	var recetas []model.Receta
	if err := db.Select(&recetas, q); err != nil {
		return nil, fmt.Errorf("failed to query recetas activas: %w", err)
	}
	return recetas, nil
}

// GetRecetaNames regresa id -> nombre para el conjunto dado.
func GetRecetaNames(db *sqlx.DB, ids []int64) (map[int64]string, error) {
	names := make(map[int64]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	query, args, err := sqlx.In(`SELECT id, nombre FROM recetas WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build receta names query: %w", err)
	}
	rows := []struct {
		ID     int64  `db:"id"`
		Nombre string `db:"nombre"`
	}{}
	if err := db.Select(&rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query receta names: %w", err)
	}
	for _, row := range rows {
		names[row.ID] = row.Nombre
	}
	return names, nil
}

func InsertReceta(db *sqlx.DB, r model.Receta) (int64, error) {
	res, err := db.Exec(`
		INSERT INTO recetas (nombre, nombre_normalizado, codigo_point, tipo, activa)
		VALUES (?, ?, ?, ?, ?)`,
		r.Nombre, r.NombreNormalizado, r.CodigoPoint, r.Tipo, r.Activa)
	if err != nil {
		return 0, fmt.Errorf("InsertReceta (%s) failed: %w", r.Nombre, err)
	}
	return res.LastInsertId()
}
