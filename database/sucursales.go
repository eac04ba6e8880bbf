package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"panaderia/model"
)

func GetSucursalByID(db *sqlx.DB, id int64) (model.Sucursal, error) {
	var s model.Sucursal
	err := db.Get(&s, `SELECT id, codigo, nombre, activa FROM sucursales WHERE id = ?`, id)
	if err != nil {
		return model.Sucursal{}, err
	}
	return s, nil
}

func GetSucursalByCodigo(db *sqlx.DB, codigo string) (model.Sucursal, error) {
	var s model.Sucursal
	err := db.Get(&s, `SELECT id, codigo, nombre, activa FROM sucursales WHERE lower(codigo) = lower(?) LIMIT 1`, codigo)
	if err != nil {
		return model.Sucursal{}, err
	}
	return s, nil
}

// GetAllSucursales regresa el catálogo completo; el resolutor filtra por
// nombre normalizado en memoria (son pocas sucursales).
func GetAllSucursales(db *sqlx.DB) ([]model.Sucursal, error) {
	var sucursales []model.Sucursal
	err := db.Select(&sucursales, `SELECT id, codigo, nombre, activa FROM sucursales ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sucursales: %w", err)
	}
	return sucursales, nil
}

func InsertSucursal(db *sqlx.DB, s model.Sucursal) (int64, error) {
	res, err := db.Exec(`INSERT INTO sucursales (codigo, nombre, activa) VALUES (?, ?, ?)`,
		s.Codigo, s.Nombre, s.Activa)
	if err != nil {
		return 0, fmt.Errorf("InsertSucursal (%s) failed: %w", s.Codigo, err)
	}
	return res.LastInsertId()
}
