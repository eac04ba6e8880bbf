package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Las cantidades se guardan como TEXT decimal para que las comparaciones
// del backtest sean exactamente reproducibles; sucursal_id 0 significa
// "sin sucursal" (consolidado) para que la llave de unicidad funcione.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS recetas (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	nombre             TEXT NOT NULL,
	nombre_normalizado TEXT NOT NULL,
	codigo_point       TEXT NOT NULL DEFAULT '',
	tipo               TEXT NOT NULL DEFAULT 'PRODUCTO_FINAL',
	activa             INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_recetas_nombre_normalizado ON recetas(nombre_normalizado);
CREATE INDEX IF NOT EXISTS idx_recetas_codigo_point ON recetas(codigo_point);

CREATE TABLE IF NOT EXISTS sucursales (
	id     INTEGER PRIMARY KEY AUTOINCREMENT,
	codigo TEXT NOT NULL UNIQUE,
	nombre TEXT NOT NULL,
	activa INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS ventas_historicas (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	receta_id      INTEGER NOT NULL,
	sucursal_id    INTEGER NOT NULL DEFAULT 0,
	fecha          TEXT NOT NULL,
	cantidad       TEXT NOT NULL DEFAULT '0',
	tickets        INTEGER NOT NULL DEFAULT 0,
	monto_total    TEXT,
	fuente         TEXT NOT NULL DEFAULT '',
	actualizado_en TEXT NOT NULL DEFAULT '',
	UNIQUE(receta_id, sucursal_id, fecha)
);
CREATE INDEX IF NOT EXISTS idx_ventas_fecha ON ventas_historicas(fecha);

CREATE TABLE IF NOT EXISTS solicitudes_venta (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	receta_id      INTEGER NOT NULL,
	sucursal_id    INTEGER NOT NULL DEFAULT 0,
	alcance        TEXT NOT NULL,
	periodo        TEXT NOT NULL DEFAULT '',
	fecha_inicio   TEXT NOT NULL,
	fecha_fin      TEXT NOT NULL,
	cantidad       TEXT NOT NULL DEFAULT '0',
	fuente         TEXT NOT NULL DEFAULT '',
	actualizado_en TEXT NOT NULL DEFAULT '',
	UNIQUE(receta_id, sucursal_id, alcance, fecha_inicio, fecha_fin)
);

CREATE TABLE IF NOT EXISTS pronosticos_venta (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	receta_id      INTEGER NOT NULL,
	periodo        TEXT NOT NULL,
	cantidad       TEXT NOT NULL DEFAULT '0',
	fuente         TEXT NOT NULL DEFAULT '',
	actualizado_en TEXT NOT NULL DEFAULT '',
	UNIQUE(receta_id, periodo)
);
`

// InitDatabase aplica el esquema. Idempotente; se llama en cada arranque.
func InitDatabase(db *sqlx.DB) error {
	if _, err := db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}
