package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"panaderia/catalog"
	"panaderia/database"
	"panaderia/model"
)

// NewDB abre una base SQLite en memoria con el esquema aplicado. Una sola
// conexión: la base en memoria desaparece si el pool abre otra.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.InitDatabase(db))
	t.Cleanup(func() { db.Close() })
	return db
}

// SeedReceta inserta un producto terminado activo y regresa su id.
func SeedReceta(t *testing.T, db *sqlx.DB, nombre, codigo string) int64 {
	t.Helper()
	id, err := database.InsertReceta(db, model.Receta{
		Nombre:            nombre,
		NombreNormalizado: catalog.NormalizarNombre(nombre),
		CodigoPoint:       codigo,
		Tipo:              model.TipoProductoFinal,
		Activa:            true,
	})
	require.NoError(t, err)
	return id
}

// SeedPreparacion inserta una receta intermedia activa y regresa su id.
func SeedPreparacion(t *testing.T, db *sqlx.DB, nombre string) int64 {
	t.Helper()
	id, err := database.InsertReceta(db, model.Receta{
		Nombre:            nombre,
		NombreNormalizado: catalog.NormalizarNombre(nombre),
		Tipo:              model.TipoPreparacion,
		Activa:            true,
	})
	require.NoError(t, err)
	return id
}

// SeedSucursal inserta una sucursal y regresa su id.
func SeedSucursal(t *testing.T, db *sqlx.DB, codigo, nombre string, activa bool) int64 {
	t.Helper()
	id, err := database.InsertSucursal(db, model.Sucursal{Codigo: codigo, Nombre: nombre, Activa: activa})
	require.NoError(t, err)
	return id
}

// SeedVenta inserta un hecho de venta diaria directo al almacén.
func SeedVenta(t *testing.T, db *sqlx.DB, recetaID, sucursalID int64, fecha, cantidad string) {
	t.Helper()
	qty, err := decimal.NewFromString(cantidad)
	require.NoError(t, err)
	_, err = db.Exec(`
		INSERT INTO ventas_historicas (receta_id, sucursal_id, fecha, cantidad, tickets, fuente, actualizado_en)
		VALUES (?, ?, ?, ?, 0, 'TEST', '')`,
		recetaID, sucursalID, fecha, qty.String())
	require.NoError(t, err)
}

// SeedSolicitud inserta una solicitud de venta capturada.
func SeedSolicitud(t *testing.T, db *sqlx.DB, s model.SolicitudVenta) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO solicitudes_venta (receta_id, sucursal_id, alcance, periodo, fecha_inicio, fecha_fin, cantidad, fuente, actualizado_en)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, '')`,
		s.RecetaID, s.SucursalID, s.Alcance, s.Periodo, s.FechaInicio, s.FechaFin, s.Cantidad.String(), s.Fuente)
	require.NoError(t, err)
}
