package importer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panaderia/database"
	"panaderia/importer"
	"panaderia/model"
	"panaderia/testutil"
)

func TestImportVentasCSVCreaYActualiza(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	testutil.SeedReceta(t, db, "Bolillo", "P-002")

	csv := "fecha,receta,codigo_point,cantidad\n" +
		"2024-03-01,Concha,,25\n" +
		"2024-03-01,,P-002,40\n"
	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Leidas)
	assert.Equal(t, 2, report.Creadas)
	assert.Empty(t, report.Errores)

	// re-importar el mismo día con cantidad corregida actualiza
	csv = "fecha,receta,cantidad\n2024-03-01,Concha,30\n"
	report, err = importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Actualizadas)
	assert.Equal(t, 0, report.Creadas)

	totals, err := database.SumVentasByReceta(db, model.VentasFilter{Desde: "2024-03-01", Hasta: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, "30", totals[concha].String())
}

func TestImportVentasCSVOmiteSinCambios(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedReceta(t, db, "Concha", "P-001")

	csv := "fecha,receta,cantidad\n2024-03-01,Concha,25\n"
	_, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)

	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Omitidas)
	assert.Equal(t, 0, report.Actualizadas)
}

func TestImportVentasCSVAcumula(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")

	csv := "fecha,receta,cantidad,tickets\n2024-03-01,Concha,25,10\n"
	_, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)

	// el segundo corte del día se suma al existente
	csv = "fecha,receta,cantidad,tickets\n2024-03-01,Concha,15,5\n"
	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{Accumulate: true})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Actualizadas)

	totals, err := database.SumVentasByReceta(db, model.VentasFilter{Desde: "2024-03-01", Hasta: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, "40", totals[concha].String())
}

func TestImportVentasCSVRecetaDesconocida(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedReceta(t, db, "Concha", "P-001")

	csv := "fecha,receta,cantidad\n" +
		"2024-03-01,Croissant,10\n" +
		"2024-03-01,Concha,25\n"
	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Creadas)
	require.Len(t, report.Errores, 1)
	assert.Equal(t, 2, report.Errores[0].Line)
	assert.False(t, report.TerminatedEarly)
}

func TestImportVentasCSVStopOnError(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedReceta(t, db, "Concha", "P-001")

	csv := "fecha,receta,cantidad\n" +
		"2024-03-01,Croissant,10\n" +
		"2024-03-01,Concha,25\n"
	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{StopOnError: true})
	require.Error(t, err)
	require.NotNil(t, report)
	assert.True(t, report.TerminatedEarly)

	// nada se escribió
	has, err := database.HasVentas(db, model.VentasFilter{Desde: "2024-03-01", Hasta: "2024-03-01"})
	require.NoError(t, err)
	assert.False(t, has)
}

func TestImportVentasCSVDryRunNoEscribe(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedReceta(t, db, "Concha", "P-001")

	csv := "fecha,receta,cantidad\n2024-03-01,Concha,25\n"
	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{DryRun: true})
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.Creadas)

	has, err := database.HasVentas(db, model.VentasFilter{Desde: "2024-03-01", Hasta: "2024-03-01"})
	require.NoError(t, err)
	assert.False(t, has)
}

func TestImportVentasCSVDryRunMismosContadoresConCambioDeTickets(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedReceta(t, db, "Concha", "P-001")

	csv := "fecha,receta,cantidad,tickets\n2024-03-01,Concha,25,10\n"
	_, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)

	// misma cantidad, distinto tickets: ambas corridas lo cuentan como
	// actualización
	csv = "fecha,receta,cantidad,tickets\n2024-03-01,Concha,25,12\n"
	seco, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{DryRun: true})
	require.NoError(t, err)
	real, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)

	assert.Equal(t, 1, real.Actualizadas)
	assert.Equal(t, real.Creadas, seco.Creadas)
	assert.Equal(t, real.Actualizadas, seco.Actualizadas)
	assert.Equal(t, real.Omitidas, seco.Omitidas)
}

func TestImportVentasCSVMezclaResolucionYEscritura(t *testing.T) {
	// el fixture usa una sola conexión: resolver catálogo y escribir en la
	// misma corrida no debe competir por ella
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	bolillo := testutil.SeedReceta(t, db, "Bolillo", "P-002")
	centro := testutil.SeedSucursal(t, db, "CEN", "Sucursal Centro", true)

	csv := "fecha,receta,sucursal,cantidad\n" +
		"2024-03-01,Concha,CEN,25\n" +
		"2024-03-01,Bolillo,CEN,40\n" +
		"2024-03-02,Concha,CEN,30\n"
	report, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Creadas)

	totals, err := database.SumVentasByReceta(db, model.VentasFilter{
		Desde: "2024-03-01", Hasta: "2024-03-02", SucursalID: centro,
	})
	require.NoError(t, err)
	assert.Equal(t, "55", totals[concha].String())
	assert.Equal(t, "40", totals[bolillo].String())
}

func TestImportVentasCSVResuelveSucursal(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	centro := testutil.SeedSucursal(t, db, "CEN", "Sucursal Centro", true)

	csv := "fecha,receta,sucursal,cantidad\n2024-03-01,Concha,CEN,25\n"
	_, err := importer.ImportVentasCSV(db, strings.NewReader(csv), importer.Params{})
	require.NoError(t, err)

	totals, err := database.SumVentasByReceta(db, model.VentasFilter{
		Desde: "2024-03-01", Hasta: "2024-03-01", SucursalID: centro,
	})
	require.NoError(t, err)
	assert.Equal(t, "25", totals[concha].String())
}
