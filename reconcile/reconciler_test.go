package reconcile_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panaderia/database"
	"panaderia/model"
	"panaderia/reconcile"
	"panaderia/testutil"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tol(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

func forecastConFilas(rows ...model.ForecastRow) *model.ForecastResult {
	return &model.ForecastResult{
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		TargetStart: "2024-03-01",
		TargetEnd:   "2024-03-31",
		Rows:        rows,
	}
}

func TestCompareSobreBajoOK(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	bolillo := testutil.SeedReceta(t, db, "Bolillo", "P-002")
	dona := testutil.SeedReceta(t, db, "Dona", "P-003")

	for id, qty := range map[int64]string{concha: "100", bolillo: "100", dona: "100"} {
		testutil.SeedSolicitud(t, db, model.SolicitudVenta{
			RecetaID:    id,
			Alcance:     model.AlcanceMes,
			Periodo:     "2024-03",
			FechaInicio: "2024-03-01",
			FechaFin:    "2024-03-31",
			Cantidad:    dec(qty),
		})
	}

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("115"), Muestras: 4},
		model.ForecastRow{RecetaID: bolillo, Receta: "Bolillo", ForecastQty: dec("85"), Muestras: 4},
		model.ForecastRow{RecetaID: dona, Receta: "Dona", ForecastQty: dec("105"), Muestras: 4},
	)

	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)
	require.Len(t, rec.Rows, 3)

	byID := make(map[int64]model.ReconcileRow)
	for _, row := range rec.Rows {
		byID[row.RecetaID] = row
	}

	// solicitud 100, pronóstico 115: delta 15, variación 15%, SOBRE
	sobre := byID[concha]
	assert.True(t, sobre.DeltaQty.Equal(dec("15")))
	require.NotNil(t, sobre.VariacionPct)
	assert.True(t, sobre.VariacionPct.Equal(dec("15")))
	assert.Equal(t, model.StatusSobre, sobre.Status)

	assert.Equal(t, model.StatusBajo, byID[bolillo].Status)
	assert.Equal(t, model.StatusOK, byID[dona].Status)

	assert.Equal(t, 1, rec.Totals.SobreCount)
	assert.Equal(t, 1, rec.Totals.BajoCount)
	assert.Equal(t, 1, rec.Totals.OKCount)
	assert.True(t, rec.Totals.DeltaTotal.Equal(dec("5")))
}

func TestCompareSinBaseYSinForecast(t *testing.T) {
	db := testutil.NewDB(t)
	nueva := testutil.SeedReceta(t, db, "Rosca Nueva", "P-009")
	vieja := testutil.SeedReceta(t, db, "Trenza Vieja", "P-010")

	// la vieja tiene solicitud capturada pero el pronóstico no la cubre
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    vieja,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("40"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: nueva, Receta: "Rosca Nueva", ForecastQty: dec("70"), Muestras: 2},
	)

	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)
	require.Len(t, rec.Rows, 2)

	byID := make(map[int64]model.ReconcileRow)
	for _, row := range rec.Rows {
		byID[row.RecetaID] = row
	}
	assert.Equal(t, model.StatusSinBase, byID[nueva].Status)
	assert.Nil(t, byID[nueva].VariacionPct)
	assert.Equal(t, model.StatusSinForecast, byID[vieja].Status)
	assert.Equal(t, "Trenza Vieja", byID[vieja].Receta)
	assert.Equal(t, 1, rec.Totals.SinBaseCount)
	assert.Equal(t, 1, rec.Totals.SinForecastCount)
}

func TestCompareFilaSinMuestrasEsSinForecast(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("0"), Muestras: 0},
	)

	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusSinForecast, rec.Rows[0].Status)
}

func TestCompareToleranciaCeroExigeCoincidenciaExacta(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	bolillo := testutil.SeedReceta(t, db, "Bolillo", "P-002")
	for id, qty := range map[int64]string{concha: "100", bolillo: "100"} {
		testutil.SeedSolicitud(t, db, model.SolicitudVenta{
			RecetaID:    id,
			Alcance:     model.AlcanceMes,
			Periodo:     "2024-03",
			FechaInicio: "2024-03-01",
			FechaFin:    "2024-03-31",
			Cantidad:    dec(qty),
		})
	}

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("101"), Muestras: 4},
		model.ForecastRow{RecetaID: bolillo, Receta: "Bolillo", ForecastQty: dec("100"), Muestras: 4},
	)

	// cero explícito no cae al default de config: cualquier desviación marca
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("0"))
	require.NoError(t, err)
	assert.True(t, rec.ToleranciaPct.IsZero())

	byID := make(map[int64]model.ReconcileRow)
	for _, row := range rec.Rows {
		byID[row.RecetaID] = row
	}
	assert.Equal(t, model.StatusSobre, byID[concha].Status)
	assert.Equal(t, model.StatusOK, byID[bolillo].Status)
}

func TestCompareToleranciaNilTomaDefault(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("105"), Muestras: 4},
	)

	// sin tolerancia se usa la de config (10%): 5% queda dentro
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, nil)
	require.NoError(t, err)
	assert.True(t, rec.ToleranciaPct.Equal(dec("10")))
	assert.Equal(t, model.StatusOK, rec.Rows[0].Status)
}

func TestApplySobreConTopeDeVariacion(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("115"), Muestras: 4},
	)
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)

	// el cambio implícito es 15% > tope 5%: se omite
	summary, err := reconcile.Apply(db, rec, reconcile.ApplyParams{
		Modo:            model.ModoSobre,
		MaxVariacionPct: dec("5"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.SkippedCap)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 0, summary.Updated)

	// la solicitud quedó intacta
	sol, err := database.FindSolicitud(db, concha, 0, model.AlcanceMes, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, sol.Cantidad.Equal(dec("100")))
}

func TestApplyEscribeYCrea(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	nueva := testutil.SeedReceta(t, db, "Rosca Nueva", "P-009")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("115"), Muestras: 4},
		model.ForecastRow{RecetaID: nueva, Receta: "Rosca Nueva", ForecastQty: dec("70"), Muestras: 2},
	)
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)

	summary, err := reconcile.Apply(db, rec, reconcile.ApplyParams{Modo: model.ModoTodas})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Created) // la fila SIN_BASE se crea
	assert.Equal(t, 1, summary.Updated) // la SOBRE se sobreescribe
	assert.Equal(t, "CONCILIACION", summary.Fuente)

	sol, err := database.FindSolicitud(db, concha, 0, model.AlcanceMes, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, sol.Cantidad.Equal(dec("115")))
	assert.Equal(t, "2024-03", sol.Periodo)

	creada, err := database.FindSolicitud(db, nueva, 0, model.AlcanceMes, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, creada.Cantidad.Equal(dec("70")))
}

func TestApplySolicitudEnCeroCuentaComoActualizada(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	// capturada en cero: sin base para la variación, pero el registro existe
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("0"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("70"), Muestras: 3},
	)
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)
	require.Equal(t, model.StatusSinBase, rec.Rows[0].Status)

	summary, err := reconcile.Apply(db, rec, reconcile.ApplyParams{Modo: model.ModoTodas})
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Created)
	assert.Equal(t, 1, summary.Updated)

	sol, err := database.FindSolicitud(db, concha, 0, model.AlcanceMes, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, sol.Cantidad.Equal(dec("70")))
}

func TestApplyDryRunMismosContadoresSinEscribir(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	nueva := testutil.SeedReceta(t, db, "Rosca Nueva", "P-009")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})

	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("115"), Muestras: 4},
		model.ForecastRow{RecetaID: nueva, Receta: "Rosca Nueva", ForecastQty: dec("70"), Muestras: 2},
	)
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)

	seco, err := reconcile.Apply(db, rec, reconcile.ApplyParams{Modo: model.ModoTodas, DryRun: true})
	require.NoError(t, err)
	assert.True(t, seco.DryRun)

	// el almacén no cambió
	sol, err := database.FindSolicitud(db, concha, 0, model.AlcanceMes, "2024-03-01", "2024-03-31")
	require.NoError(t, err)
	assert.True(t, sol.Cantidad.Equal(dec("100")))
	_, err = database.FindSolicitud(db, nueva, 0, model.AlcanceMes, "2024-03-01", "2024-03-31")
	require.Error(t, err)

	real, err := reconcile.Apply(db, rec, reconcile.ApplyParams{Modo: model.ModoTodas})
	require.NoError(t, err)
	assert.Equal(t, seco.Created, real.Created)
	assert.Equal(t, seco.Updated, real.Updated)
	assert.Equal(t, seco.Skipped, real.Skipped)
	assert.Equal(t, seco.SkippedCap, real.SkippedCap)
}

func TestApplyModoRecetaRequiereID(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})
	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("115"), Muestras: 4},
	)
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)

	_, err = reconcile.Apply(db, rec, reconcile.ApplyParams{Modo: model.ModoReceta})
	var inputErr *model.InputError
	require.ErrorAs(t, err, &inputErr)
	assert.Equal(t, "receta", inputErr.Campo)
}

func TestApplySeleccionVaciaEsError(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	testutil.SeedSolicitud(t, db, model.SolicitudVenta{
		RecetaID:    concha,
		Alcance:     model.AlcanceMes,
		Periodo:     "2024-03",
		FechaInicio: "2024-03-01",
		FechaFin:    "2024-03-31",
		Cantidad:    dec("100"),
	})
	// pronóstico dentro de tolerancia: nada queda SOBRE
	result := forecastConFilas(
		model.ForecastRow{RecetaID: concha, Receta: "Concha", ForecastQty: dec("102"), Muestras: 4},
	)
	rec, err := reconcile.Compare(db, result, model.EscenarioBase, tol("10"))
	require.NoError(t, err)

	_, err = reconcile.Apply(db, rec, reconcile.ApplyParams{Modo: model.ModoSobre})
	var inputErr *model.InputError
	require.ErrorAs(t, err, &inputErr)
}
