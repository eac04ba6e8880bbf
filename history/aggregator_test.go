package history_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panaderia/history"
	"panaderia/model"
	"panaderia/testutil"
)

func mustFecha(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatal(err)
	}
	return parsed
}

func TestCollectAgrupaPorVentana(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")

	// enero: dos días; febrero: un día; diciembre sin ventas
	testutil.SeedVenta(t, db, concha, 0, "2024-01-05", "10")
	testutil.SeedVenta(t, db, concha, 0, "2024-01-20", "15")
	testutil.SeedVenta(t, db, concha, 0, "2024-02-10", "30")

	histories, windows, err := history.Collect(db, history.CollectParams{
		Alcance:     model.AlcanceMes,
		TargetStart: mustFecha(t, "2024-03-01"),
		Lookback:    3,
	})
	require.NoError(t, err)
	require.Len(t, windows, 3)

	h := histories[concha]
	require.NotNil(t, h)
	require.Len(t, h.Samples, 2)
	assert.Equal(t, "25", h.Samples[0].String())
	assert.Equal(t, "30", h.Samples[1].String())
	assert.Equal(t, 3, h.Dias)
}

func TestCollectRetieneRecetasSinVentas(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")
	bolillo := testutil.SeedReceta(t, db, "Bolillo", "P-002")
	testutil.SeedVenta(t, db, concha, 0, "2024-02-10", "12")

	histories, _, err := history.Collect(db, history.CollectParams{
		Alcance:     model.AlcanceMes,
		TargetStart: mustFecha(t, "2024-03-01"),
		Lookback:    3,
	})
	require.NoError(t, err)

	require.NotNil(t, histories[bolillo])
	assert.Empty(t, histories[bolillo].Samples)
}

func TestCollectIgnoraDiasEntreSemanaParaFinSemana(t *testing.T) {
	db := testutil.NewDB(t)
	concha := testutil.SeedReceta(t, db, "Concha", "P-001")

	// sábado y domingo del fin de semana previo, más un miércoles que no
	// pertenece a ninguna ventana
	testutil.SeedVenta(t, db, concha, 0, "2024-03-09", "20")
	testutil.SeedVenta(t, db, concha, 0, "2024-03-10", "25")
	testutil.SeedVenta(t, db, concha, 0, "2024-03-06", "999")

	histories, _, err := history.Collect(db, history.CollectParams{
		Alcance:     model.AlcanceFinSemana,
		TargetStart: mustFecha(t, "2024-03-16"),
		Lookback:    1,
	})
	require.NoError(t, err)

	h := histories[concha]
	require.Len(t, h.Samples, 1)
	assert.Equal(t, "45", h.Samples[0].String())
}

func TestCollectExcluyePreparacionesPorDefault(t *testing.T) {
	db := testutil.NewDB(t)
	masa := testutil.SeedPreparacion(t, db, "Masa Madre")
	testutil.SeedVenta(t, db, masa, 0, "2024-02-10", "50")

	histories, _, err := history.Collect(db, history.CollectParams{
		Alcance:     model.AlcanceMes,
		TargetStart: mustFecha(t, "2024-03-01"),
		Lookback:    3,
	})
	require.NoError(t, err)
	assert.NotContains(t, histories, masa)

	histories, _, err = history.Collect(db, history.CollectParams{
		Alcance:              model.AlcanceMes,
		TargetStart:          mustFecha(t, "2024-03-01"),
		IncluirPreparaciones: true,
		Lookback:             3,
	})
	require.NoError(t, err)
	require.Contains(t, histories, masa)
	assert.Len(t, histories[masa].Samples, 1)
}
