package history

import (
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"panaderia/database"
	"panaderia/model"
)

// RecetaHistory son las muestras históricas de una receta dentro de la
// ventana de lookback: un total por periodo con al menos una observación.
// Las recetas sin observaciones se retienen con Samples vacío para que el
// hueco sea visible aguas abajo, nunca se descartan.
type RecetaHistory struct {
	Receta  model.Receta
	Samples []decimal.Decimal
	Dias    int
}

// CollectParams define el alcance de la recolección de historial.
type CollectParams struct {
	Alcance              string
	TargetStart          time.Time
	SucursalID           int64
	IncluirPreparaciones bool
	Lookback             int
}

// Collect agrupa el historial de ventas por receta y periodo de lookback.
// Regresa el universo completo de recetas activas del filtro junto con las
// ventanas usadas, de la más antigua a la más reciente.
func Collect(db *sqlx.DB, p CollectParams) (map[int64]*RecetaHistory, []Window, error) {
	windows, err := PriorWindows(p.Alcance, p.TargetStart, p.Lookback)
	if err != nil {
		return nil, nil, err
	}

	recetas, err := database.GetRecetasActivas(db, p.IncluirPreparaciones)
	if err != nil {
		return nil, nil, &model.StoreError{Op: "leer catálogo de recetas", Err: err}
	}

	histories := make(map[int64]*RecetaHistory, len(recetas))
	for _, r := range recetas {
		histories[r.ID] = &RecetaHistory{Receta: r}
	}

	diarias, err := database.FetchVentasDiarias(db, model.VentasFilter{
		Desde:                windows[0].StartISO(),
		Hasta:                windows[len(windows)-1].EndISO(),
		SucursalID:           p.SucursalID,
		IncluirPreparaciones: p.IncluirPreparaciones,
	})
	if err != nil {
		return nil, nil, &model.StoreError{Op: "leer historial de ventas", Err: err}
	}

	// total por (receta, ventana); los días fuera de toda ventana (entre
	// semana para fin_semana) no cuentan
	type bucket struct {
		total decimal.Decimal
		seen  bool
	}
	buckets := make(map[int64][]bucket)
	for _, v := range diarias {
		h, ok := histories[v.RecetaID]
		if !ok {
			continue // receta inactiva o fuera del filtro
		}
		idx := windowIndex(windows, v.Fecha)
		if idx < 0 {
			continue
		}
		bs, ok := buckets[v.RecetaID]
		if !ok {
			bs = make([]bucket, len(windows))
			buckets[v.RecetaID] = bs
		}
		bs[idx].total = bs[idx].total.Add(v.Cantidad)
		bs[idx].seen = true
		h.Dias++
	}

	for recetaID, bs := range buckets {
		h := histories[recetaID]
		for _, b := range bs {
			if b.seen {
				h.Samples = append(h.Samples, b.total)
			}
		}
	}

	return histories, windows, nil
}

func windowIndex(windows []Window, fechaISO string) int {
	for i, w := range windows {
		if w.Contains(fechaISO) {
			return i
		}
	}
	return -1
}
