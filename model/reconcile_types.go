package model

import (
	"github.com/shopspring/decimal"
)

// ReconcileRow compara el pronóstico de una receta contra su solicitud de
// venta capturada. ForecastQty ya es la cantidad del escenario elegido.
type ReconcileRow struct {
	RecetaID     int64            `json:"recetaId"`
	Receta       string           `json:"receta"`
	ForecastQty  decimal.Decimal  `json:"forecastQty"`
	SolicitudQty decimal.Decimal  `json:"solicitudQty"`
	DeltaQty     decimal.Decimal  `json:"deltaQty"`
	VariacionPct *decimal.Decimal `json:"variacionPct"`
	Status       string           `json:"status"`
}

// ReconcileTotals acumula conteos por estatus y totales de cantidad.
type ReconcileTotals struct {
	ForecastTotal    decimal.Decimal `json:"forecastTotal"`
	SolicitudTotal   decimal.Decimal `json:"solicitudTotal"`
	DeltaTotal       decimal.Decimal `json:"deltaTotal"`
	OKCount          int             `json:"okCount"`
	SobreCount       int             `json:"sobreCount"`
	BajoCount        int             `json:"bajoCount"`
	SinBaseCount     int             `json:"sinBaseCount"`
	SinForecastCount int             `json:"sinForecastCount"`
}

// ReconcileResult es la comparación pronóstico vs solicitud de un periodo.
type ReconcileResult struct {
	Alcance       string          `json:"alcance"`
	Periodo       string          `json:"periodo"`
	TargetStart   string          `json:"targetStart"`
	TargetEnd     string          `json:"targetEnd"`
	SucursalID    int64           `json:"sucursalId"`
	Escenario     string          `json:"escenario"`
	ToleranciaPct decimal.Decimal `json:"toleranciaPct"`
	Rows          []ReconcileRow  `json:"rows"`
	Totals        ReconcileTotals `json:"totals"`
}

// Modos de selección para aplicar la conciliación.
const (
	ModoDesviadas = "desviadas"
	ModoSobre     = "sobre"
	ModoBajo      = "bajo"
	ModoTodas     = "todas"
	ModoReceta    = "receta"
)

// ApplyRow registra un ajuste de solicitud aplicado (o simulado).
type ApplyRow struct {
	RecetaID     int64           `json:"recetaId"`
	Receta       string          `json:"receta"`
	Anterior     decimal.Decimal `json:"anterior"`
	Nueva        decimal.Decimal `json:"nueva"`
	Action       string          `json:"action"`
	StatusBefore string          `json:"statusBefore"`
}

// ApplySummary resume una corrida de aplicación de conciliación. Con
// DryRun los contadores son idénticos a la corrida real pero no se
// escribe nada en el almacén de solicitudes.
type ApplySummary struct {
	DryRun     bool       `json:"dryRun"`
	Modo       string     `json:"modo"`
	Fuente     string     `json:"fuente"`
	Created    int        `json:"created"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	SkippedCap int        `json:"skippedCap"`
	Rows       []ApplyRow `json:"rows"`
}

// PersistRow registra un pronóstico escrito al almacén durable.
type PersistRow struct {
	RecetaID int64           `json:"recetaId"`
	Receta   string          `json:"receta"`
	Periodo  string          `json:"periodo"`
	Anterior decimal.Decimal `json:"anterior"`
	Nueva    decimal.Decimal `json:"nueva"`
	Action   string          `json:"action"`
}

// PersistSummary resume la persistencia de un escenario de pronóstico.
type PersistSummary struct {
	Periodo         string       `json:"periodo"`
	Escenario       string       `json:"escenario"`
	Fuente          string       `json:"fuente"`
	Created         int          `json:"created"`
	Updated         int          `json:"updated"`
	SkippedExisting int          `json:"skippedExisting"`
	SkippedInvalid  int          `json:"skippedInvalid"`
	Rows            []PersistRow `json:"rows"`
}

// Acciones reportadas por apply/persist.
const (
	ActionCreated = "CREATED"
	ActionUpdated = "UPDATED"
)
