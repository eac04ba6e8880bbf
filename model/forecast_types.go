package model

import (
	"github.com/shopspring/decimal"
)

// ForecastRow es el pronóstico calculado de una receta. Invariantes:
// 0 <= ForecastLow <= ForecastQty <= ForecastHigh y Confianza en [0,100].
type ForecastRow struct {
	RecetaID      int64           `json:"recetaId"`
	Receta        string          `json:"receta"`
	ForecastQty   decimal.Decimal `json:"forecastQty"`
	ForecastLow   decimal.Decimal `json:"forecastLow"`
	ForecastHigh  decimal.Decimal `json:"forecastHigh"`
	Confianza     int             `json:"confianza"`
	Desviacion    decimal.Decimal `json:"desviacion"`
	Muestras      int             `json:"muestras"`
	Recomendacion string          `json:"recomendacion"`
	Observaciones string          `json:"observaciones"`
}

// CantidadEscenario regresa la cantidad del escenario solicitado.
func (r ForecastRow) CantidadEscenario(escenario string) decimal.Decimal {
	switch escenario {
	case EscenarioLow:
		return r.ForecastLow
	case EscenarioHigh:
		return r.ForecastHigh
	default:
		return r.ForecastQty
	}
}

// ForecastTotals acumula las cantidades de todas las filas retenidas.
type ForecastTotals struct {
	ForecastTotal decimal.Decimal `json:"forecastTotal"`
	LowTotal      decimal.Decimal `json:"lowTotal"`
	HighTotal     decimal.Decimal `json:"highTotal"`
}

// ForecastResult es el resultado transitorio de una corrida de pronóstico.
// Se produce fresco en cada llamada; nunca se persiste tal cual.
type ForecastResult struct {
	Alcance        string          `json:"alcance"`
	Periodo        string          `json:"periodo"`
	TargetStart    string          `json:"targetStart"`
	TargetEnd      string          `json:"targetEnd"`
	SucursalID     int64           `json:"sucursalId"`
	SucursalNombre string          `json:"sucursalNombre"`
	SafetyPct      decimal.Decimal `json:"safetyPct"`
	Rows           []ForecastRow   `json:"rows"`
	Totals         ForecastTotals  `json:"totals"`
}

// Estatus de comparación contra ventas reales o solicitudes.
const (
	StatusOK          = "OK"
	StatusSobre       = "SOBRE"
	StatusBajo        = "BAJO"
	StatusSinBase     = "SIN_BASE"
	StatusSinForecast = "SIN_FORECAST"
)

// BacktestRow es el error por receta dentro de una ventana de backtest.
type BacktestRow struct {
	RecetaID     int64            `json:"recetaId"`
	Receta       string           `json:"receta"`
	ForecastQty  decimal.Decimal  `json:"forecastQty"`
	ActualQty    decimal.Decimal  `json:"actualQty"`
	DeltaQty     decimal.Decimal  `json:"deltaQty"`
	AbsError     decimal.Decimal  `json:"absError"`
	VariacionPct *decimal.Decimal `json:"variacionPct"`
	Status       string           `json:"status"`
}

// BacktestWindow es la evaluación de una ventana previa.
type BacktestWindow struct {
	WindowStart   string           `json:"windowStart"`
	WindowEnd     string           `json:"windowEnd"`
	Periodo       string           `json:"periodo"`
	RecetasCount  int              `json:"recetasCount"`
	ForecastTotal decimal.Decimal  `json:"forecastTotal"`
	ActualTotal   decimal.Decimal  `json:"actualTotal"`
	BiasTotal     decimal.Decimal  `json:"biasTotal"`
	MAE           decimal.Decimal  `json:"mae"`
	MAPE          *decimal.Decimal `json:"mape"`
	TopErrors     []BacktestRow    `json:"topErrors"`
}

// BacktestTotals resume todas las ventanas evaluadas.
type BacktestTotals struct {
	WindowsEvaluated int              `json:"windowsEvaluated"`
	ForecastTotal    decimal.Decimal  `json:"forecastTotal"`
	ActualTotal      decimal.Decimal  `json:"actualTotal"`
	BiasTotal        decimal.Decimal  `json:"biasTotal"`
	MAEPromedio      decimal.Decimal  `json:"maePromedio"`
	MAPEPromedio     *decimal.Decimal `json:"mapePromedio"`
}

// BacktestSummary es el reporte completo de un backtest.
type BacktestSummary struct {
	Alcance        string           `json:"alcance"`
	FechaBase      string           `json:"fechaBase"`
	Periods        int              `json:"periods"`
	Escenario      string           `json:"escenario"`
	SucursalID     int64            `json:"sucursalId"`
	SucursalNombre string           `json:"sucursalNombre"`
	Totals         BacktestTotals   `json:"totals"`
	Windows        []BacktestWindow `json:"windows"`
}
