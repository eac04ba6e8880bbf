package model

import (
	"github.com/shopspring/decimal"
)

// MesIndex es el índice de demanda de un mes calendario (1-12) relativo al
// promedio diario global: 100 = demanda promedio.
type MesIndex struct {
	Mes            int             `json:"mes"`
	Dias           int             `json:"dias"`
	PromedioDiario decimal.Decimal `json:"promedioDiario"`
	IndexPct       decimal.Decimal `json:"indexPct"`
}

// DiaSemanaIndex es el índice de demanda por día de la semana (0 = lunes).
type DiaSemanaIndex struct {
	Dia            int             `json:"dia"`
	Dias           int             `json:"dias"`
	PromedioDiario decimal.Decimal `json:"promedioDiario"`
	IndexPct       decimal.Decimal `json:"indexPct"`
}

// RecetaRank es la posición de una receta en el ranking de volumen.
type RecetaRank struct {
	RecetaID             int64           `json:"recetaId"`
	Receta               string          `json:"receta"`
	TotalCantidad        decimal.Decimal `json:"totalCantidad"`
	DiasActivos          int             `json:"diasActivos"`
	PromedioPorDiaActivo decimal.Decimal `json:"promedioPorDiaActivo"`
	SharePct             decimal.Decimal `json:"sharePct"`
}

// SeasonalityInsights son índices informativos de estacionalidad. No
// alimentan el pronóstico en vivo.
type SeasonalityInsights struct {
	Desde                string           `json:"desde"`
	Hasta                string           `json:"hasta"`
	SucursalID           int64            `json:"sucursalId"`
	DiasObservados       int              `json:"diasObservados"`
	GlobalPromedioDiario decimal.Decimal  `json:"globalPromedioDiario"`
	Meses                []MesIndex       `json:"meses"`
	DiasSemana           []DiaSemanaIndex `json:"diasSemana"`
	TopRecetas           []RecetaRank     `json:"topRecetas"`
}
