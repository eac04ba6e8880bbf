package forecast

import (
	"panaderia/model"
)

// FilterByConfidence regresa un resultado nuevo solo con las filas cuya
// confianza alcanza el mínimo, más el número de filas removidas. Filtro
// puro: no recalcula cantidades, solo los totales de lo retenido.
func FilterByConfidence(result *model.ForecastResult, minConfianzaPct int) (*model.ForecastResult, int) {
	filtered := &model.ForecastResult{
		Alcance:        result.Alcance,
		Periodo:        result.Periodo,
		TargetStart:    result.TargetStart,
		TargetEnd:      result.TargetEnd,
		SucursalID:     result.SucursalID,
		SucursalNombre: result.SucursalNombre,
		SafetyPct:      result.SafetyPct,
	}

	removed := 0
	for _, row := range result.Rows {
		if row.Confianza < minConfianzaPct {
			removed++
			continue
		}
		filtered.Rows = append(filtered.Rows, row)
		filtered.Totals.ForecastTotal = filtered.Totals.ForecastTotal.Add(row.ForecastQty)
		filtered.Totals.LowTotal = filtered.Totals.LowTotal.Add(row.ForecastLow)
		filtered.Totals.HighTotal = filtered.Totals.HighTotal.Add(row.ForecastHigh)
	}
	return filtered, removed
}
