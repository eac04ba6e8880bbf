package history

import (
	"fmt"
	"time"

	"panaderia/model"
)

const fechaLayout = "2006-01-02"

// Window es un rango de fechas inclusivo en ambos extremos.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) StartISO() string { return w.Start.Format(fechaLayout) }
func (w Window) EndISO() string   { return w.End.Format(fechaLayout) }

// Contains reporta si la fecha ISO cae dentro de la ventana.
func (w Window) Contains(fechaISO string) bool {
	return fechaISO >= w.StartISO() && fechaISO <= w.EndISO()
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func shiftMonth(start time.Time, months int) time.Time {
	idx := start.Year()*12 + int(start.Month()) - 1 + months
	return time.Date(idx/12, time.Month(idx%12+1), 1, 0, 0, 0, 0, time.UTC)
}

// mondayOf regresa el lunes de la semana de t.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return truncateDay(t).AddDate(0, 0, -offset)
}

// saturdayAnchor regresa el sábado del fin de semana objetivo: el mismo
// día si t es sábado, el día anterior si es domingo, y si no el sábado
// siguiente.
func saturdayAnchor(t time.Time) time.Time {
	t = truncateDay(t)
	switch t.Weekday() {
	case time.Saturday:
		return t
	case time.Sunday:
		return t.AddDate(0, 0, -1)
	default:
		return t.AddDate(0, 0, int(time.Saturday-t.Weekday()))
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// PeriodoLabel es la etiqueta YYYY-MM del inicio de la ventana. Se usa
// para todos los alcances, igual que en la captura de solicitudes.
func PeriodoLabel(start time.Time) string {
	return fmt.Sprintf("%04d-%02d", start.Year(), int(start.Month()))
}

// ParsePeriodoMes valida una etiqueta YYYY-MM y regresa el primer día del
// mes.
func ParsePeriodoMes(periodo string) (time.Time, error) {
	t, err := time.Parse("2006-01", periodo)
	if err != nil {
		return time.Time{}, &model.InputError{Campo: "periodo", Motivo: fmt.Sprintf("%q no tiene formato YYYY-MM", periodo)}
	}
	return monthStart(t), nil
}

// ResolveTargetWindow resuelve la ventana calendario concreta que el
// alcance mapea para el periodo solicitado. Para "mes" el periodo YYYY-MM
// manda; si viene vacío se usa el mes de la fecha base.
func ResolveTargetWindow(alcance, periodo string, fechaBase time.Time) (Window, string, error) {
	if !model.ValidAlcance(alcance) {
		return Window{}, "", &model.InputError{Campo: "alcance", Motivo: fmt.Sprintf("%q no es mes, semana ni fin_semana", alcance)}
	}

	switch alcance {
	case model.AlcanceMes:
		var start time.Time
		if periodo != "" {
			parsed, err := ParsePeriodoMes(periodo)
			if err != nil {
				return Window{}, "", err
			}
			start = parsed
		} else {
			start = monthStart(fechaBase)
		}
		end := shiftMonth(start, 1).AddDate(0, 0, -1)
		return Window{Start: start, End: end}, PeriodoLabel(start), nil

	case model.AlcanceSemana:
		start := mondayOf(fechaBase)
		return Window{Start: start, End: start.AddDate(0, 0, 6)}, PeriodoLabel(start), nil

	default: // fin_semana
		start := saturdayAnchor(fechaBase)
		return Window{Start: start, End: start.AddDate(0, 0, 1)}, PeriodoLabel(start), nil
	}
}

// PriorWindows construye n ventanas previas no traslapadas inmediatamente
// antes del ancla, ordenadas de la más antigua a la más reciente. Es la
// misma aritmética para la ventana de lookback del generador y para las
// ventanas de backtest.
func PriorWindows(alcance string, fechaBase time.Time, n int) ([]Window, error) {
	if !model.ValidAlcance(alcance) {
		return nil, &model.InputError{Campo: "alcance", Motivo: fmt.Sprintf("%q no es mes, semana ni fin_semana", alcance)}
	}
	if n <= 0 {
		return nil, &model.InputError{Campo: "periods", Motivo: "debe ser mayor que cero"}
	}

	windows := make([]Window, 0, n)
	switch alcance {
	case model.AlcanceMes:
		anchor := monthStart(fechaBase)
		for lag := n; lag > 0; lag-- {
			start := shiftMonth(anchor, -lag)
			end := shiftMonth(start, 1).AddDate(0, 0, -1)
			windows = append(windows, Window{Start: start, End: end})
		}
	case model.AlcanceFinSemana:
		anchor := saturdayAnchor(fechaBase)
		for lag := n; lag > 0; lag-- {
			start := anchor.AddDate(0, 0, -7*lag)
			windows = append(windows, Window{Start: start, End: start.AddDate(0, 0, 1)})
		}
	default: // semana
		anchor := mondayOf(fechaBase)
		for lag := n; lag > 0; lag-- {
			start := anchor.AddDate(0, 0, -7*lag)
			windows = append(windows, Window{Start: start, End: start.AddDate(0, 0, 6)})
		}
	}
	return windows, nil
}
