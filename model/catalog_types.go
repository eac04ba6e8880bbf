package model

// Tipos de receta dentro del catálogo.
const (
	TipoProductoFinal = "PRODUCTO_FINAL"
	TipoPreparacion   = "PREPARACION"
)

// Alcances de pronóstico y solicitud.
const (
	AlcanceMes       = "mes"
	AlcanceSemana    = "semana"
	AlcanceFinSemana = "fin_semana"
)

// Escenarios de cantidad proyectada.
const (
	EscenarioBase = "base"
	EscenarioLow  = "low"
	EscenarioHigh = "high"
)

// Receta es un producto del catálogo: producto terminado que se vende en
// mostrador, o preparación intermedia que solo consume producción.
type Receta struct {
	ID                int64  `db:"id" json:"id"`
	Nombre            string `db:"nombre" json:"nombre"`
	NombreNormalizado string `db:"nombre_normalizado" json:"-"`
	CodigoPoint       string `db:"codigo_point" json:"codigoPoint"`
	Tipo              string `db:"tipo" json:"tipo"`
	Activa            bool   `db:"activa" json:"activa"`
}

// Sucursal es un punto de venta. ID 0 significa "todas" (consolidado).
type Sucursal struct {
	ID     int64  `db:"id" json:"id"`
	Codigo string `db:"codigo" json:"codigo"`
	Nombre string `db:"nombre" json:"nombre"`
	Activa bool   `db:"activa" json:"activa"`
}

// ValidAlcance reporta si el alcance es uno de los soportados.
func ValidAlcance(alcance string) bool {
	switch alcance {
	case AlcanceMes, AlcanceSemana, AlcanceFinSemana:
		return true
	}
	return false
}

// ValidEscenario reporta si el selector de escenario es válido.
func ValidEscenario(escenario string) bool {
	switch escenario {
	case EscenarioBase, EscenarioLow, EscenarioHigh:
		return true
	}
	return false
}
