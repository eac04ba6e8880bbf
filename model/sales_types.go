package model

import (
	"github.com/shopspring/decimal"
)

// VentaHistorica es un hecho de venta diaria importado desde el punto de
// venta. Se actualiza únicamente por re-importación correctiva (upsert por
// receta+sucursal+fecha); el motor nunca la borra.
type VentaHistorica struct {
	ID            int64               `db:"id" json:"id"`
	RecetaID      int64               `db:"receta_id" json:"recetaId"`
	SucursalID    int64               `db:"sucursal_id" json:"sucursalId"`
	Fecha         string              `db:"fecha" json:"fecha"`
	Cantidad      decimal.Decimal     `db:"cantidad" json:"cantidad"`
	Tickets       int                 `db:"tickets" json:"tickets"`
	MontoTotal    decimal.NullDecimal `db:"monto_total" json:"montoTotal"`
	Fuente        string              `db:"fuente" json:"fuente"`
	ActualizadoEn string              `db:"actualizado_en" json:"actualizadoEn"`
}

// SolicitudVenta es la solicitud de venta capturada por planeación.
// Llave de unicidad: (receta, sucursal, alcance, fecha_inicio, fecha_fin).
type SolicitudVenta struct {
	ID            int64           `db:"id" json:"id"`
	RecetaID      int64           `db:"receta_id" json:"recetaId"`
	SucursalID    int64           `db:"sucursal_id" json:"sucursalId"`
	Alcance       string          `db:"alcance" json:"alcance"`
	Periodo       string          `db:"periodo" json:"periodo"`
	FechaInicio   string          `db:"fecha_inicio" json:"fechaInicio"`
	FechaFin      string          `db:"fecha_fin" json:"fechaFin"`
	Cantidad      decimal.Decimal `db:"cantidad" json:"cantidad"`
	Fuente        string          `db:"fuente" json:"fuente"`
	ActualizadoEn string          `db:"actualizado_en" json:"actualizadoEn"`
}

// PronosticoVenta es el pronóstico durable por receta y periodo, escrito
// solo por el adaptador de persistencia.
type PronosticoVenta struct {
	ID            int64           `db:"id" json:"id"`
	RecetaID      int64           `db:"receta_id" json:"recetaId"`
	Periodo       string          `db:"periodo" json:"periodo"`
	Cantidad      decimal.Decimal `db:"cantidad" json:"cantidad"`
	Fuente        string          `db:"fuente" json:"fuente"`
	ActualizadoEn string          `db:"actualizado_en" json:"actualizadoEn"`
}

// VentaDiaria es una observación diaria por receta dentro de una ventana.
type VentaDiaria struct {
	Fecha    string          `db:"fecha" json:"fecha"`
	RecetaID int64           `db:"receta_id" json:"recetaId"`
	Cantidad decimal.Decimal `db:"cantidad" json:"cantidad"`
}

// VentasFilter son las condiciones de consulta del historial de ventas.
type VentasFilter struct {
	Desde                string
	Hasta                string
	SucursalID           int64
	RecetaID             int64
	IncluirPreparaciones bool
}
