package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"panaderia/database"
	"panaderia/model"
)

// NormalizarNombre colapsa un nombre de catálogo a su forma canónica:
// minúsculas, sin acentos, espacios colapsados. "Concha de Vainilla " y
// "concha de vainilla" resuelven al mismo registro.
func NormalizarNombre(nombre string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	plano, _, err := transform.String(t, nombre)
	if err != nil {
		plano = nombre
	}
	return strings.Join(strings.Fields(strings.ToLower(plano)), " ")
}

// RecetaRef es una referencia de receta por id, código o nombre.
type RecetaRef struct {
	ID     int64
	Codigo string
	Nombre string
}

// ResolveReceta resuelve una referencia con precedencia id, luego código,
// luego nombre normalizado. Nunca cae en un default silencioso: referencia
// vacía, no encontrada o ambigua regresan error.
func ResolveReceta(db *sqlx.DB, ref RecetaRef) (model.Receta, error) {
	if ref.ID > 0 {
		r, err := database.GetRecetaByID(db, ref.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Receta{}, &model.NotFoundError{Entidad: "receta", Referencia: fmt.Sprintf("id=%d", ref.ID)}
		}
		if err != nil {
			return model.Receta{}, &model.StoreError{Op: "resolver receta", Err: err}
		}
		return r, nil
	}

	if codigo := strings.TrimSpace(ref.Codigo); codigo != "" {
		r, err := database.GetRecetaByCodigo(db, codigo)
		if err == nil {
			return r, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.Receta{}, &model.StoreError{Op: "resolver receta", Err: err}
		}
		// sin coincidencia por código: el nombre todavía puede resolver
	}

	if nombre := NormalizarNombre(ref.Nombre); nombre != "" {
		recetas, err := database.GetRecetasByNombreNormalizado(db, nombre)
		if err != nil {
			return model.Receta{}, &model.StoreError{Op: "resolver receta", Err: err}
		}
		switch len(recetas) {
		case 0:
			return model.Receta{}, &model.NotFoundError{Entidad: "receta", Referencia: ref.Nombre}
		case 1:
			return recetas[0], nil
		default:
			return model.Receta{}, &model.AmbiguousError{Entidad: "receta", Referencia: ref.Nombre, Coincidencias: len(recetas)}
		}
	}

	if strings.TrimSpace(ref.Codigo) != "" {
		return model.Receta{}, &model.NotFoundError{Entidad: "receta", Referencia: ref.Codigo}
	}
	return model.Receta{}, &model.InputError{Campo: "receta", Motivo: "se requiere id, código o nombre"}
}

// SucursalRef es una referencia de sucursal por id, código o nombre.
type SucursalRef struct {
	ID     int64
	Codigo string
	Nombre string
}

// ResolveSucursal resuelve con la misma precedencia que las recetas. Una
// sucursal inactiva cuenta como no encontrada.
func ResolveSucursal(db *sqlx.DB, ref SucursalRef) (model.Sucursal, error) {
	resolved, err := lookupSucursal(db, ref)
	if err != nil {
		return model.Sucursal{}, err
	}
	if !resolved.Activa {
		return model.Sucursal{}, &model.NotFoundError{Entidad: "sucursal", Referencia: fmt.Sprintf("%s (inactiva)", resolved.Codigo)}
	}
	return resolved, nil
}

func lookupSucursal(db *sqlx.DB, ref SucursalRef) (model.Sucursal, error) {
	if ref.ID > 0 {
		s, err := database.GetSucursalByID(db, ref.ID)
		if errors.Is(err, sql.ErrNoRows) {
			return model.Sucursal{}, &model.NotFoundError{Entidad: "sucursal", Referencia: fmt.Sprintf("id=%d", ref.ID)}
		}
		if err != nil {
			return model.Sucursal{}, &model.StoreError{Op: "resolver sucursal", Err: err}
		}
		return s, nil
	}

	if codigo := strings.TrimSpace(ref.Codigo); codigo != "" {
		s, err := database.GetSucursalByCodigo(db, codigo)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return model.Sucursal{}, &model.StoreError{Op: "resolver sucursal", Err: err}
		}
	}

	if nombre := NormalizarNombre(ref.Nombre); nombre != "" {
		todas, err := database.GetAllSucursales(db)
		if err != nil {
			return model.Sucursal{}, &model.StoreError{Op: "resolver sucursal", Err: err}
		}
		var sucursales []model.Sucursal
		for _, s := range todas {
			if NormalizarNombre(s.Nombre) == nombre {
				sucursales = append(sucursales, s)
			}
		}
		switch len(sucursales) {
		case 0:
			return model.Sucursal{}, &model.NotFoundError{Entidad: "sucursal", Referencia: ref.Nombre}
		case 1:
			return sucursales[0], nil
		default:
			return model.Sucursal{}, &model.AmbiguousError{Entidad: "sucursal", Referencia: ref.Nombre, Coincidencias: len(sucursales)}
		}
	}

	if strings.TrimSpace(ref.Codigo) != "" {
		return model.Sucursal{}, &model.NotFoundError{Entidad: "sucursal", Referencia: ref.Codigo}
	}
	return model.Sucursal{}, &model.InputError{Campo: "sucursal", Motivo: "se requiere id, código o nombre"}
}
