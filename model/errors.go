package model

import (
	"errors"
	"fmt"
)

// Errores de nivel resultado: se abortan completos, nunca parciales.
var (
	// ErrNoData indica cero muestras históricas en todo el alcance
	// solicitado. Un cero a nivel receta no es error: es una fila válida
	// con confianza 0.
	ErrNoData = errors.New("sin historial de ventas para el alcance solicitado")

	// ErrInsufficientHistory indica que ninguna ventana de backtest
	// produjo actividad comparable.
	ErrInsufficientHistory = errors.New("historial insuficiente para evaluar backtest")
)

// InputError es un parámetro malformado (alcance, periodo, fecha). Se
// rechaza antes de tocar el almacén.
type InputError struct {
	Campo  string
	Motivo string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("entrada inválida (%s): %s", e.Campo, e.Motivo)
}

// NotFoundError es una referencia de receta o sucursal que no resolvió.
type NotFoundError struct {
	Entidad    string
	Referencia string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s no encontrada: %s", e.Entidad, e.Referencia)
}

// AmbiguousError es una referencia por nombre que coincide con más de un
// registro del catálogo.
type AmbiguousError struct {
	Entidad       string
	Referencia    string
	Coincidencias int
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s ambigua: %q coincide con %d registros", e.Entidad, e.Referencia, e.Coincidencias)
}

// StoreError envuelve una falla del almacén durable. Siempre se propaga.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("almacén: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
