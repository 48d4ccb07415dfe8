package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNoEncontrado     = errors.New("recurso no encontrado")
	ErrEntradaInvalida  = errors.New("entrada inválida")
	ErrLoteNoNumerico   = errors.New("el lote debe ser numérico")
	ErrRangoFechas      = errors.New("rango de fechas inválido")
	ErrMaestrosNoLeidos = errors.New("no se pudieron leer los datos maestros")
	ErrCorridaEnCurso   = errors.New("ya hay una corrida de composición en curso")
)
