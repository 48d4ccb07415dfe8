package repository

import (
	"context"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// TrazaDetalleRepository define el puerto sobre la tabla de hechos
// apx_traza_detalle. Las filas son append-only dentro de una corrida; la
// corrida arranca limpiando la tabla para ser re-ejecutable.
type TrazaDetalleRepository interface {
	// LimpiarTodo borra todas las filas y devuelve cuántas había.
	LimpiarTodo(ctx context.Context) (int64, error)
	// Agregar inserta filas nuevas (append, nunca update).
	Agregar(ctx context.Context, filas []entity.TrazaDetalle) error
	// ComposicionPorLotes devuelve los componentes de composición de los
	// lotes dados, incluyendo lo escrito en esta misma corrida.
	ComposicionPorLotes(ctx context.Context, lotes []int64) ([]entity.ComponenteComposicion, error)
	// LotesConComposicion lista los lotes destino distintos presentes en la tabla.
	LotesConComposicion(ctx context.Context) ([]int64, error)
	// PorDestino devuelve las aristas cuyo destino es el lote, ordenadas por
	// fecha de movimiento y mos_id para salida determinística.
	PorDestino(ctx context.Context, cLote int64) ([]entity.TrazaDetalle, error)
}

// DestinoFinalRepository define el puerto sobre apx_traza_destino_final
// (limpiar-y-reescribir por corrida).
type DestinoFinalRepository interface {
	LimpiarTodo(ctx context.Context) error
	Agregar(ctx context.Context, registros []entity.DestinoFinal) error
	// SumaPorLote devuelve la cantidad total consumida aguas abajo del lote.
	SumaPorLote(ctx context.Context, cLote int64) (decimal.Decimal, error)
}
