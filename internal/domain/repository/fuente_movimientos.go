package repository

import (
	"context"
	"time"

	"github.com/bodegasur/trazavid/internal/domain/entity"
)

// FuenteMovimientos define el puerto de lectura sobre el ERP: movimientos
// crudos por rango de fechas y consumos aguas abajo por conjunto de lotes.
// El rango es [desde, hasta] inclusive en días (el adaptador usa < hasta+1).
type FuenteMovimientos interface {
	ComprasEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleCompra, error)
	DescubesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleDescube, error)
	AjustesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleAjuste, error)
	TransformacionesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.ParTransformacion, error)

	// ConsumosProduccion devuelve consumos en producción/concentración
	// (tipos 41, 44) de los lotes dados.
	ConsumosProduccion(ctx context.Context, lotes []int64) ([]entity.ConsumoDestino, error)
	// Despachos devuelve ventas despachadas (tipo 3) de los lotes dados.
	Despachos(ctx context.Context, lotes []int64) ([]entity.ConsumoDestino, error)
}

// Maestros define el puerto de datos maestros usados solo para enriquecer.
// Su ausencia no debe frenar el pipeline: enriquecimiento faltante = nil.
type Maestros interface {
	Lotes(ctx context.Context) (map[int64]entity.LoteMaestro, error)
	Lote(ctx context.Context, cLote int64) (*entity.LoteMaestro, error)
	Depositos(ctx context.Context) (map[int64]string, error)
}

// OrdenesTrabajo puerto de enriquecimiento opcional por id de movimiento
// (id_cierre en la vista de órdenes de trabajo).
type OrdenesTrabajo interface {
	PorCierre(ctx context.Context, mosIDs []int64) (map[int64]entity.OrdenTrabajo, error)
}
