package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
	"github.com/bodegasur/trazavid/pkg/logger"
)

var _ repository.OrdenesTrabajo = (*OrdenesTrabajoRepo)(nil)

// OrdenesTrabajoRepo lee la vista de órdenes de trabajo para enriquecer las
// filas de la traza. Es enriquecimiento opcional: si la vista no existe o
// falla, el llamador sigue sin datos de OT.
type OrdenesTrabajoRepo struct {
	q         Querier
	chunkSize int
	log       *logger.Logger
}

// NewOrdenesTrabajoRepository construye el adaptador. chunkSize < 1 usa 999.
func NewOrdenesTrabajoRepository(q Querier, chunkSize int, log *logger.Logger) *OrdenesTrabajoRepo {
	if chunkSize < 1 {
		chunkSize = ChunkSizeDefecto
	}
	if log == nil {
		log = logger.Nop()
	}
	return &OrdenesTrabajoRepo{q: q, chunkSize: chunkSize, log: log}
}

// PorCierre devuelve los datos de OT de los movimientos dados, indexados por
// id_cierre (el mos_id del movimiento que cerró la orden).
func (r *OrdenesTrabajoRepo) PorCierre(ctx context.Context, mosIDs []int64) (map[int64]entity.OrdenTrabajo, error) {
	const sql = `
		SELECT id_cierre, c_tarea, d_tarea, obs_destino, obs_generales, obs_origen,
		       cant_art_destino, cant_art_origen
		FROM vz_apx_ordenes_trabajo
		WHERE id_cierre = ANY($1)`
	out := make(map[int64]entity.OrdenTrabajo)
	err := consultarEnChunks(ctx, r.q, r.log, sql, mosIDs, r.chunkSize, func(rows pgx.Rows) error {
		var idCierre int64
		var ot entity.OrdenTrabajo
		if err := rows.Scan(&idCierre, &ot.CTarea, &ot.DTarea, &ot.ObsDestino, &ot.ObsGenerales,
			&ot.ObsOrigen, &ot.CantArtDestino, &ot.CantArtOrigen); err != nil {
			return err
		}
		out[idCierre] = ot
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("órdenes de trabajo por cierre: %w", err)
	}
	return out, nil
}
