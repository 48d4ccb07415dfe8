package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
)

var _ repository.DestinoFinalRepository = (*DestinoFinalRepo)(nil)

// DestinoFinalRepo adaptador sobre apx_traza_destino_final.
type DestinoFinalRepo struct {
	q Querier
}

// NewDestinoFinalRepository construye el adaptador.
func NewDestinoFinalRepository(q Querier) *DestinoFinalRepo {
	return &DestinoFinalRepo{q: q}
}

// LimpiarTodo borra la tabla (se reescribe completa en cada corrida).
func (r *DestinoFinalRepo) LimpiarTodo(ctx context.Context) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM apx_traza_destino_final`); err != nil {
		return fmt.Errorf("limpiar apx_traza_destino_final: %w", err)
	}
	return nil
}

// Agregar inserta los registros en un batch.
func (r *DestinoFinalRepo) Agregar(ctx context.Context, registros []entity.DestinoFinal) error {
	if len(registros) == 0 {
		return nil
	}
	const sql = `
		INSERT INTO apx_traza_destino_final (
			c_lote, tipo_destino, cantidad_usada, f_movimiento_destino, mos_id_destino
		) VALUES ($1, $2, $3, $4, $5)`
	batch := &pgx.Batch{}
	for i := range registros {
		d := &registros[i]
		batch.Queue(sql, d.CLote, d.TipoDestino, d.CantidadUsada, d.FMovimientoDestino, d.MosIDDestino)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range registros {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insertar en apx_traza_destino_final: %w", err)
		}
	}
	return nil
}

// SumaPorLote devuelve el total consumido aguas abajo del lote.
func (r *DestinoFinalRepo) SumaPorLote(ctx context.Context, cLote int64) (decimal.Decimal, error) {
	const sql = `SELECT COALESCE(SUM(cantidad_usada), 0) FROM apx_traza_destino_final WHERE c_lote = $1`
	var suma decimal.Decimal
	if err := r.q.QueryRow(ctx, sql, cLote).Scan(&suma); err != nil {
		return decimal.Zero, fmt.Errorf("suma de destinos del lote %d: %w", cLote, err)
	}
	return suma, nil
}
