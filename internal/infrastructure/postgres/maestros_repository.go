package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bodegasur/trazavid/internal/domain"
	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
)

var _ repository.Maestros = (*MaestrosRepo)(nil)

// MaestrosRepo lee los datos maestros de lotes y depósitos. Son tablas chicas
// y estables, se leen completas una vez por corrida.
type MaestrosRepo struct {
	q Querier
}

// NewMaestrosRepository construye el adaptador de maestros.
func NewMaestrosRepository(q Querier) *MaestrosRepo {
	return &MaestrosRepo{q: q}
}

// Lotes devuelve el maestro completo de lotes indexado por c_lote.
func (r *MaestrosRepo) Lotes(ctx context.Context) (map[int64]entity.LoteMaestro, error) {
	const sql = `SELECT c_lote, clave_externa, id_subvalle, d_lote FROM lotes_stock`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("maestro de lotes: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]entity.LoteMaestro)
	for rows.Next() {
		var m entity.LoteMaestro
		if err := rows.Scan(&m.CLote, &m.ClaveExterna, &m.IDSubvalle, &m.DLote); err != nil {
			return nil, fmt.Errorf("maestro de lotes: %w", err)
		}
		out[m.CLote] = m
	}
	return out, rows.Err()
}

// Lote devuelve el maestro de un lote puntual.
func (r *MaestrosRepo) Lote(ctx context.Context, cLote int64) (*entity.LoteMaestro, error) {
	const sql = `SELECT c_lote, clave_externa, id_subvalle, d_lote FROM lotes_stock WHERE c_lote = $1`
	var m entity.LoteMaestro
	err := r.q.QueryRow(ctx, sql, cLote).Scan(&m.CLote, &m.ClaveExterna, &m.IDSubvalle, &m.DLote)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: lote %d", domain.ErrNoEncontrado, cLote)
		}
		return nil, fmt.Errorf("maestro del lote %d: %w", cLote, err)
	}
	return &m, nil
}

// Depositos devuelve el maestro de depósitos indexado por c_deposito.
func (r *MaestrosRepo) Depositos(ctx context.Context) (map[int64]string, error) {
	const sql = `SELECT c_deposito, d_deposito FROM depositos`
	rows, err := r.q.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("maestro de depósitos: %w", err)
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var cDeposito int64
		var dDeposito *string
		if err := rows.Scan(&cDeposito, &dDeposito); err != nil {
			return nil, fmt.Errorf("maestro de depósitos: %w", err)
		}
		if dDeposito != nil {
			out[cDeposito] = *dDeposito
		}
	}
	return out, rows.Err()
}
