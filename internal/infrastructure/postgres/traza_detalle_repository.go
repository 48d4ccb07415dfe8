package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
	"github.com/bodegasur/trazavid/pkg/logger"
)

var _ repository.TrazaDetalleRepository = (*TrazaDetalleRepo)(nil)

// TrazaDetalleRepo adaptador sobre la tabla de hechos apx_traza_detalle.
type TrazaDetalleRepo struct {
	q         Querier
	chunkSize int
	log       *logger.Logger
}

// NewTrazaDetalleRepository construye el adaptador. chunkSize < 1 usa 999.
func NewTrazaDetalleRepository(q Querier, chunkSize int, log *logger.Logger) *TrazaDetalleRepo {
	if chunkSize < 1 {
		chunkSize = ChunkSizeDefecto
	}
	if log == nil {
		log = logger.Nop()
	}
	return &TrazaDetalleRepo{q: q, chunkSize: chunkSize, log: log}
}

// LimpiarTodo borra todas las filas y devuelve cuántas había.
func (r *TrazaDetalleRepo) LimpiarTodo(ctx context.Context) (int64, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM apx_traza_detalle`)
	if err != nil {
		return 0, fmt.Errorf("limpiar apx_traza_detalle: %w", err)
	}
	return tag.RowsAffected(), nil
}

const sqlInsertTraza = `
	INSERT INTO apx_traza_detalle (
		c_lote, c_variedad_inv, c_periodo, id_subvalle, cantidad, clave_ext_lote,
		mos_id, id, c_tipo_compro, f_movimiento, c_lote_origen, porcentaje_si,
		ciu_numero, nro_inscripcion, cod_cuartel, cuartel_log, d_lote,
		c_dorigen, d_dorigen, c_ddestino, d_ddestino, origen,
		c_tarea, d_tarea, obs_destino, obs_generales, obs_origen,
		cant_art_destino, cant_art_origen
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
		$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
	)`

// Agregar inserta las filas en un solo batch (una corrida escribe miles de
// filas por fase; fila a fila el ida y vuelta domina el tiempo).
func (r *TrazaDetalleRepo) Agregar(ctx context.Context, filas []entity.TrazaDetalle) error {
	if len(filas) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for i := range filas {
		f := &filas[i]
		batch.Queue(sqlInsertTraza,
			f.CLote, f.CVariedadInv, f.CPeriodo, f.IDSubvalle, f.Cantidad, f.ClaveExtLote,
			f.MosID, f.DetalleID, f.CTipoCompro, f.FMovimiento, f.CLoteOrigen, f.PorcentajeSI,
			f.CiuNumero, f.NroInscripcion, f.CodCuartel, f.CuartelLog, f.DLote,
			f.CDOrigen, f.DDOrigen, f.CDDestino, f.DDDestino, f.Origen,
			f.OT.CTarea, f.OT.DTarea, f.OT.ObsDestino, f.OT.ObsGenerales, f.OT.ObsOrigen,
			f.OT.CantArtDestino, f.OT.CantArtOrigen,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range filas {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insertar en apx_traza_detalle: %w", err)
		}
	}
	return nil
}

// ComposicionPorLotes devuelve los componentes de composición de los lotes
// dados, incluyendo lo escrito en la corrida en curso.
func (r *TrazaDetalleRepo) ComposicionPorLotes(ctx context.Context, lotes []int64) ([]entity.ComponenteComposicion, error) {
	const sql = `
		SELECT c_lote, c_variedad_inv, c_periodo, id_subvalle, cantidad,
		       clave_ext_lote, nro_inscripcion, cod_cuartel, cuartel_log, ciu_numero
		FROM apx_traza_detalle
		WHERE c_lote = ANY($1)`
	var out []entity.ComponenteComposicion
	err := consultarEnChunks(ctx, r.q, r.log, sql, lotes, r.chunkSize, func(rows pgx.Rows) error {
		var c entity.ComponenteComposicion
		if err := rows.Scan(&c.CLote, &c.CVariedadInv, &c.CPeriodo, &c.IDSubvalle, &c.Cantidad,
			&c.ClaveExtLote, &c.NroInscripcion, &c.CodCuartel, &c.CuartelLog, &c.CiuNumero); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("composición por lotes: %w", err)
	}
	return out, nil
}

// LotesConComposicion lista los lotes destino distintos presentes en la tabla.
func (r *TrazaDetalleRepo) LotesConComposicion(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT c_lote FROM apx_traza_detalle`)
	if err != nil {
		return nil, fmt.Errorf("lotes con composición: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var cLote int64
		if err := rows.Scan(&cLote); err != nil {
			return nil, fmt.Errorf("lotes con composición: %w", err)
		}
		out = append(out, cLote)
	}
	return out, rows.Err()
}

// PorDestino devuelve las aristas que entraron al lote, en orden determinístico.
func (r *TrazaDetalleRepo) PorDestino(ctx context.Context, cLote int64) ([]entity.TrazaDetalle, error) {
	const sql = `
		SELECT c_lote, c_variedad_inv, c_periodo, id_subvalle, cantidad, clave_ext_lote,
		       mos_id, id, c_tipo_compro, f_movimiento, c_lote_origen, porcentaje_si,
		       ciu_numero, nro_inscripcion, cod_cuartel, cuartel_log, d_lote,
		       c_dorigen, d_dorigen, c_ddestino, d_ddestino, origen
		FROM apx_traza_detalle
		WHERE c_lote = $1
		ORDER BY f_movimiento ASC, mos_id ASC`
	rows, err := r.q.Query(ctx, sql, cLote)
	if err != nil {
		return nil, fmt.Errorf("aristas hacia el lote %d: %w", cLote, err)
	}
	defer rows.Close()

	var out []entity.TrazaDetalle
	for rows.Next() {
		var f entity.TrazaDetalle
		if err := rows.Scan(&f.CLote, &f.CVariedadInv, &f.CPeriodo, &f.IDSubvalle, &f.Cantidad,
			&f.ClaveExtLote, &f.MosID, &f.DetalleID, &f.CTipoCompro, &f.FMovimiento, &f.CLoteOrigen,
			&f.PorcentajeSI, &f.CiuNumero, &f.NroInscripcion, &f.CodCuartel, &f.CuartelLog,
			&f.DLote, &f.CDOrigen, &f.DDOrigen, &f.CDDestino, &f.DDDestino, &f.Origen); err != nil {
			return nil, fmt.Errorf("aristas hacia el lote %d: %w", cLote, err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
