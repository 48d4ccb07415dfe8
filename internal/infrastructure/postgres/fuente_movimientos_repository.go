package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
	"github.com/bodegasur/trazavid/pkg/logger"
)

var _ repository.FuenteMovimientos = (*FuenteMovimientosRepo)(nil)

// FuenteMovimientosRepo lee los movimientos crudos del esquema del ERP.
// Las cabeceras se filtran por rango de fechas en una sola consulta; los
// detalles se traen por chunks de claves (el detalle de un período grande
// puede referir decenas de miles de cabeceras).
type FuenteMovimientosRepo struct {
	q         Querier
	chunkSize int
	log       *logger.Logger
}

// NewFuenteMovimientosRepository construye el adaptador. chunkSize < 1 usa 999.
func NewFuenteMovimientosRepository(q Querier, chunkSize int, log *logger.Logger) *FuenteMovimientosRepo {
	if chunkSize < 1 {
		chunkSize = ChunkSizeDefecto
	}
	if log == nil {
		log = logger.Nop()
	}
	return &FuenteMovimientosRepo{q: q, chunkSize: chunkSize, log: log}
}

type cabecera struct {
	fecha       *time.Time
	cTipoCompro int64
}

// cabecerasEnRango lee id/fecha/tipo de una tabla de cabeceras filtrada por
// tipos y rango [desde, hasta] inclusive en días.
func (r *FuenteMovimientosRepo) cabecerasEnRango(ctx context.Context, sql string, desde, hasta time.Time, tipos []int64) (map[int64]cabecera, []int64, error) {
	rows, err := r.q.Query(ctx, sql, tipos, desde, hasta)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cabeceras := make(map[int64]cabecera)
	var ids []int64
	for rows.Next() {
		var id int64
		var c cabecera
		if err := rows.Scan(&id, &c.fecha, &c.cTipoCompro); err != nil {
			return nil, nil, err
		}
		cabeceras[id] = c
		ids = append(ids, id)
	}
	return cabeceras, ids, rows.Err()
}

// articulosClasificados devuelve la temporada de los artículos dados que son
// uva o mosto (tipo_clasif 4 o 14). Artículos fuera del mapa se descartan.
func (r *FuenteMovimientosRepo) articulosClasificados(ctx context.Context, articulos []int64) (map[int64]*string, error) {
	const sql = `
		SELECT c_articulo, c_temporada
		FROM items
		WHERE c_articulo = ANY($1) AND tipo_clasif IN (4, 14)`
	temporadas := make(map[int64]*string)
	err := consultarEnChunks(ctx, r.q, r.log, sql, articulos, r.chunkSize, func(rows pgx.Rows) error {
		var cArticulo int64
		var temporada *string
		if err := rows.Scan(&cArticulo, &temporada); err != nil {
			return err
		}
		temporadas[cArticulo] = temporada
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("items clasificados: %w", err)
	}
	return temporadas, nil
}

// ComprasEnRango devuelve los renglones de facturas de compra (tipo 13) del
// rango, restringidos a artículos uva/mosto.
func (r *FuenteMovimientosRepo) ComprasEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleCompra, error) {
	const sqlCabeceras = `
		SELECT id, f_factura, c_tipo_compro
		FROM factura_compras
		WHERE c_tipo_compro = ANY($1)
		  AND f_factura >= $2 AND f_factura < $3 + interval '1 day'`
	cabeceras, facIDs, err := r.cabecerasEnRango(ctx, sqlCabeceras, desde, hasta, []int64{entity.TipoCompra})
	if err != nil {
		return nil, fmt.Errorf("facturas de compra: %w", err)
	}
	if len(facIDs) == 0 {
		return nil, nil
	}

	var renglones []entity.DetalleCompra
	var articulos []int64
	const sqlDetalle = `
		SELECT fac_id, id, c_lote_stock, q_articulo, c_articulo, cosecha, c_deposito
		FROM det_fac_com
		WHERE fac_id = ANY($1)`
	err = consultarEnChunks(ctx, r.q, r.log, sqlDetalle, facIDs, r.chunkSize, func(rows pgx.Rows) error {
		var d entity.DetalleCompra
		if err := rows.Scan(&d.FacID, &d.DetFacID, &d.CLoteStock, &d.QArticulo, &d.CArticulo, &d.Cosecha, &d.CDeposito); err != nil {
			return err
		}
		renglones = append(renglones, d)
		if d.CArticulo != nil {
			articulos = append(articulos, *d.CArticulo)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("detalle de facturas de compra: %w", err)
	}
	if len(renglones) == 0 {
		return nil, nil
	}

	temporadas, err := r.articulosClasificados(ctx, articulos)
	if err != nil {
		return nil, err
	}

	var out []entity.DetalleCompra
	for _, d := range renglones {
		if d.CArticulo == nil {
			continue
		}
		temporada, esUvaOMosto := temporadas[*d.CArticulo]
		if !esUvaOMosto {
			continue
		}
		d.CTemporada = temporada
		if c, ok := cabeceras[d.FacID]; ok {
			d.FFactura = c.fecha
			d.CTipoCompro = c.cTipoCompro
		}
		out = append(out, d)
	}
	return out, nil
}

// DescubesEnRango devuelve los renglones de movimientos de descube (tipo 28).
func (r *FuenteMovimientosRepo) DescubesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleDescube, error) {
	cabeceras, mosIDs, err := r.movimientosEnRango(ctx, desde, hasta, []int64{entity.TipoDescube})
	if err != nil {
		return nil, fmt.Errorf("movimientos de descube: %w", err)
	}
	if len(mosIDs) == 0 {
		return nil, nil
	}

	var out []entity.DetalleDescube
	const sqlDetalle = `
		SELECT id, mos_id, c_lote, q_articulo
		FROM det_mov_stock
		WHERE mos_id = ANY($1)`
	err = consultarEnChunks(ctx, r.q, r.log, sqlDetalle, mosIDs, r.chunkSize, func(rows pgx.Rows) error {
		var d entity.DetalleDescube
		if err := rows.Scan(&d.DmsID, &d.MosID, &d.CLote, &d.QArticulo); err != nil {
			return err
		}
		if c, ok := cabeceras[d.MosID]; ok {
			d.FMovimiento = c.fecha
			d.CTipoCompro = c.cTipoCompro
		}
		out = append(out, d)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("detalle de descubes: %w", err)
	}
	return out, nil
}

// AjustesEnRango devuelve los renglones de ajustes de inventario (tipos 31 y
// 95), restringidos a artículos uva/mosto.
func (r *FuenteMovimientosRepo) AjustesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleAjuste, error) {
	cabeceras, mosIDs, err := r.movimientosEnRango(ctx, desde, hasta, []int64{entity.TipoAjuste, entity.TipoAjusteMasivo})
	if err != nil {
		return nil, fmt.Errorf("movimientos de ajuste: %w", err)
	}
	if len(mosIDs) == 0 {
		return nil, nil
	}

	var renglones []entity.DetalleAjuste
	var articulos []int64
	const sqlDetalle = `
		SELECT id, mos_id, c_lote, c_articulo, q_articulo, cosecha, c_deposito
		FROM det_mov_stock
		WHERE mos_id = ANY($1)`
	err = consultarEnChunks(ctx, r.q, r.log, sqlDetalle, mosIDs, r.chunkSize, func(rows pgx.Rows) error {
		var d entity.DetalleAjuste
		if err := rows.Scan(&d.DmsID, &d.MosID, &d.CLote, &d.CArticulo, &d.QArticulo, &d.Cosecha, &d.CDeposito); err != nil {
			return err
		}
		renglones = append(renglones, d)
		if d.CArticulo != nil {
			articulos = append(articulos, *d.CArticulo)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("detalle de ajustes: %w", err)
	}
	if len(renglones) == 0 {
		return nil, nil
	}

	temporadas, err := r.articulosClasificados(ctx, articulos)
	if err != nil {
		return nil, err
	}

	var out []entity.DetalleAjuste
	for _, d := range renglones {
		if d.CArticulo == nil {
			continue
		}
		temporada, esUvaOMosto := temporadas[*d.CArticulo]
		if !esUvaOMosto {
			continue
		}
		d.CTemporada = temporada
		if c, ok := cabeceras[d.MosID]; ok {
			d.FMovimiento = c.fecha
			d.CTipoCompro = c.cTipoCompro
		}
		out = append(out, d)
	}
	return out, nil
}

// TransformacionesEnRango devuelve los pares consumo/producción de las
// transformaciones (tipos 43, 30, 46) del rango, en orden cronológico: el
// resolutor depende de releer lo ya escrito, y procesar en orden de fecha
// reduce las iteraciones que necesitan las cadenas multi-salto.
func (r *FuenteMovimientosRepo) TransformacionesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.ParTransformacion, error) {
	const sqlCabeceras = `
		SELECT id, f_movimiento, c_tipo_compro
		FROM movim_stock
		WHERE c_tipo_compro = ANY($1)
		  AND f_movimiento >= $2 AND f_movimiento < $3 + interval '1 day'
		ORDER BY f_movimiento ASC, id ASC`
	tipos := []int64{entity.TipoMezcla, entity.TipoReclasificacion, entity.TipoBorras}
	cabeceras, mosIDs, err := r.cabecerasEnRango(ctx, sqlCabeceras, desde, hasta, tipos)
	if err != nil {
		return nil, fmt.Errorf("movimientos de transformación: %w", err)
	}
	if len(mosIDs) == 0 {
		return nil, nil
	}

	return r.emparejarTransformaciones(ctx, cabeceras, mosIDs)
}

// renglón de destino de una transformación (det_mov_stock).
type destinoTransformacion struct {
	mosID     int64
	cLote     *int64
	qArticulo decimal.Decimal
	cDeposito *int64
}

// emparejarTransformaciones une cada renglón de consumo (det_prod_comp) con
// su renglón de destino (det_mov_stock) vía dms_id, y devuelve los pares en
// el orden cronológico de sus cabeceras.
func (r *FuenteMovimientosRepo) emparejarTransformaciones(ctx context.Context, cabeceras map[int64]cabecera, mosIDs []int64) ([]entity.ParTransformacion, error) {
	destinos := make(map[int64]destinoTransformacion)
	const sqlDestinos = `
		SELECT id, mos_id, c_lote, q_articulo, c_deposito
		FROM det_mov_stock
		WHERE mos_id = ANY($1)`
	err := consultarEnChunks(ctx, r.q, r.log, sqlDestinos, mosIDs, r.chunkSize, func(rows pgx.Rows) error {
		var id int64
		var d destinoTransformacion
		if err := rows.Scan(&id, &d.mosID, &d.cLote, &d.qArticulo, &d.cDeposito); err != nil {
			return err
		}
		destinos[id] = d
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renglones de destino de transformaciones: %w", err)
	}

	porMovimiento := make(map[int64][]entity.ParTransformacion)
	const sqlConsumos = `
		SELECT dms_id, mos_id, id, c_lote, q_artic_comp, c_deposito
		FROM det_prod_comp
		WHERE mos_id = ANY($1)`
	err = consultarEnChunks(ctx, r.q, r.log, sqlConsumos, mosIDs, r.chunkSize, func(rows pgx.Rows) error {
		var p entity.ParTransformacion
		var dmsID *int64
		if err := rows.Scan(&dmsID, &p.MosID, &p.DpcID, &p.CLoteOrigen, &p.QOrigenUsada, &p.CDepositoOrigen); err != nil {
			return err
		}
		p.DmsID = dmsID
		if dmsID != nil {
			if d, ok := destinos[*dmsID]; ok {
				p.CLoteDestino = d.cLote
				p.QDestino = d.qArticulo
				p.CDepositoDestino = d.cDeposito
			}
		}
		if c, ok := cabeceras[p.MosID]; ok {
			p.FMovimiento = c.fecha
			p.CTipoCompro = c.cTipoCompro
		}
		porMovimiento[p.MosID] = append(porMovimiento[p.MosID], p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("renglones de consumo de transformaciones: %w", err)
	}

	var out []entity.ParTransformacion
	for _, mosID := range mosIDs {
		out = append(out, porMovimiento[mosID]...)
	}
	return out, nil
}

// ConsumosProduccion devuelve los consumos en producción o concentración
// (tipos 41, 44) de los lotes dados.
func (r *FuenteMovimientosRepo) ConsumosProduccion(ctx context.Context, lotes []int64) ([]entity.ConsumoDestino, error) {
	const sql = `
		SELECT dpc.c_lote, dpc.q_artic_comp, ms.id, ms.f_movimiento, ms.c_tipo_compro
		FROM det_prod_comp dpc
		JOIN movim_stock ms ON dpc.mos_id = ms.id
		WHERE dpc.c_lote = ANY($1) AND ms.c_tipo_compro IN (41, 44)`
	var out []entity.ConsumoDestino
	err := consultarEnChunks(ctx, r.q, r.log, sql, lotes, r.chunkSize, func(rows pgx.Rows) error {
		var c entity.ConsumoDestino
		if err := rows.Scan(&c.CLote, &c.CantidadUsada, &c.RefID, &c.FMovimiento, &c.CTipoCompro); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("consumos en producción: %w", err)
	}
	return out, nil
}

// Despachos devuelve las ventas despachadas (tipo 3) de los lotes dados.
func (r *FuenteMovimientosRepo) Despachos(ctx context.Context, lotes []int64) ([]entity.ConsumoDestino, error) {
	const sql = `
		SELECT dfv.c_lote_stock, dfv.q_articulo, fv.id, fv.f_factura, fv.c_tipo_compro
		FROM det_fac_ven dfv
		JOIN factura_ventas fv ON dfv.fac_id = fv.id
		WHERE dfv.c_lote_stock = ANY($1) AND fv.c_tipo_compro = 3`
	var out []entity.ConsumoDestino
	err := consultarEnChunks(ctx, r.q, r.log, sql, lotes, r.chunkSize, func(rows pgx.Rows) error {
		var c entity.ConsumoDestino
		if err := rows.Scan(&c.CLote, &c.CantidadUsada, &c.RefID, &c.FMovimiento, &c.CTipoCompro); err != nil {
			return err
		}
		out = append(out, c)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("despachos: %w", err)
	}
	return out, nil
}

// movimientosEnRango lee cabeceras de movim_stock filtradas por tipo y rango.
func (r *FuenteMovimientosRepo) movimientosEnRango(ctx context.Context, desde, hasta time.Time, tipos []int64) (map[int64]cabecera, []int64, error) {
	const sql = `
		SELECT id, f_movimiento, c_tipo_compro
		FROM movim_stock
		WHERE c_tipo_compro = ANY($1)
		  AND f_movimiento >= $2 AND f_movimiento < $3 + interval '1 day'`
	return r.cabecerasEnRango(ctx, sql, desde, hasta, tipos)
}
