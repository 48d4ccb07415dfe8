package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Filas crudas que entrega la fuente de movimientos (el ERP), ya unidas con
// sus cabeceras. Inmutables aguas arriba; este sistema solo las lee por rango
// de fechas.

// DetalleCompra renglón de factura de compra (tipo 13) unido con items de
// clasificación 4/14 (uva/mosto). CTemporada viene del artículo.
type DetalleCompra struct {
	FacID       int64
	DetFacID    *int64
	CLoteStock  *int64
	QArticulo   decimal.Decimal
	CArticulo   *int64
	Cosecha     *int64
	CDeposito   *int64
	CTipoCompro int64
	FFactura    *time.Time
	CTemporada  *string
}

// DetalleDescube renglón de det_mov_stock de un movimiento de descube (tipo 28).
type DetalleDescube struct {
	MosID       int64
	DmsID       *int64
	CLote       *int64
	QArticulo   decimal.Decimal
	CTipoCompro int64
	FMovimiento *time.Time
}

// DetalleAjuste renglón de ajuste de inventario (tipos 31, 95) unido con items 4/14.
type DetalleAjuste struct {
	MosID       int64
	DmsID       *int64
	CLote       *int64
	QArticulo   decimal.Decimal
	CArticulo   *int64
	Cosecha     *int64
	CDeposito   *int64
	CTipoCompro int64
	FMovimiento *time.Time
	CTemporada  *string
}

// ParTransformacion par consumo/producción de una transformación (tipos 43,
// 30, 46): el renglón de destino (det_mov_stock) emparejado con el renglón de
// origen consumido (det_prod_comp) del mismo movimiento.
type ParTransformacion struct {
	MosID            int64
	DmsID            *int64
	DpcID            *int64
	CLoteDestino     *int64
	CLoteOrigen      *int64
	QOrigenUsada     decimal.Decimal
	QDestino         decimal.Decimal
	CDepositoOrigen  *int64
	CDepositoDestino *int64
	CTipoCompro      int64
	FMovimiento      *time.Time
}

// ConsumoDestino evento de consumo aguas abajo de un lote resuelto
// (producción/concentración vía det_prod_comp, despacho vía det_fac_ven).
type ConsumoDestino struct {
	CLote         int64
	CantidadUsada decimal.Decimal
	FMovimiento   *time.Time
	RefID         *int64 // mos_id o fac_id según la fuente
	CTipoCompro   int64
}

// LoteMaestro datos maestros de un lote (solo enriquecimiento; su ausencia no
// frena el proceso).
type LoteMaestro struct {
	CLote        int64
	ClaveExterna *string
	IDSubvalle   *string
	DLote        *string
}
