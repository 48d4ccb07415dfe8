package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de destino final de un lote con composición.
const (
	DestinoProduccion    = "PRODUCCION"
	DestinoConcentracion = "CONCENTRACION"
	DestinoDespachado    = "DESPACHADO"
)

// DestinoFinal es una fila de apx_traza_destino_final: un consumo aguas abajo
// (producción, concentración o despacho) de un lote ya resuelto.
type DestinoFinal struct {
	CLote              int64
	TipoDestino        string
	CantidadUsada      decimal.Decimal // numeric(20,5)
	FMovimientoDestino *time.Time
	MosIDDestino       *int64 // id del movimiento o de la factura que consumió
}
