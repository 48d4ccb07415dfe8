package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Orígenes de una arista de transferencia (columna origen de apx_traza_detalle).
const (
	OrigenCompra          = "Compra"
	OrigenDescube         = "Descube"
	OrigenAjuste          = "Ajuste Inv."
	OrigenMezcla          = "Mezcla"
	OrigenReclasificacion = "Reclasificacion"
	OrigenBorras          = "Borras"
	OrigenTransformacion  = "Transformacion"
)

// Códigos de tipo de comprobante del ERP.
const (
	TipoCompra          int64 = 13
	TipoDescube         int64 = 28
	TipoAjuste          int64 = 31
	TipoAjusteMasivo    int64 = 95
	TipoReclasificacion int64 = 30
	TipoMezcla          int64 = 43
	TipoBorras          int64 = 46
	TipoProduccion      int64 = 41
	TipoConcentracion   int64 = 44
	TipoDespacho        int64 = 3
)

// MaxLenDeposito largo máximo persistido para descripciones de depósito.
const MaxLenDeposito = 20

// OrdenTrabajo campos de enriquecimiento desde la vista de órdenes de trabajo,
// cruzados por mos_id (id_cierre en la vista). Todos opcionales.
type OrdenTrabajo struct {
	CTarea         *int64
	DTarea         *string
	ObsDestino     *string
	ObsGenerales   *string
	ObsOrigen      *string
	CantArtDestino *decimal.Decimal
	CantArtOrigen  *decimal.Decimal
}

// TrazaDetalle es una fila de la tabla de hechos apx_traza_detalle: la
// cantidad que entró al lote destino (CLote) desde un lote origen opcional,
// atribuida a un movimiento y clasificada por su causa (Origen).
// El conjunto de filas con el mismo CLote es la composición conocida del lote.
type TrazaDetalle struct {
	CLote          int64
	CVariedadInv   *string
	CPeriodo       *int64
	IDSubvalle     *string
	Cantidad       decimal.Decimal // numeric(20,5)
	ClaveExtLote   *string
	MosID          *int64
	DetalleID      *int64 // id del renglón de detalle que originó la fila
	CTipoCompro    *int64
	FMovimiento    *time.Time
	CLoteOrigen    *int64 // nil = origen externo (compra) o corrección (ajuste)
	PorcentajeSI   *decimal.Decimal
	CiuNumero      *int64
	NroInscripcion *string
	CodCuartel     *int64
	CuartelLog     *string
	DLote          *string
	CDOrigen       *int64
	DDOrigen       *string
	CDDestino      *int64
	DDDestino      *string
	Origen         string
	OT             OrdenTrabajo
}

// ComponenteComposicion es la proyección de apx_traza_detalle que necesita el
// resolutor de transformaciones: el componente de la composición de un lote
// con sus clasificadores de origen.
type ComponenteComposicion struct {
	CLote          int64
	CVariedadInv   *string
	CPeriodo       *int64
	IDSubvalle     *string
	Cantidad       decimal.Decimal
	ClaveExtLote   *string
	NroInscripcion *string
	CodCuartel     *int64
	CuartelLog     *string
	CiuNumero      *int64
}
