package composicion

import (
	"github.com/bodegasur/trazavid/internal/domain/entity"
)

// ProducirCompras convierte renglones de compra (tipo 13) en aristas de la
// tabla de hechos: una arista por renglón, con lote origen nulo (el material
// entra desde afuera del sistema). Renglones sin lote de stock se descartan.
func ProducirCompras(
	detalles []entity.DetalleCompra,
	lotes map[int64]entity.LoteMaestro,
	depositos map[int64]string,
) []entity.TrazaDetalle {
	filas := make([]entity.TrazaDetalle, 0, len(detalles))
	for _, d := range detalles {
		if d.CLoteStock == nil {
			continue
		}
		fila := entity.TrazaDetalle{
			CLote:        *d.CLoteStock,
			CVariedadInv: d.CTemporada,
			CPeriodo:     d.Cosecha,
			Cantidad:     d.QArticulo,
			MosID:        ptr(d.FacID),
			DetalleID:    d.DetFacID,
			CTipoCompro:  ptr(d.CTipoCompro),
			FMovimiento:  d.FFactura,
			CDOrigen:     d.CDeposito,
			DDOrigen:     descripcionDeposito(depositos, d.CDeposito),
			Origen:       entity.OrigenCompra,
		}
		if m, ok := lotes[*d.CLoteStock]; ok {
			fila.IDSubvalle = m.IDSubvalle
			fila.ClaveExtLote = m.ClaveExterna
			fila.DLote = m.DLote
		}
		filas = append(filas, fila)
	}
	return filas
}

func ptr[T any](v T) *T { return &v }
