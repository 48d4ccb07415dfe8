package composicion

import (
	"github.com/bodegasur/trazavid/internal/domain/entity"
)

// ProducirAjustes convierte renglones de ajuste de inventario (tipos 31, 95)
// en aristas con lote origen nulo: una corrección sin fuente rastreable.
func ProducirAjustes(
	detalles []entity.DetalleAjuste,
	lotes map[int64]entity.LoteMaestro,
	depositos map[int64]string,
) []entity.TrazaDetalle {
	filas := make([]entity.TrazaDetalle, 0, len(detalles))
	for _, d := range detalles {
		if d.CLote == nil {
			continue
		}
		fila := entity.TrazaDetalle{
			CLote:        *d.CLote,
			CVariedadInv: d.CTemporada,
			CPeriodo:     d.Cosecha,
			Cantidad:     d.QArticulo,
			MosID:        ptr(d.MosID),
			DetalleID:    d.DmsID,
			CTipoCompro:  ptr(d.CTipoCompro),
			FMovimiento:  d.FMovimiento,
			CDOrigen:     d.CDeposito,
			DDOrigen:     descripcionDeposito(depositos, d.CDeposito),
			Origen:       entity.OrigenAjuste,
		}
		if m, ok := lotes[*d.CLote]; ok {
			fila.IDSubvalle = m.IDSubvalle
			fila.ClaveExtLote = m.ClaveExterna
			fila.DLote = m.DLote
		}
		filas = append(filas, fila)
	}
	return filas
}
