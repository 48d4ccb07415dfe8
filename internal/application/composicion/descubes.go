package composicion

import (
	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ProducirDescubes convierte los renglones de descube (tipo 28) en aristas.
// Regla: para cada movimiento, sumar la cantidad por lote; el lote con mayor
// suma es el destino y cada uno de los demás genera una arista origen->destino
// con su suma. Empate en el máximo: gana el primero encontrado (orden estable
// de llegada), tolerante en vez de error porque los empates reales son raros.
func ProducirDescubes(detalles []entity.DetalleDescube) []entity.TrazaDetalle {
	type suma struct {
		lote     int64
		cantidad decimal.Decimal
	}

	// Sumas por (mos_id, c_lote) preservando orden de llegada por movimiento.
	porMovimiento := make(map[int64][]*suma)
	indice := make(map[int64]map[int64]*suma)
	fechas := make(map[int64]*entity.DetalleDescube)
	var ordenMovs []int64

	for i := range detalles {
		d := &detalles[i]
		if d.CLote == nil {
			continue
		}
		if _, ok := indice[d.MosID]; !ok {
			indice[d.MosID] = make(map[int64]*suma)
			ordenMovs = append(ordenMovs, d.MosID)
			fechas[d.MosID] = d
		}
		if s, ok := indice[d.MosID][*d.CLote]; ok {
			s.cantidad = s.cantidad.Add(d.QArticulo)
			continue
		}
		s := &suma{lote: *d.CLote, cantidad: d.QArticulo}
		indice[d.MosID][*d.CLote] = s
		porMovimiento[d.MosID] = append(porMovimiento[d.MosID], s)
	}

	var filas []entity.TrazaDetalle
	for _, mosID := range ordenMovs {
		sumas := porMovimiento[mosID]
		if len(sumas) < 2 {
			continue // sin origen y destino distintos no hay transferencia
		}
		destino := sumas[0]
		for _, s := range sumas[1:] {
			if s.cantidad.GreaterThan(destino.cantidad) {
				destino = s
			}
		}
		cab := fechas[mosID]
		for _, s := range sumas {
			if s.lote == destino.lote {
				continue
			}
			filas = append(filas, entity.TrazaDetalle{
				CLote:       destino.lote,
				Cantidad:    s.cantidad,
				MosID:       ptr(mosID),
				CTipoCompro: ptr(cab.CTipoCompro),
				FMovimiento: cab.FMovimiento,
				CLoteOrigen: ptr(s.lote),
				Origen:      entity.OrigenDescube,
			})
		}
	}
	return filas
}
