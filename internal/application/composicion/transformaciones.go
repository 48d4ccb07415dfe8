package composicion

import (
	"context"
	"fmt"
	"strings"

	"github.com/bodegasur/trazavid/internal/domain/convert"
	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
	"github.com/shopspring/decimal"
)

// EmitirFunc recibe los mensajes de progreso de una fase.
type EmitirFunc func(nivel, mensaje string)

// umbralRuido: transferencias por debajo de esto se descartan como ruido de redondeo.
var umbralRuido = decimal.New(1, -9)

// Resolutor resuelve transformaciones (mezcla, reclasificación, borras) por
// punto fijo acotado: una transformación solo puede repartirse cuando su lote
// origen ya tiene composición en la tabla de hechos, así que se itera sobre
// las pendientes releyendo la tabla (que crece con cada iteración) hasta
// agotarlas, hasta que ninguna progrese o hasta el tope de seguridad.
type Resolutor struct {
	traza          repository.TrazaDetalleRepository
	ots            repository.OrdenesTrabajo
	maxIteraciones int
}

// NewResolutor construye el resolutor. maxIteraciones <= 0 usa el tope 30.
func NewResolutor(traza repository.TrazaDetalleRepository, ots repository.OrdenesTrabajo, maxIteraciones int) *Resolutor {
	if maxIteraciones <= 0 {
		maxIteraciones = 30
	}
	return &Resolutor{traza: traza, ots: ots, maxIteraciones: maxIteraciones}
}

// Resolver procesa los pares pendientes y agrega a la tabla de hechos las
// composiciones heredadas. Devuelve los pares que quedaron sin resolver
// (diagnóstico "lote origen sin composición", no un error). Un fallo al leer
// o escribir la tabla sí es error y corta la corrida.
func (r *Resolutor) Resolver(
	ctx context.Context,
	pares []entity.ParTransformacion,
	lotes map[int64]entity.LoteMaestro,
	depositos map[int64]string,
	emitir EmitirFunc,
) ([]entity.ParTransformacion, error) {
	var pendientes []entity.ParTransformacion
	for _, p := range pares {
		// Un par sin ambos lotes, o con origen == destino, no representa
		// transferencia alguna.
		if p.CLoteOrigen == nil || p.CLoteDestino == nil || *p.CLoteOrigen == *p.CLoteDestino {
			continue
		}
		pendientes = append(pendientes, p)
	}

	for iteracion := 1; len(pendientes) > 0; iteracion++ {
		if err := ctx.Err(); err != nil {
			return pendientes, err
		}
		if iteracion > r.maxIteraciones {
			emitir(NivelWarn, fmt.Sprintf(
				"se alcanzó el tope de %d iteraciones de seguridad; quedan %d pares sin resolver",
				r.maxIteraciones, len(pendientes)))
			return pendientes, nil
		}
		emitir(NivelInfo, fmt.Sprintf("--- Iteración de transformaciones %d ---", iteracion))
		antes := len(pendientes)

		origenes := lotesOrigen(pendientes)
		componentes, err := r.traza.ComposicionPorLotes(ctx, origenes)
		if err != nil {
			return pendientes, fmt.Errorf("composición de lotes origen: %w", err)
		}
		porLote := make(map[int64][]entity.ComponenteComposicion)
		for _, c := range componentes {
			porLote[c.CLote] = append(porLote[c.CLote], c)
		}

		var resolubles []entity.ParTransformacion
		for _, p := range pendientes {
			if _, ok := porLote[*p.CLoteOrigen]; ok {
				resolubles = append(resolubles, p)
			}
		}
		if len(resolubles) == 0 {
			emitir(NivelWarn, "ningún lote origen pendiente tiene composición disponible; se corta la resolución")
			return pendientes, nil
		}
		resueltos := movimientosDe(resolubles)
		emitir(NivelInfo, fmt.Sprintf("se procesarán %d transformaciones en esta iteración", len(resueltos)))

		filas := r.repartir(resolubles, porLote, lotes, depositos)
		if len(filas) == 0 {
			pendientes = sinMovimientos(pendientes, resueltos)
			emitir(NivelInfo, fmt.Sprintf(
				"ningún componente superó el umbral de transferencia; quedan %d pares pendientes", len(pendientes)))
			continue
		}

		filas = agrupar(filas)
		if err := enriquecerOT(ctx, r.ots, filas); err != nil {
			emitir(NivelWarn, "no se pudo enriquecer con órdenes de trabajo: "+err.Error())
		}
		if err := r.traza.Agregar(ctx, filas); err != nil {
			return pendientes, fmt.Errorf("guardar composiciones de la iteración %d: %w", iteracion, err)
		}
		emitir(NivelInfo, fmt.Sprintf("guardadas %d composiciones nuevas", len(filas)))

		pendientes = sinMovimientos(pendientes, resueltos)
		emitir(NivelInfo, fmt.Sprintf("quedan %d pares de transformación pendientes", len(pendientes)))
		if len(pendientes) == antes {
			emitir(NivelWarn, "la iteración no redujo las pendientes; se corta para evitar un ciclo infinito")
			return pendientes, nil
		}
	}

	emitir(NivelInfo, "todas las transformaciones fueron resueltas")
	return nil, nil
}

// repartir aplica el reparto pro-rata: el destino hereda cada componente del
// origen en proporción a cuánto del total del origen consumió. Total cero se
// trata como 1 (ningún componente supera el umbral y el par no transfiere).
func (r *Resolutor) repartir(
	resolubles []entity.ParTransformacion,
	porLote map[int64][]entity.ComponenteComposicion,
	lotes map[int64]entity.LoteMaestro,
	depositos map[int64]string,
) []entity.TrazaDetalle {
	var filas []entity.TrazaDetalle
	for _, p := range resolubles {
		comps := porLote[*p.CLoteOrigen]
		total := decimal.Zero
		for _, c := range comps {
			total = total.Add(c.Cantidad)
		}
		if total.IsZero() {
			total = decimal.NewFromInt(1)
		}
		origen := convert.OrigenTransformacion(p.CTipoCompro)
		for _, c := range comps {
			transferido := c.Cantidad.Mul(p.QOrigenUsada).Div(total).Round(5)
			if transferido.LessThanOrEqual(umbralRuido) {
				continue
			}
			fila := entity.TrazaDetalle{
				CLote:          *p.CLoteDestino,
				CVariedadInv:   c.CVariedadInv,
				CPeriodo:       c.CPeriodo,
				IDSubvalle:     c.IDSubvalle,
				Cantidad:       transferido,
				ClaveExtLote:   c.ClaveExtLote,
				MosID:          ptr(p.MosID),
				DetalleID:      p.DmsID,
				CTipoCompro:    ptr(p.CTipoCompro),
				FMovimiento:    p.FMovimiento,
				CLoteOrigen:    p.CLoteOrigen,
				CiuNumero:      c.CiuNumero,
				NroInscripcion: c.NroInscripcion,
				CodCuartel:     c.CodCuartel,
				CuartelLog:     c.CuartelLog,
				CDOrigen:       p.CDepositoOrigen,
				DDOrigen:       descripcionDeposito(depositos, p.CDepositoOrigen),
				CDDestino:      p.CDepositoDestino,
				DDDestino:      descripcionDeposito(depositos, p.CDepositoDestino),
				Origen:         origen,
			}
			if m, ok := lotes[*p.CLoteDestino]; ok {
				fila.DLote = m.DLote
			}
			filas = append(filas, fila)
		}
	}
	return filas
}

// agrupar colapsa filas idénticas en todo menos la cantidad, sumándolas.
// El orden de la primera aparición se preserva.
func agrupar(filas []entity.TrazaDetalle) []entity.TrazaDetalle {
	resultado := make([]entity.TrazaDetalle, 0, len(filas))
	indice := make(map[string]int, len(filas))
	for _, f := range filas {
		k := claveAgrupacion(&f)
		if i, ok := indice[k]; ok {
			resultado[i].Cantidad = resultado[i].Cantidad.Add(f.Cantidad)
			continue
		}
		indice[k] = len(resultado)
		resultado = append(resultado, f)
	}
	return resultado
}

func claveAgrupacion(f *entity.TrazaDetalle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s|%s",
		f.CLote,
		campo(f.CVariedadInv), campo(f.CPeriodo), campo(f.IDSubvalle),
		campo(f.ClaveExtLote), campo(f.MosID), campo(f.DetalleID),
		campo(f.CTipoCompro), campo(f.FMovimiento), campo(f.CLoteOrigen),
		campo(f.CiuNumero), campo(f.NroInscripcion), campo(f.CodCuartel),
		campo(f.CuartelLog), campo(f.DLote),
		campo(f.CDOrigen), campo(f.DDOrigen), campo(f.CDDestino), campo(f.DDDestino))
	b.WriteString("|" + f.Origen)
	return b.String()
}

func campo[T any](p *T) string {
	if p == nil {
		return "∅"
	}
	return fmt.Sprint(*p)
}

func lotesOrigen(pares []entity.ParTransformacion) []int64 {
	vistos := make(map[int64]struct{})
	var out []int64
	for _, p := range pares {
		if _, ok := vistos[*p.CLoteOrigen]; ok {
			continue
		}
		vistos[*p.CLoteOrigen] = struct{}{}
		out = append(out, *p.CLoteOrigen)
	}
	return out
}

// movimientosDe devuelve el conjunto de mos_id de los pares dados.
func movimientosDe(pares []entity.ParTransformacion) map[int64]struct{} {
	out := make(map[int64]struct{})
	for _, p := range pares {
		out[p.MosID] = struct{}{}
	}
	return out
}

// sinMovimientos filtra los pares cuyos movimientos ya fueron resueltos.
// Se quita el movimiento completo: si algunos de sus pares no se pudieron
// repartir, no se reintentan en iteraciones siguientes.
func sinMovimientos(pares []entity.ParTransformacion, resueltos map[int64]struct{}) []entity.ParTransformacion {
	out := pares[:0:0]
	for _, p := range pares {
		if _, ok := resueltos[p.MosID]; !ok {
			out = append(out, p)
		}
	}
	return out
}
