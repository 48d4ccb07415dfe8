package composicion

import (
	"context"
	"fmt"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
)

// EnlazadorDestinos cierra el balance de masa: para los lotes que ya tienen
// composición busca sus consumos aguas abajo (producción, concentración,
// despacho) y reescribe la tabla de destinos finales.
type EnlazadorDestinos struct {
	fuente   repository.FuenteMovimientos
	destinos repository.DestinoFinalRepository
}

// NewEnlazadorDestinos construye el enlazador.
func NewEnlazadorDestinos(fuente repository.FuenteMovimientos, destinos repository.DestinoFinalRepository) *EnlazadorDestinos {
	return &EnlazadorDestinos{fuente: fuente, destinos: destinos}
}

// Enlazar limpia la tabla de destinos y la reconstruye para los lotes dados.
// Devuelve cuántos registros se escribieron.
func (e *EnlazadorDestinos) Enlazar(ctx context.Context, lotes []int64, emitir EmitirFunc) (int, error) {
	if err := e.destinos.LimpiarTodo(ctx); err != nil {
		return 0, fmt.Errorf("limpiar destinos finales: %w", err)
	}
	if len(lotes) == 0 {
		emitir(NivelInfo, "no hay lotes con composición para buscar su destino")
		return 0, nil
	}

	var registros []entity.DestinoFinal

	produccion, err := e.fuente.ConsumosProduccion(ctx, lotes)
	if err != nil {
		return 0, fmt.Errorf("consumos en producción/concentración: %w", err)
	}
	for _, c := range produccion {
		tipo := entity.DestinoProduccion
		if c.CTipoCompro == entity.TipoConcentracion {
			tipo = entity.DestinoConcentracion
		}
		registros = append(registros, entity.DestinoFinal{
			CLote:              c.CLote,
			TipoDestino:        tipo,
			CantidadUsada:      c.CantidadUsada,
			FMovimientoDestino: c.FMovimiento,
			MosIDDestino:       c.RefID,
		})
	}
	if len(produccion) > 0 {
		emitir(NivelInfo, fmt.Sprintf("se encontraron %d destinos en producción/concentración", len(produccion)))
	}

	despachos, err := e.fuente.Despachos(ctx, lotes)
	if err != nil {
		return 0, fmt.Errorf("despachos: %w", err)
	}
	for _, c := range despachos {
		registros = append(registros, entity.DestinoFinal{
			CLote:              c.CLote,
			TipoDestino:        entity.DestinoDespachado,
			CantidadUsada:      c.CantidadUsada,
			FMovimientoDestino: c.FMovimiento,
			MosIDDestino:       c.RefID,
		})
	}
	if len(despachos) > 0 {
		emitir(NivelInfo, fmt.Sprintf("se encontraron %d destinos en despachos", len(despachos)))
	}

	if len(registros) == 0 {
		emitir(NivelInfo, "no se encontró ningún destino final para los lotes procesados")
		return 0, nil
	}
	if err := e.destinos.Agregar(ctx, registros); err != nil {
		return 0, fmt.Errorf("guardar destinos finales: %w", err)
	}
	return len(registros), nil
}
