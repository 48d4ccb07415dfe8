package trazabilidad

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/bodegasur/trazavid/internal/application/dto"
	"github.com/bodegasur/trazavid/internal/domain"
	"github.com/bodegasur/trazavid/internal/domain/convert"
	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
	"github.com/bodegasur/trazavid/pkg/logger"
	"github.com/shopspring/decimal"
)

// Límites de los parámetros de consulta.
const (
	ProfundidadDefecto = 5
	ProfundidadMax     = 20
	ToleranciaDefecto  = 0.005
	ToleranciaMax      = 0.05
)

// Consulta parámetros de una traza por lote. CLote llega como string porque
// así viaja en la URL; se valida que sea numérico antes de tocar la base.
type Consulta struct {
	CLote           string
	MaxProfundidad  int
	Tolerancia      float64
	IncluirTimeline bool
}

// UseCase arma el árbol de orígenes de un lote recorriendo la tabla de hechos
// hacia atrás, nivel por nivel. Solo lee: la tabla la escribe la corrida de
// composición.
type UseCase struct {
	traza    repository.TrazaDetalleRepository
	destinos repository.DestinoFinalRepository
	maestros repository.Maestros
	log      *logger.Logger
}

// NewUseCase construye el caso de uso de trazabilidad.
func NewUseCase(
	traza repository.TrazaDetalleRepository,
	destinos repository.DestinoFinalRepository,
	maestros repository.Maestros,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{traza: traza, destinos: destinos, maestros: maestros, log: log}
}

// TrazarLote valida la consulta y construye la respuesta completa:
// identificación, balance, árbol de orígenes y timeline.
func (u *UseCase) TrazarLote(ctx context.Context, q Consulta) (*dto.RespuestaTraza, error) {
	cLote := convert.AEntero(q.CLote)
	if cLote == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrLoteNoNumerico, q.CLote)
	}
	if q.MaxProfundidad == 0 {
		q.MaxProfundidad = ProfundidadDefecto
	}
	if q.MaxProfundidad < 1 || q.MaxProfundidad > ProfundidadMax {
		return nil, fmt.Errorf("%w: max_depth debe estar entre 1 y %d", domain.ErrEntradaInvalida, ProfundidadMax)
	}
	if q.Tolerancia == 0 {
		q.Tolerancia = ToleranciaDefecto
	}
	if q.Tolerancia < 0 || q.Tolerancia > ToleranciaMax {
		return nil, fmt.Errorf("%w: tolerance debe estar entre 0 y %v", domain.ErrEntradaInvalida, ToleranciaMax)
	}

	nodos, timeline, totalNivel1, err := u.construirArbol(ctx, *cLote, q.MaxProfundidad)
	if err != nil {
		return nil, err
	}

	var tanque *string
	if m, errLote := u.maestros.Lote(ctx, *cLote); errLote == nil && m != nil {
		tanque = m.DLote
	} else if errLote != nil && !errors.Is(errLote, domain.ErrNoEncontrado) {
		// El maestro solo aporta la descripción; su caída no frena la consulta.
		u.log.Warn().Err(errLote).Int64("c_lote", *cLote).Msg("no se pudo leer el maestro del lote")
	}

	destinosFinales, err := u.destinos.SumaPorLote(ctx, *cLote)
	if err != nil {
		return nil, fmt.Errorf("suma de destinos finales: %w", err)
	}

	fIni, fFin := rangoFechas(nodos)

	resp := &dto.RespuestaTraza{
		Identificacion: dto.IdentificacionTraza{
			CLote:          strconv.FormatInt(*cLote, 10),
			TanqueActual:   tanque,
			FechaInicio:    fIni,
			FechaFin:       fFin,
			OrigenConsulta: "C_LOTE",
		},
		KPIs: dto.KPIsTraza{
			LtsDestino: totalNivel1.InexactFloat64(),
		},
		Balance:  armarBalance(totalNivel1, destinosFinales, q.Tolerancia),
		Origenes: nodos,
		Timeline: []dto.EventoTimeline{},
	}
	if q.IncluirTimeline {
		resp.Timeline = timeline
	}
	return resp, nil
}

// construirArbol hace el BFS hacia atrás sobre la tabla de hechos. Devuelve
// los nodos (raíz sintética incluida), el timeline sin ordenar filtrado a
// eventos con fecha, y el total de litros que entró al lote raíz (nivel 1).
func (u *UseCase) construirArbol(ctx context.Context, raiz int64, maxProfundidad int) ([]dto.NodoOrigen, []dto.EventoTimeline, decimal.Decimal, error) {
	nodoRaiz := dto.NodoOrigen{
		NodeID: fmt.Sprintf("ROOT-%d", raiz),
		Nivel:  0,
		Tipo:   "Lote",
		CLote:  strconv.FormatInt(raiz, 10),
	}
	nodos := []dto.NodoOrigen{nodoRaiz}
	var timeline []dto.EventoTimeline
	totalNivel1 := decimal.Zero

	type pendiente struct {
		lote    int64
		padreID string
		nivel   int
	}
	cola := []pendiente{{lote: raiz, padreID: nodoRaiz.NodeID, nivel: 0}}
	// Visitados globales: un lote se expande una sola vez aunque aparezca en
	// varias ramas, lo que garantiza terminación ante datos cíclicos.
	visitados := map[int64]struct{}{raiz: {}}

	for len(cola) > 0 {
		actual := cola[0]
		cola = cola[1:]
		if actual.nivel >= maxProfundidad {
			continue
		}

		aristas, err := u.traza.PorDestino(ctx, actual.lote)
		if err != nil {
			return nil, nil, decimal.Zero, fmt.Errorf("aristas hacia el lote %d: %w", actual.lote, err)
		}
		if len(aristas) == 0 {
			continue
		}

		totalNivel := decimal.Zero
		for _, a := range aristas {
			totalNivel = totalNivel.Add(a.Cantidad)
		}
		if actual.nivel == 0 {
			totalNivel1 = totalNivel
		}

		for idx, a := range aristas {
			nodo := nodoDesdeArista(&a, actual.lote, actual.padreID, actual.nivel, idx+1, totalNivel)
			nodos = append(nodos, nodo)

			if nodo.Fecha != nil {
				detalle := ""
				if nodo.OT != nil {
					detalle = fmt.Sprintf("OT %d", *nodo.OT)
				}
				timeline = append(timeline, dto.EventoTimeline{
					Fecha:     *nodo.Fecha,
					Evento:    nodo.Tipo,
					Detalle:   detalle,
					TkOrigen:  nodo.TkOrigen,
					TkDestino: nodo.TkDestino,
					Cantidad:  a.Cantidad.InexactFloat64(),
				})
			}

			if a.CLoteOrigen == nil {
				continue
			}
			if _, visto := visitados[*a.CLoteOrigen]; visto {
				continue
			}
			visitados[*a.CLoteOrigen] = struct{}{}
			cola = append(cola, pendiente{lote: *a.CLoteOrigen, padreID: nodo.NodeID, nivel: actual.nivel + 1})
		}
	}

	sort.SliceStable(timeline, func(i, j int) bool { return timeline[i].Fecha < timeline[j].Fecha })
	return nodos, timeline, totalNivel1, nil
}

func nodoDesdeArista(a *entity.TrazaDetalle, loteActual int64, padreID string, nivel, idx int, totalNivel decimal.Decimal) dto.NodoOrigen {
	cantidad := a.Cantidad.InexactFloat64()
	var contrib *float64
	if totalNivel.IsPositive() {
		v, _ := a.Cantidad.Div(totalNivel).Mul(decimal.NewFromInt(100)).Float64()
		contrib = &v
	}

	mos := int64(0)
	if a.MosID != nil {
		mos = *a.MosID
	}
	nodo := dto.NodoOrigen{
		NodeID:     fmt.Sprintf("%d-%d-%d-%d", nivel+1, loteActual, mos, idx),
		ParentID:   &padreID,
		Nivel:      nivel + 1,
		Tipo:       convert.TipoLegible(a.CTipoCompro),
		Fecha:      convert.AFechaISO(a.FMovimiento),
		OT:         a.MosID,
		TkOrigen:   etiquetaDeposito(a.DDOrigen, a.CDOrigen),
		TkDestino:  etiquetaDeposito(a.DDDestino, a.CDDestino),
		LtsIn:      &cantidad,
		LtsOut:     &cantidad,
		ContribPct: contrib,
		CLote:      strconv.FormatInt(loteActual, 10),
	}
	if a.CLoteOrigen != nil {
		s := strconv.FormatInt(*a.CLoteOrigen, 10)
		nodo.CLoteOrigen = &s
	}
	return nodo
}

// etiquetaDeposito prefiere la descripción; sin ella, el código como texto.
func etiquetaDeposito(descripcion *string, codigo *int64) *string {
	if descripcion != nil {
		return descripcion
	}
	if codigo != nil {
		s := strconv.FormatInt(*codigo, 10)
		return &s
	}
	return nil
}

// armarBalance compara lo que entró por el nivel 1 contra lo consumido aguas
// abajo. Sin consumos registrados el lote todavía está en bodega y el balance
// se compara contra sí mismo.
func armarBalance(nivel1, destinosFinales decimal.Decimal, tolerancia float64) dto.BalanceTraza {
	ltsOrigenes := nivel1.InexactFloat64()
	ltsDestino := ltsOrigenes
	if destinosFinales.IsPositive() {
		ltsDestino = destinosFinales.InexactFloat64()
	}
	ajuste := ltsOrigenes - ltsDestino
	diff := ajuste
	if diff < 0 {
		diff = -diff
	}
	maxBase := ltsOrigenes
	if maxBase < 1 {
		maxBase = 1
	}
	ok := ltsOrigenes == 0 || diff <= tolerancia*maxBase
	return dto.BalanceTraza{
		OK:                 ok,
		Tolerancia:         tolerancia,
		LtsOrigenes:        ltsOrigenes,
		LtsDestino:         ltsDestino,
		AjusteLts:          ajuste,
		LtsDestinosFinales: destinosFinales.InexactFloat64(),
	}
}

// rangoFechas devuelve la fecha mínima y máxima de los nodos (ISO-8601
// compara bien como texto).
func rangoFechas(nodos []dto.NodoOrigen) (*string, *string) {
	var minF, maxF *string
	for i := range nodos {
		f := nodos[i].Fecha
		if f == nil {
			continue
		}
		if minF == nil || *f < *minF {
			minF = f
		}
		if maxF == nil || *f > *maxF {
			maxF = f
		}
	}
	return minF, maxF
}
