package composicion

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bodegasur/trazavid/internal/domain"
	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
	"github.com/bodegasur/trazavid/pkg/logger"
	"github.com/google/uuid"
)

// Opciones parámetros de la corrida de composición.
type Opciones struct {
	MaxIteraciones int    // tope del resolutor de transformaciones (<=0 usa 30)
	LogsDir        string // directorio del archivo de log por corrida; vacío = sin archivo
}

// Servicio orquesta la corrida completa de composición: limpia la tabla de
// hechos, corre los productores de aristas (compras, descubes, ajustes),
// resuelve las transformaciones por punto fijo y enlaza destinos finales,
// emitiendo eventos de progreso por un canal acotado.
type Servicio struct {
	fuente   repository.FuenteMovimientos
	maestros repository.Maestros
	ots      repository.OrdenesTrabajo
	traza    repository.TrazaDetalleRepository
	destinos repository.DestinoFinalRepository
	opciones Opciones
	log      *logger.Logger
	enCurso  atomic.Bool
}

// NewServicio construye el servicio de composición.
func NewServicio(
	fuente repository.FuenteMovimientos,
	maestros repository.Maestros,
	ots repository.OrdenesTrabajo,
	traza repository.TrazaDetalleRepository,
	destinos repository.DestinoFinalRepository,
	opciones Opciones,
	log *logger.Logger,
) *Servicio {
	if log == nil {
		log = logger.Nop()
	}
	return &Servicio{
		fuente:   fuente,
		maestros: maestros,
		ots:      ots,
		traza:    traza,
		destinos: destinos,
		opciones: opciones,
		log:      log,
	}
}

// Ejecutar lanza la corrida para el rango [desde, hasta] y devuelve el canal
// de eventos. El canal se cierra siempre, y el último evento es terminal
// (éxito o error); los errores nunca cruzan el canal como panic. Una sola
// corrida a la vez por proceso: la serialización entre procesos es externa.
func (s *Servicio) Ejecutar(ctx context.Context, desde, hasta time.Time) <-chan Evento {
	ch := make(chan Evento, 64)
	go func() {
		defer close(ch)
		em := &emisor{ctx: ctx, ch: ch}

		if !s.enCurso.CompareAndSwap(false, true) {
			em.terminalError(domain.ErrCorridaEnCurso)
			return
		}
		defer s.enCurso.Store(false)

		if s.opciones.LogsDir != "" {
			b, err := abrirBitacora(s.opciones.LogsDir, desde, hasta)
			if err != nil {
				em.warnf("sin archivo de log para esta corrida: %v", err)
			} else {
				em.reg = b
				defer b.cerrar()
			}
		}

		defer func() {
			if p := recover(); p != nil {
				em.terminalError(fmt.Errorf("pánico en la corrida de composición: %v", p))
			}
		}()

		s.correr(ctx, desde, hasta, em)
	}()
	return ch
}

func (s *Servicio) correr(ctx context.Context, desde, hasta time.Time, em *emisor) {
	corrida := uuid.New().String()[:8]
	lg := s.log.With().Str("corrida", corrida).Logger()
	lg.Info().Time("desde", desde).Time("hasta", hasta).Msg("iniciando corrida de composición")

	em.infof("Iniciando proceso de composición (corrida %s), rango %s a %s",
		corrida, desde.Format("2006-01-02"), hasta.Format("2006-01-02"))

	if desde.After(hasta) {
		em.terminalError(domain.ErrRangoFechas)
		return
	}

	// La corrida es re-ejecutable: arranca borrando los hechos previos.
	borradas, err := s.traza.LimpiarTodo(ctx)
	if err != nil {
		em.terminalError(fmt.Errorf("limpiar la tabla de hechos: %w", err))
		return
	}
	em.infof("Se borraron %d registros previos de la tabla de hechos", borradas)

	em.infof("Extrayendo datos maestros comunes...")
	lotes, err := s.maestros.Lotes(ctx)
	if err != nil {
		em.terminalError(fmt.Errorf("%w: lotes: %v", domain.ErrMaestrosNoLeidos, err))
		return
	}
	depositos, err := s.maestros.Depositos(ctx)
	if err != nil {
		em.terminalError(fmt.Errorf("%w: depósitos: %v", domain.ErrMaestrosNoLeidos, err))
		return
	}
	em.infof("Datos maestros extraídos: %d lotes, %d depósitos", len(lotes), len(depositos))

	fases := []func(context.Context, *emisor, map[int64]entity.LoteMaestro, map[int64]string, time.Time, time.Time) error{
		s.faseCompras,
		s.faseDescubes,
		s.faseAjustes,
		s.faseTransformaciones,
		s.faseDestinosFinales,
	}
	for _, fase := range fases {
		// La cancelación se consulta entre fases, no en medio de una consulta.
		if err := ctx.Err(); err != nil {
			em.terminalError(err)
			return
		}
		if err := fase(ctx, em, lotes, depositos, desde, hasta); err != nil {
			lg.Error().Err(err).Msg("corrida interrumpida")
			em.terminalError(err)
			return
		}
	}

	lg.Info().Msg("corrida de composición finalizada")
	em.terminalOK("Proceso finalizado.")
}

func (s *Servicio) faseCompras(ctx context.Context, em *emisor, lotes map[int64]entity.LoteMaestro, depositos map[int64]string, desde, hasta time.Time) error {
	em.infof("--- Iniciando procesamiento de compras (tipo 13) ---")
	detalles, err := s.fuente.ComprasEnRango(ctx, desde, hasta)
	if err != nil {
		return fmt.Errorf("leer compras: %w", err)
	}
	if len(detalles) == 0 {
		em.infof("No se encontraron compras en el período")
		return nil
	}
	filas := ProducirCompras(detalles, lotes, depositos)
	em.infof("Enriqueciendo compras con datos de órdenes de trabajo...")
	if err := enriquecerOT(ctx, s.ots, filas); err != nil {
		em.warnf("compras sin enriquecer con órdenes de trabajo: %v", err)
	}
	if err := s.traza.Agregar(ctx, filas); err != nil {
		return fmt.Errorf("guardar compras: %w", err)
	}
	em.infof("%d registros de compras guardados", len(filas))
	return nil
}

func (s *Servicio) faseDescubes(ctx context.Context, em *emisor, _ map[int64]entity.LoteMaestro, _ map[int64]string, desde, hasta time.Time) error {
	em.infof("--- Iniciando procesamiento de descubes (tipo 28) ---")
	detalles, err := s.fuente.DescubesEnRango(ctx, desde, hasta)
	if err != nil {
		return fmt.Errorf("leer descubes: %w", err)
	}
	if len(detalles) == 0 {
		em.infof("No hay movimientos de descube en el período")
		return nil
	}
	filas := ProducirDescubes(detalles)
	if len(filas) == 0 {
		em.infof("Los descubes del período no generaron transferencias")
		return nil
	}
	em.infof("Enriqueciendo descubes con datos de órdenes de trabajo...")
	if err := enriquecerOT(ctx, s.ots, filas); err != nil {
		em.warnf("descubes sin enriquecer con órdenes de trabajo: %v", err)
	}
	if err := s.traza.Agregar(ctx, filas); err != nil {
		return fmt.Errorf("guardar descubes: %w", err)
	}
	em.infof("%d registros de descubes guardados", len(filas))
	return nil
}

func (s *Servicio) faseAjustes(ctx context.Context, em *emisor, lotes map[int64]entity.LoteMaestro, depositos map[int64]string, desde, hasta time.Time) error {
	em.infof("--- Iniciando procesamiento de ajustes de inventario (tipos 31, 95) ---")
	detalles, err := s.fuente.AjustesEnRango(ctx, desde, hasta)
	if err != nil {
		return fmt.Errorf("leer ajustes: %w", err)
	}
	if len(detalles) == 0 {
		em.infof("No se encontraron ajustes de inventario en el período")
		return nil
	}
	filas := ProducirAjustes(detalles, lotes, depositos)
	em.infof("Enriqueciendo ajustes con datos de órdenes de trabajo...")
	if err := enriquecerOT(ctx, s.ots, filas); err != nil {
		em.warnf("ajustes sin enriquecer con órdenes de trabajo: %v", err)
	}
	if err := s.traza.Agregar(ctx, filas); err != nil {
		return fmt.Errorf("guardar ajustes: %w", err)
	}
	em.infof("%d registros de ajustes guardados", len(filas))
	return nil
}

func (s *Servicio) faseTransformaciones(ctx context.Context, em *emisor, lotes map[int64]entity.LoteMaestro, depositos map[int64]string, desde, hasta time.Time) error {
	em.infof("--- Iniciando procesamiento de transformaciones (tipos 43, 30, 46) ---")
	pares, err := s.fuente.TransformacionesEnRango(ctx, desde, hasta)
	if err != nil {
		return fmt.Errorf("leer transformaciones: %w", err)
	}
	if len(pares) == 0 {
		em.infof("No se encontraron transformaciones en el período")
		return nil
	}
	resolutor := NewResolutor(s.traza, s.ots, s.opciones.MaxIteraciones)
	faltantes, err := resolutor.Resolver(ctx, pares, lotes, depositos, em.fn())
	if err != nil {
		return err
	}
	if len(faltantes) == 0 {
		em.infof("No se encontraron lotes origen sin composición durante las transformaciones")
		return nil
	}
	em.warnf("Reporte de lotes origen sin composición (%d pares):", len(faltantes))
	for _, p := range deduplicarFaltantes(faltantes) {
		em.warnf("  movimiento %d: origen %s -> destino %s (detalle %s, fecha %s)",
			p.MosID, campo(p.CLoteOrigen), campo(p.CLoteDestino), campo(p.DmsID), campo(p.FMovimiento))
	}
	return nil
}

func (s *Servicio) faseDestinosFinales(ctx context.Context, em *emisor, _ map[int64]entity.LoteMaestro, _ map[int64]string, _, _ time.Time) error {
	em.infof("--- Iniciando procesamiento de destinos finales ---")
	lotesComp, err := s.traza.LotesConComposicion(ctx)
	if err != nil {
		return fmt.Errorf("lotes con composición: %w", err)
	}
	enlazador := NewEnlazadorDestinos(s.fuente, s.destinos)
	n, err := enlazador.Enlazar(ctx, lotesComp, em.fn())
	if err != nil {
		return err
	}
	if n > 0 {
		em.infof("%d registros de destinos finales guardados", n)
	}
	return nil
}

// deduplicarFaltantes colapsa el reporte de pendientes a pares únicos
// (movimiento, detalle, origen, destino).
func deduplicarFaltantes(pares []entity.ParTransformacion) []entity.ParTransformacion {
	vistos := make(map[string]struct{}, len(pares))
	var out []entity.ParTransformacion
	for _, p := range pares {
		k := fmt.Sprintf("%d|%s|%s|%s", p.MosID, campo(p.DmsID), campo(p.CLoteOrigen), campo(p.CLoteDestino))
		if _, ok := vistos[k]; ok {
			continue
		}
		vistos[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
