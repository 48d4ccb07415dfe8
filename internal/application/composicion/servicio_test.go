package composicion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodegasur/trazavid/internal/domain"
	"github.com/bodegasur/trazavid/internal/domain/entity"
)

func fechas(t *testing.T) (time.Time, time.Time) {
	t.Helper()
	return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
}

func recolectar(ch <-chan Evento) []Evento {
	var out []Evento
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func servicioDePrueba(fuente *fuenteFake, traza *trazaFake, destinos *destinosFake) *Servicio {
	return NewServicio(fuente, &maestrosFake{}, &otsFake{}, traza, destinos, Opciones{}, nil)
}

func TestEjecutar_CorridaCompletaPuntaAPunta(t *testing.T) {
	// Compra de 800 A + 200 B al lote 100, mezcla de 500 del 100 al 200,
	// y un despacho del 200: la tabla termina con la herencia 80/20 y el
	// destino final registrado.
	lote100, lote200 := int64(100), int64(200)
	artA, artB := int64(11), int64(12)
	f := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	tempA, tempB := "A", "B"

	fuente := &fuenteFake{
		compras: []entity.DetalleCompra{
			{FacID: 1, DetFacID: ptr(int64(10)), CLoteStock: &lote100, QArticulo: decimal.NewFromInt(800),
				CArticulo: &artA, CTipoCompro: entity.TipoCompra, FFactura: &f, CTemporada: &tempA},
			{FacID: 1, DetFacID: ptr(int64(11)), CLoteStock: &lote100, QArticulo: decimal.NewFromInt(200),
				CArticulo: &artB, CTipoCompro: entity.TipoCompra, FFactura: &f, CTemporada: &tempB},
		},
		transformaciones: []entity.ParTransformacion{
			{MosID: 5, DmsID: ptr(int64(50)), CLoteOrigen: &lote100, CLoteDestino: &lote200,
				QOrigenUsada: decimal.NewFromInt(500), CTipoCompro: entity.TipoMezcla, FMovimiento: &f},
		},
		despachos: []entity.ConsumoDestino{
			{CLote: lote200, CantidadUsada: decimal.NewFromInt(450), FMovimiento: &f,
				RefID: ptr(int64(77)), CTipoCompro: entity.TipoDespacho},
		},
	}
	traza := &trazaFake{}
	destinos := &destinosFake{}
	svc := servicioDePrueba(fuente, traza, destinos)

	desde, hasta := fechas(t)
	eventos := recolectar(svc.Ejecutar(context.Background(), desde, hasta))

	require.NotEmpty(t, eventos)
	ultimo := eventos[len(eventos)-1]
	assert.True(t, ultimo.Terminal)
	assert.True(t, ultimo.OK, "terminó con error: %s", ultimo.Mensaje)
	for _, ev := range eventos[:len(eventos)-1] {
		assert.False(t, ev.Terminal, "evento terminal antes del final: %s", ev.Mensaje)
	}

	comp200 := map[string]decimal.Decimal{}
	for _, fila := range traza.filas {
		if fila.CLote != lote200 {
			continue
		}
		require.NotNil(t, fila.CVariedadInv)
		comp200[*fila.CVariedadInv] = fila.Cantidad
	}
	assert.True(t, comp200["A"].Equal(decimal.NewFromInt(400)), "A=%v", comp200)
	assert.True(t, comp200["B"].Equal(decimal.NewFromInt(100)), "B=%v", comp200)

	require.Len(t, destinos.registros, 1)
	assert.Equal(t, entity.DestinoDespachado, destinos.registros[0].TipoDestino)
	assert.Equal(t, lote200, destinos.registros[0].CLote)
}

func TestEjecutar_EsReejecutable(t *testing.T) {
	lote := int64(100)
	art := int64(11)
	f := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	temp := "A"
	fuente := &fuenteFake{
		compras: []entity.DetalleCompra{
			{FacID: 1, CLoteStock: &lote, QArticulo: decimal.NewFromInt(100),
				CArticulo: &art, CTipoCompro: entity.TipoCompra, FFactura: &f, CTemporada: &temp},
		},
	}
	traza := &trazaFake{}
	destinos := &destinosFake{}
	svc := servicioDePrueba(fuente, traza, destinos)

	desde, hasta := fechas(t)
	recolectar(svc.Ejecutar(context.Background(), desde, hasta))
	primera := len(traza.filas)
	recolectar(svc.Ejecutar(context.Background(), desde, hasta))

	assert.Equal(t, primera, len(traza.filas), "la segunda corrida duplicó filas")
	assert.Equal(t, 2, traza.limpiezas)
	assert.Equal(t, 2, destinos.limpiezas)
}

func TestEjecutar_UnaCorridaALaVez(t *testing.T) {
	svc := servicioDePrueba(&fuenteFake{}, &trazaFake{}, &destinosFake{})
	svc.enCurso.Store(true)
	desde, hasta := fechas(t)

	eventos := recolectar(svc.Ejecutar(context.Background(), desde, hasta))

	require.Len(t, eventos, 1)
	assert.True(t, eventos[0].Terminal)
	assert.False(t, eventos[0].OK)
	assert.Equal(t, domain.ErrCorridaEnCurso.Error(), eventos[0].Mensaje)
}

func TestEjecutar_RangoInvertidoTerminaConError(t *testing.T) {
	svc := servicioDePrueba(&fuenteFake{}, &trazaFake{}, &destinosFake{})
	desde, hasta := fechas(t)

	eventos := recolectar(svc.Ejecutar(context.Background(), hasta, desde))

	require.NotEmpty(t, eventos)
	ultimo := eventos[len(eventos)-1]
	assert.True(t, ultimo.Terminal)
	assert.False(t, ultimo.OK)
	assert.Contains(t, ultimo.Mensaje, domain.ErrRangoFechas.Error())
}

func TestEjecutar_MaestrosCaidosEsFatal(t *testing.T) {
	svc := NewServicio(&fuenteFake{}, &maestrosFake{falla: errors.New("sin conexión")},
		&otsFake{}, &trazaFake{}, &destinosFake{}, Opciones{}, nil)
	desde, hasta := fechas(t)

	eventos := recolectar(svc.Ejecutar(context.Background(), desde, hasta))

	ultimo := eventos[len(eventos)-1]
	assert.True(t, ultimo.Terminal)
	assert.False(t, ultimo.OK)
}

func TestEjecutar_ContextoCanceladoCorta(t *testing.T) {
	svc := servicioDePrueba(&fuenteFake{}, &trazaFake{}, &destinosFake{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	desde, hasta := fechas(t)

	eventos := recolectar(svc.Ejecutar(ctx, desde, hasta))

	// Con el contexto ya cancelado la corrida no llega al evento de éxito.
	for _, ev := range eventos {
		assert.False(t, ev.Terminal && ev.OK)
	}
}

func TestEjecutar_OTCaidaEsSoloAdvertencia(t *testing.T) {
	lote := int64(100)
	art := int64(11)
	f := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	temp := "A"
	fuente := &fuenteFake{
		compras: []entity.DetalleCompra{
			{FacID: 1, CLoteStock: &lote, QArticulo: decimal.NewFromInt(100),
				CArticulo: &art, CTipoCompro: entity.TipoCompra, FFactura: &f, CTemporada: &temp},
		},
	}
	traza := &trazaFake{}
	svc := NewServicio(fuente, &maestrosFake{}, &otsFake{falla: errors.New("vista ausente")},
		traza, &destinosFake{}, Opciones{}, nil)
	desde, hasta := fechas(t)

	eventos := recolectar(svc.Ejecutar(context.Background(), desde, hasta))

	ultimo := eventos[len(eventos)-1]
	assert.True(t, ultimo.OK, "la falla de OT no debería ser fatal: %s", ultimo.Mensaje)
	assert.Len(t, traza.filas, 1)

	hayAdvertencia := false
	for _, ev := range eventos {
		if ev.Nivel == NivelWarn {
			hayAdvertencia = true
		}
	}
	assert.True(t, hayAdvertencia)
}
