package composicion

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bodegasur/trazavid/internal/domain/entity"
)

func TestEnlazar_ClasificaPorTipoDeComprobante(t *testing.T) {
	f := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	fuente := &fuenteFake{
		produccion: []entity.ConsumoDestino{
			{CLote: 1, CantidadUsada: decimal.NewFromInt(100), FMovimiento: &f, CTipoCompro: entity.TipoProduccion},
			{CLote: 2, CantidadUsada: decimal.NewFromInt(200), FMovimiento: &f, CTipoCompro: entity.TipoConcentracion},
		},
		despachos: []entity.ConsumoDestino{
			{CLote: 3, CantidadUsada: decimal.NewFromInt(300), FMovimiento: &f, CTipoCompro: entity.TipoDespacho},
		},
	}
	destinos := &destinosFake{}
	e := NewEnlazadorDestinos(fuente, destinos)

	n, err := e.Enlazar(context.Background(), []int64{1, 2, 3}, emitirNada)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	porLote := make(map[int64]string)
	for _, r := range destinos.registros {
		porLote[r.CLote] = r.TipoDestino
	}
	assert.Equal(t, entity.DestinoProduccion, porLote[1])
	assert.Equal(t, entity.DestinoConcentracion, porLote[2])
	assert.Equal(t, entity.DestinoDespachado, porLote[3])
}

func TestEnlazar_LimpiaAunqueNoHayaLotes(t *testing.T) {
	destinos := &destinosFake{registros: []entity.DestinoFinal{{CLote: 9}}}
	e := NewEnlazadorDestinos(&fuenteFake{}, destinos)

	n, err := e.Enlazar(context.Background(), nil, emitirNada)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, destinos.registros)
	assert.Equal(t, 1, destinos.limpiezas)
}
