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

func par(mosID int64, origen, destino int64, qUsada string) entity.ParTransformacion {
	f := time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)
	return entity.ParTransformacion{
		MosID:        mosID,
		DmsID:        ptr(mosID * 10),
		CLoteOrigen:  &origen,
		CLoteDestino: &destino,
		QOrigenUsada: decimal.RequireFromString(qUsada),
		CTipoCompro:  entity.TipoMezcla,
		FMovimiento:  &f,
	}
}

func TestResolver_RepartoProRata(t *testing.T) {
	// Lote 100 compuesto por 800 de variedad A y 200 de variedad B; una mezcla
	// usa 500 del lote 100 hacia el lote 200 -> el destino hereda 400/100.
	a, b := "A", "B"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(800), Origen: entity.OrigenCompra},
		{CLote: 100, CVariedadInv: &b, Cantidad: decimal.NewFromInt(200), Origen: entity.OrigenCompra},
	}}
	r := NewResolutor(traza, &otsFake{}, 0)

	faltantes, err := r.Resolver(context.Background(), []entity.ParTransformacion{par(1, 100, 200, "500")}, nil, nil, emitirNada)

	require.NoError(t, err)
	assert.Empty(t, faltantes)

	var porVariedad = map[string]decimal.Decimal{}
	total := decimal.Zero
	for _, f := range traza.filas {
		if f.CLote != 200 {
			continue
		}
		assert.Equal(t, entity.OrigenMezcla, f.Origen)
		require.NotNil(t, f.CVariedadInv)
		porVariedad[*f.CVariedadInv] = f.Cantidad
		total = total.Add(f.Cantidad)
	}
	assert.True(t, porVariedad["A"].Equal(decimal.NewFromInt(400)), "A=%s", porVariedad["A"])
	assert.True(t, porVariedad["B"].Equal(decimal.NewFromInt(100)), "B=%s", porVariedad["B"])
	// Conservación de masa: lo transferido suma exactamente lo consumido.
	assert.True(t, total.Equal(decimal.NewFromInt(500)))
}

func TestResolver_MultiSaltoEnSegundaIteracion(t *testing.T) {
	// 100 -> 200 -> 300: la segunda transformación depende de lo que la
	// primera escribe, así que necesita otra iteración del punto fijo.
	a := "A"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(1000), Origen: entity.OrigenCompra},
	}}
	r := NewResolutor(traza, &otsFake{}, 0)

	pares := []entity.ParTransformacion{
		par(2, 200, 300, "300"), // aún sin composición en la primera pasada
		par(1, 100, 200, "600"),
	}
	faltantes, err := r.Resolver(context.Background(), pares, nil, nil, emitirNada)

	require.NoError(t, err)
	assert.Empty(t, faltantes)

	comp300 := traza.composicionDe(300)
	require.Len(t, comp300, 1)
	assert.True(t, comp300["200"].Equal(decimal.NewFromInt(300)), "300=%v", comp300)
}

func TestResolver_OrigenSinComposicionQuedaComoFaltante(t *testing.T) {
	traza := &trazaFake{}
	r := NewResolutor(traza, &otsFake{}, 0)

	faltantes, err := r.Resolver(context.Background(), []entity.ParTransformacion{par(1, 100, 200, "500")}, nil, nil, emitirNada)

	require.NoError(t, err)
	require.Len(t, faltantes, 1)
	assert.Equal(t, int64(100), *faltantes[0].CLoteOrigen)
	assert.Empty(t, traza.filas)
}

func TestResolver_AutoTransferenciaSeDescarta(t *testing.T) {
	a := "A"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(100), Origen: entity.OrigenCompra},
	}}
	r := NewResolutor(traza, &otsFake{}, 0)

	faltantes, err := r.Resolver(context.Background(), []entity.ParTransformacion{par(1, 100, 100, "50")}, nil, nil, emitirNada)

	require.NoError(t, err)
	assert.Empty(t, faltantes)
	assert.Len(t, traza.filas, 1) // solo la compra original
}

func TestResolver_TotalCeroNoTransfiere(t *testing.T) {
	// Composición con cantidad neta cero: el reparto trata el total como 1 y
	// nada supera el umbral, así que el par se consume sin generar filas.
	a := "A"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.Zero, Origen: entity.OrigenAjuste},
	}}
	r := NewResolutor(traza, &otsFake{}, 0)

	faltantes, err := r.Resolver(context.Background(), []entity.ParTransformacion{par(1, 100, 200, "500")}, nil, nil, emitirNada)

	require.NoError(t, err)
	assert.Empty(t, faltantes)
	assert.Empty(t, traza.composicionDe(200))
}

func TestResolver_CicloSinProgresoCorta(t *testing.T) {
	// 100 y 200 se alimentan mutuamente y ninguno tiene composición previa:
	// ninguna iteración progresa y el resolutor corta reportando ambos.
	traza := &trazaFake{}
	r := NewResolutor(traza, &otsFake{}, 0)

	pares := []entity.ParTransformacion{
		par(1, 100, 200, "500"),
		par(2, 200, 100, "500"),
	}
	faltantes, err := r.Resolver(context.Background(), pares, nil, nil, emitirNada)

	require.NoError(t, err)
	assert.Len(t, faltantes, 2)
}

func TestResolver_RespetaElTopeDeIteraciones(t *testing.T) {
	a := "A"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(1000), Origen: entity.OrigenCompra},
	}}
	// Cadena 100 -> 101 -> 102 -> 103 en orden inverso: cada iteración
	// resuelve un solo eslabón. Con tope 2 quedan eslabones pendientes.
	pares := []entity.ParTransformacion{
		par(3, 102, 103, "100"),
		par(2, 101, 102, "200"),
		par(1, 100, 101, "400"),
	}
	r := NewResolutor(traza, &otsFake{}, 2)

	faltantes, err := r.Resolver(context.Background(), pares, nil, nil, emitirNada)

	require.NoError(t, err)
	require.Len(t, faltantes, 1)
	assert.Equal(t, int64(3), faltantes[0].MosID)
}

func TestResolver_AgrupaComponentesIguales(t *testing.T) {
	// Dos componentes idénticos del origen colapsan en una sola fila sumada.
	a := "A"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(300), Origen: entity.OrigenCompra},
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(700), Origen: entity.OrigenCompra},
	}}
	r := NewResolutor(traza, &otsFake{}, 0)

	_, err := r.Resolver(context.Background(), []entity.ParTransformacion{par(1, 100, 200, "100")}, nil, nil, emitirNada)
	require.NoError(t, err)

	var filas200 []entity.TrazaDetalle
	for _, f := range traza.filas {
		if f.CLote == 200 {
			filas200 = append(filas200, f)
		}
	}
	require.Len(t, filas200, 1)
	assert.True(t, filas200[0].Cantidad.Equal(decimal.NewFromInt(100)))
}

func TestResolver_RedondeaACincoDecimales(t *testing.T) {
	a, b, c := "A", "B", "C"
	traza := &trazaFake{filas: []entity.TrazaDetalle{
		{CLote: 100, CVariedadInv: &a, Cantidad: decimal.NewFromInt(1), Origen: entity.OrigenCompra},
		{CLote: 100, CVariedadInv: &b, Cantidad: decimal.NewFromInt(1), Origen: entity.OrigenCompra},
		{CLote: 100, CVariedadInv: &c, Cantidad: decimal.NewFromInt(1), Origen: entity.OrigenCompra},
	}}
	r := NewResolutor(traza, &otsFake{}, 0)

	_, err := r.Resolver(context.Background(), []entity.ParTransformacion{par(1, 100, 200, "1")}, nil, nil, emitirNada)
	require.NoError(t, err)

	for _, f := range traza.filas {
		if f.CLote != 200 {
			continue
		}
		// 1/3 redondeado a 5 decimales
		assert.True(t, f.Cantidad.Equal(decimal.RequireFromString("0.33333")), "cantidad=%s", f.Cantidad)
		assert.Equal(t, int32(-5), min32(f.Cantidad.Exponent(), 0), "más de 5 decimales")
	}
}

func min32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}
