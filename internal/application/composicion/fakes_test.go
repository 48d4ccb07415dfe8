package composicion

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bodegasur/trazavid/internal/domain/entity"
)

// Fakes en memoria de los puertos, para probar el motor sin base de datos.

type trazaFake struct {
	filas     []entity.TrazaDetalle
	limpiezas int
}

func (t *trazaFake) LimpiarTodo(ctx context.Context) (int64, error) {
	t.limpiezas++
	n := int64(len(t.filas))
	t.filas = nil
	return n, nil
}

func (t *trazaFake) Agregar(ctx context.Context, filas []entity.TrazaDetalle) error {
	t.filas = append(t.filas, filas...)
	return nil
}

func (t *trazaFake) ComposicionPorLotes(ctx context.Context, lotes []int64) ([]entity.ComponenteComposicion, error) {
	buscados := make(map[int64]struct{}, len(lotes))
	for _, l := range lotes {
		buscados[l] = struct{}{}
	}
	var out []entity.ComponenteComposicion
	for _, f := range t.filas {
		if _, ok := buscados[f.CLote]; !ok {
			continue
		}
		out = append(out, entity.ComponenteComposicion{
			CLote:          f.CLote,
			CVariedadInv:   f.CVariedadInv,
			CPeriodo:       f.CPeriodo,
			IDSubvalle:     f.IDSubvalle,
			Cantidad:       f.Cantidad,
			ClaveExtLote:   f.ClaveExtLote,
			NroInscripcion: f.NroInscripcion,
			CodCuartel:     f.CodCuartel,
			CuartelLog:     f.CuartelLog,
			CiuNumero:      f.CiuNumero,
		})
	}
	return out, nil
}

func (t *trazaFake) LotesConComposicion(ctx context.Context) ([]int64, error) {
	vistos := make(map[int64]struct{})
	var out []int64
	for _, f := range t.filas {
		if _, ok := vistos[f.CLote]; ok {
			continue
		}
		vistos[f.CLote] = struct{}{}
		out = append(out, f.CLote)
	}
	return out, nil
}

func (t *trazaFake) PorDestino(ctx context.Context, cLote int64) ([]entity.TrazaDetalle, error) {
	var out []entity.TrazaDetalle
	for _, f := range t.filas {
		if f.CLote == cLote {
			out = append(out, f)
		}
	}
	return out, nil
}

// composicionDe devuelve las cantidades por lote origen del lote dado (nil = externo).
func (t *trazaFake) composicionDe(cLote int64) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, f := range t.filas {
		if f.CLote != cLote {
			continue
		}
		k := "externo"
		if f.CLoteOrigen != nil {
			k = decimal.NewFromInt(*f.CLoteOrigen).String()
		}
		if prev, ok := out[k]; ok {
			out[k] = prev.Add(f.Cantidad)
		} else {
			out[k] = f.Cantidad
		}
	}
	return out
}

type otsFake struct {
	porCierre map[int64]entity.OrdenTrabajo
	falla     error
}

func (o *otsFake) PorCierre(ctx context.Context, mosIDs []int64) (map[int64]entity.OrdenTrabajo, error) {
	if o.falla != nil {
		return nil, o.falla
	}
	out := make(map[int64]entity.OrdenTrabajo)
	for _, id := range mosIDs {
		if ot, ok := o.porCierre[id]; ok {
			out[id] = ot
		}
	}
	return out, nil
}

type fuenteFake struct {
	compras          []entity.DetalleCompra
	descubes         []entity.DetalleDescube
	ajustes          []entity.DetalleAjuste
	transformaciones []entity.ParTransformacion
	produccion       []entity.ConsumoDestino
	despachos        []entity.ConsumoDestino
}

func (f *fuenteFake) ComprasEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleCompra, error) {
	return f.compras, nil
}
func (f *fuenteFake) DescubesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleDescube, error) {
	return f.descubes, nil
}
func (f *fuenteFake) AjustesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.DetalleAjuste, error) {
	return f.ajustes, nil
}
func (f *fuenteFake) TransformacionesEnRango(ctx context.Context, desde, hasta time.Time) ([]entity.ParTransformacion, error) {
	return f.transformaciones, nil
}
func (f *fuenteFake) ConsumosProduccion(ctx context.Context, lotes []int64) ([]entity.ConsumoDestino, error) {
	return f.produccion, nil
}
func (f *fuenteFake) Despachos(ctx context.Context, lotes []int64) ([]entity.ConsumoDestino, error) {
	return f.despachos, nil
}

type maestrosFake struct {
	lotes     map[int64]entity.LoteMaestro
	depositos map[int64]string
	falla     error
}

func (m *maestrosFake) Lotes(ctx context.Context) (map[int64]entity.LoteMaestro, error) {
	if m.falla != nil {
		return nil, m.falla
	}
	return m.lotes, nil
}

func (m *maestrosFake) Lote(ctx context.Context, cLote int64) (*entity.LoteMaestro, error) {
	if l, ok := m.lotes[cLote]; ok {
		return &l, nil
	}
	return nil, nil
}

func (m *maestrosFake) Depositos(ctx context.Context) (map[int64]string, error) {
	if m.falla != nil {
		return nil, m.falla
	}
	return m.depositos, nil
}

type destinosFake struct {
	registros []entity.DestinoFinal
	limpiezas int
}

func (d *destinosFake) LimpiarTodo(ctx context.Context) error {
	d.limpiezas++
	d.registros = nil
	return nil
}

func (d *destinosFake) Agregar(ctx context.Context, registros []entity.DestinoFinal) error {
	d.registros = append(d.registros, registros...)
	return nil
}

func (d *destinosFake) SumaPorLote(ctx context.Context, cLote int64) (decimal.Decimal, error) {
	suma := decimal.Zero
	for _, r := range d.registros {
		if r.CLote == cLote {
			suma = suma.Add(r.CantidadUsada)
		}
	}
	return suma, nil
}

// emitirNada descarta los eventos de las fases en los tests que no los miran.
func emitirNada(string, string) {}
