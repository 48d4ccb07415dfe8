package composicion

import (
	"context"

	"github.com/bodegasur/trazavid/internal/domain/entity"
	"github.com/bodegasur/trazavid/internal/domain/repository"
)

// truncarDeposito recorta la descripción de un depósito al largo persistible.
func truncarDeposito(d *string) *string {
	if d == nil {
		return nil
	}
	s := *d
	if len(s) > entity.MaxLenDeposito {
		s = s[:entity.MaxLenDeposito]
	}
	return &s
}

// descripcionDeposito busca la descripción en el maestro, ya truncada.
func descripcionDeposito(depositos map[int64]string, c *int64) *string {
	if c == nil {
		return nil
	}
	d, ok := depositos[*c]
	if !ok {
		return nil
	}
	return truncarDeposito(&d)
}

// enriquecerOT cruza las filas con la vista de órdenes de trabajo por mos_id.
// El enriquecimiento es opcional: si la consulta falla se devuelven las filas
// sin tocar y el error para que el llamador lo reporte como advertencia.
func enriquecerOT(ctx context.Context, ots repository.OrdenesTrabajo, filas []entity.TrazaDetalle) error {
	if len(filas) == 0 || ots == nil {
		return nil
	}
	vistos := make(map[int64]struct{})
	var ids []int64
	for _, f := range filas {
		if f.MosID == nil {
			continue
		}
		if _, ok := vistos[*f.MosID]; ok {
			continue
		}
		vistos[*f.MosID] = struct{}{}
		ids = append(ids, *f.MosID)
	}
	if len(ids) == 0 {
		return nil
	}
	porCierre, err := ots.PorCierre(ctx, ids)
	if err != nil {
		return err
	}
	for i := range filas {
		if filas[i].MosID == nil {
			continue
		}
		if ot, ok := porCierre[*filas[i].MosID]; ok {
			filas[i].OT = ot
		}
	}
	return nil
}
