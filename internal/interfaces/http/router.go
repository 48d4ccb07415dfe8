package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/bodegasur/trazavid/internal/application/composicion"
	"github.com/bodegasur/trazavid/internal/application/trazabilidad"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	TrazabilidadUC *trazabilidad.UseCase
	ComposicionSvc *composicion.Servicio
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api/v1")

	traza := api.Group("/trazabilidad")
	trazaHandler := NewTrazabilidadHandler(deps.TrazabilidadUC)
	traza.Get("/lote/:c_lote", trazaHandler.TrazarLote)

	comp := api.Group("/composicion")
	compHandler := NewComposicionHandler(deps.ComposicionSvc)
	comp.Post("/ejecutar", compHandler.Ejecutar)
}
