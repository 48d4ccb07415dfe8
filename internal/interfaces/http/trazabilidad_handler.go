package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bodegasur/trazavid/internal/application/dto"
	"github.com/bodegasur/trazavid/internal/application/trazabilidad"
	"github.com/bodegasur/trazavid/internal/domain"
)

// TrazabilidadHandler maneja la consulta de traza por lote.
type TrazabilidadHandler struct {
	uc *trazabilidad.UseCase
}

// NewTrazabilidadHandler construye el handler.
func NewTrazabilidadHandler(uc *trazabilidad.UseCase) *TrazabilidadHandler {
	return &TrazabilidadHandler{uc: uc}
}

// TrazarLote godoc
// @Summary      Traza hacia atrás de un lote
// @Description  Árbol de orígenes del lote sobre la tabla de hechos, con balance y timeline opcional.
// @Tags         trazabilidad
// @Produce      json
// @Param        c_lote     path   string  true   "Código de lote (numérico)"
// @Param        include    query  string  false  "Campos opcionales separados por coma: timeline"
// @Param        max_depth  query  int     false  "Profundidad máxima (1..20, default 5)"
// @Param        tolerance  query  number  false  "Tolerancia del balance (0..0.05, default 0.005)"
// @Success      200  {object}  dto.RespuestaTraza
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/v1/trazabilidad/lote/{c_lote} [get]
func (h *TrazabilidadHandler) TrazarLote(c *fiber.Ctx) error {
	include := strings.ToLower(c.Query("include", "timeline"))
	incluirTimeline := false
	for _, campo := range strings.Split(include, ",") {
		if strings.TrimSpace(campo) == "timeline" {
			incluirTimeline = true
		}
	}

	q := trazabilidad.Consulta{
		CLote:           c.Params("c_lote"),
		MaxProfundidad:  c.QueryInt("max_depth", trazabilidad.ProfundidadDefecto),
		Tolerancia:      c.QueryFloat("tolerance", trazabilidad.ToleranciaDefecto),
		IncluirTimeline: incluirTimeline,
	}

	resp, err := h.uc.TrazarLote(c.Context(), q)
	if err != nil {
		if errors.Is(err, domain.ErrLoteNoNumerico) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "LOTE_NO_NUMERICO", Message: err.Error()})
		}
		if errors.Is(err, domain.ErrEntradaInvalida) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(resp)
}
