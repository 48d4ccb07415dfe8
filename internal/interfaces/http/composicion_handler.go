package http

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/bodegasur/trazavid/internal/application/composicion"
	"github.com/bodegasur/trazavid/internal/application/dto"
)

// ComposicionRequest cuerpo de la ejecución del proceso de composición.
type ComposicionRequest struct {
	FechaDesde string `json:"fecha_desde"`
	FechaHasta string `json:"fecha_hasta"`
}

// ComposicionHandler lanza la corrida de composición y retransmite sus
// eventos por Server-Sent Events.
type ComposicionHandler struct {
	svc *composicion.Servicio
}

// NewComposicionHandler construye el handler.
func NewComposicionHandler(svc *composicion.Servicio) *ComposicionHandler {
	return &ComposicionHandler{svc: svc}
}

// Ejecutar godoc
// @Summary      Ejecutar proceso de composición (SSE)
// @Description  Reconstruye la tabla de hechos para el rango de fechas y retransmite el progreso como text/event-stream (event: log/error/done).
// @Tags         composicion
// @Accept       json
// @Produce      text/event-stream
// @Param        body  body  ComposicionRequest  true  "fecha_desde y fecha_hasta en YYYY-MM-DD"
// @Success      200  {string}  string  "stream de eventos"
// @Failure      422  {object}  dto.ErrorResponse
// @Router       /api/v1/composicion/ejecutar [post]
func (h *ComposicionHandler) Ejecutar(c *fiber.Ctx) error {
	var in ComposicionRequest
	if err := c.BodyParser(&in); err != nil {
		// También se acepta por query para poder lanzarlo desde un navegador.
		in.FechaDesde = c.Query("desde")
		in.FechaHasta = c.Query("hasta")
	}

	desde, err := parseFecha(in.FechaDesde)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "FECHA_INVALIDA", Message: err.Error()})
	}
	hasta, err := parseFecha(in.FechaHasta)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "FECHA_INVALIDA", Message: err.Error()})
	}
	if hasta.Before(desde) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code: "RANGO_INVALIDO", Message: "fecha_hasta no puede ser anterior a fecha_desde",
		})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	// El RequestCtx sigue vivo mientras dure el stream y se cancela si el
	// cliente corta, así que sirve de contexto de la corrida.
	reqCtx := c.Context()
	eventos := h.svc.Ejecutar(reqCtx, desde, hasta)

	reqCtx.SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		fmt.Fprint(w, ": stream-open\n\n")
		_ = w.Flush()

		for ev := range eventos {
			switch {
			case ev.Terminal && !ev.OK:
				escribirSSE(w, "error", map[string]any{"ok": false, "message": ev.Mensaje})
			case ev.Terminal:
				escribirSSE(w, "done", map[string]any{"ok": true})
			default:
				escribirSSE(w, "log", ev)
			}
			if err := w.Flush(); err != nil {
				// Cliente desconectado: la corrida se cancela vía reqCtx.
				return
			}
		}
		fmt.Fprint(w, ": stream-close\n\n")
		_ = w.Flush()
	}))
	return nil
}

func escribirSSE(w *bufio.Writer, evento string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evento, payload)
}

func parseFecha(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("fecha inválida: %q, use formato YYYY-MM-DD", s)
	}
	return t, nil
}
