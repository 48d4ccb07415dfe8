package composicion

import (
	"context"
	"fmt"
	"time"
)

// Niveles de los eventos de progreso.
const (
	NivelInfo  = "INFO"
	NivelWarn  = "WARN"
	NivelError = "ERROR"
)

// Evento es un mensaje de estado de la corrida de composición. El runner los
// produce en orden por un canal acotado; un evento Terminal es siempre el
// último antes del cierre del canal.
type Evento struct {
	TS       time.Time `json:"ts"`
	Nivel    string    `json:"level"`
	Mensaje  string    `json:"msg"`
	Terminal bool      `json:"-"`
	OK       bool      `json:"-"` // válido solo cuando Terminal
}

// emisor escribe eventos al canal sin bloquear para siempre: si el contexto
// se cancela, los eventos restantes se descartan.
type emisor struct {
	ctx context.Context
	ch  chan<- Evento
	reg registrador
}

// registrador persiste cada evento en el archivo de log de la corrida.
// Puede ser nil (por ejemplo si no se pudo abrir el archivo).
type registrador interface {
	escribir(ev Evento)
	cerrar()
}

func (e *emisor) evento(ev Evento) {
	ev.TS = time.Now().UTC()
	if e.reg != nil {
		e.reg.escribir(ev)
	}
	select {
	case e.ch <- ev:
	case <-e.ctx.Done():
	}
}

func (e *emisor) infof(formato string, args ...any) {
	e.evento(Evento{Nivel: NivelInfo, Mensaje: fmt.Sprintf(formato, args...)})
}

func (e *emisor) warnf(formato string, args ...any) {
	e.evento(Evento{Nivel: NivelWarn, Mensaje: fmt.Sprintf(formato, args...)})
}

// fn adapta el emisor a la firma EmitirFunc que usan las fases.
func (e *emisor) fn() EmitirFunc {
	return func(nivel, mensaje string) {
		e.evento(Evento{Nivel: nivel, Mensaje: mensaje})
	}
}

func (e *emisor) terminalOK(mensaje string) {
	e.evento(Evento{Nivel: NivelInfo, Mensaje: mensaje, Terminal: true, OK: true})
}

func (e *emisor) terminalError(err error) {
	e.evento(Evento{Nivel: NivelError, Mensaje: err.Error(), Terminal: true})
}
