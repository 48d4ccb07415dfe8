package composicion

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// bitacora persiste los eventos de una corrida en un archivo de log plano,
// uno por corrida, con el mismo formato "ts [NIVEL] mensaje" que consumen
// los operadores.
type bitacora struct {
	f *os.File
}

func abrirBitacora(dir string, desde, hasta time.Time) (*bitacora, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de logs: %w", err)
	}
	nombre := fmt.Sprintf("composicion_%s_%s_%s.log",
		time.Now().Format("20060102_150405"),
		desde.Format("20060102"),
		hasta.Format("20060102"))
	f, err := os.OpenFile(filepath.Join(dir, nombre), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("abrir archivo de log: %w", err)
	}
	return &bitacora{f: f}, nil
}

func (b *bitacora) escribir(ev Evento) {
	fmt.Fprintf(b.f, "%s [%s] %s\n", ev.TS.Format(time.RFC3339), ev.Nivel, ev.Mensaje)
}

func (b *bitacora) cerrar() {
	_ = b.f.Close()
}
