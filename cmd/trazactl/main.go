package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bodegasur/trazavid/internal/application/composicion"
	"github.com/bodegasur/trazavid/internal/infrastructure/postgres"
	"github.com/bodegasur/trazavid/pkg/config"
	"github.com/bodegasur/trazavid/pkg/logger"
)

func main() {
	root := &cobra.Command{
		Use:           "trazactl",
		Short:         "Herramienta de línea de comandos de la trazabilidad enológica",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(nuevoComandoEjecutar())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func nuevoComandoEjecutar() *cobra.Command {
	var desdeStr, hastaStr string

	cmd := &cobra.Command{
		Use:   "ejecutar",
		Short: "Ejecuta el proceso de composición para un rango de fechas",
		Long: `Reconstruye la tabla de hechos de trazabilidad (compras, descubes,
ajustes, transformaciones y destinos finales) para el rango dado, imprimiendo
el progreso por la salida estándar. Es el mismo proceso que expone la API por
SSE, sin servidor de por medio.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			desde, err := time.Parse("2006-01-02", desdeStr)
			if err != nil {
				return fmt.Errorf("--desde inválido: %q, use YYYY-MM-DD", desdeStr)
			}
			hasta, err := time.Parse("2006-01-02", hastaStr)
			if err != nil {
				return fmt.Errorf("--hasta inválido: %q, use YYYY-MM-DD", hastaStr)
			}
			return ejecutar(cmd.Context(), desde, hasta)
		},
	}
	cmd.Flags().StringVar(&desdeStr, "desde", "", "fecha inicial del rango (YYYY-MM-DD)")
	cmd.Flags().StringVar(&hastaStr, "hasta", "", "fecha final del rango (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("desde")
	_ = cmd.MarkFlagRequired("hasta")
	return cmd
}

func ejecutar(parent context.Context, desde, hasta time.Time) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("cargar configuración: %w", err)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	defer pool.Close()

	svc := composicion.NewServicio(
		postgres.NewFuenteMovimientosRepository(pool, cfg.Proceso.ChunkSize, log),
		postgres.NewMaestrosRepository(pool),
		postgres.NewOrdenesTrabajoRepository(pool, cfg.Proceso.ChunkSize, log),
		postgres.NewTrazaDetalleRepository(pool, cfg.Proceso.ChunkSize, log),
		postgres.NewDestinoFinalRepository(pool),
		composicion.Opciones{
			MaxIteraciones: cfg.Proceso.MaxIteraciones,
			LogsDir:        cfg.Proceso.LogsDir,
		},
		log,
	)

	for ev := range svc.Ejecutar(ctx, desde, hasta) {
		fmt.Printf("%s [%s] %s\n", ev.TS.Format(time.RFC3339), ev.Nivel, ev.Mensaje)
		if ev.Terminal && !ev.OK {
			return fmt.Errorf("la corrida terminó con error: %s", ev.Mensaje)
		}
	}
	return nil
}
