package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/bodegasur/trazavid/internal/application/composicion"
	"github.com/bodegasur/trazavid/internal/application/trazabilidad"
	"github.com/bodegasur/trazavid/internal/infrastructure/postgres"
	httpRouter "github.com/bodegasur/trazavid/internal/interfaces/http"
	"github.com/bodegasur/trazavid/pkg/config"
	"github.com/bodegasur/trazavid/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	fuenteRepo := postgres.NewFuenteMovimientosRepository(pool, cfg.Proceso.ChunkSize, log)
	maestrosRepo := postgres.NewMaestrosRepository(pool)
	otsRepo := postgres.NewOrdenesTrabajoRepository(pool, cfg.Proceso.ChunkSize, log)
	trazaRepo := postgres.NewTrazaDetalleRepository(pool, cfg.Proceso.ChunkSize, log)
	destinosRepo := postgres.NewDestinoFinalRepository(pool)

	composicionSvc := composicion.NewServicio(
		fuenteRepo, maestrosRepo, otsRepo, trazaRepo, destinosRepo,
		composicion.Opciones{
			MaxIteraciones: cfg.Proceso.MaxIteraciones,
			LogsDir:        cfg.Proceso.LogsDir,
		},
		log,
	)
	trazabilidadUC := trazabilidad.NewUseCase(trazaRepo, destinosRepo, maestrosRepo, log)

	app := fiber.New(fiber.Config{
		AppName:     cfg.App.Name,
		ReadTimeout: time.Second * 10,
		IdleTimeout: time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Trazavid API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "down", "service": cfg.App.Name, "db": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		TrazabilidadUC: trazabilidadUC,
		ComposicionSvc: composicionSvc,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
