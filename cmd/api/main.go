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

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
	"github.com/jhoicas/serial-inventory-api/internal/domain/entity"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/directory"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/memory"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/postgres"
	"github.com/jhoicas/serial-inventory-api/internal/infrastructure/telemetry"
	httpRouter "github.com/jhoicas/serial-inventory-api/internal/interfaces/http"
	"github.com/jhoicas/serial-inventory-api/pkg/config"
	"github.com/jhoicas/serial-inventory-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Store.Driver).
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		log.Fatal().Err(err).Msg("telemetría")
	}

	var txRunner inventory.TxRunner
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
		txRunner = postgres.NewTxRunner(pool, cfg.Store.LockTimeout)
	default:
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		txRunner = memory.NewTxRunner(memory.New(memory.WithLockTimeout(cfg.Store.LockTimeout)))
	}

	// Sin servicio de directorio no se validan productos, bodegas, empleados ni clientes.
	var dir inventory.Directory
	if cfg.Directory.BaseURL != "" {
		dir = directory.NewClient(cfg.Directory)
	}

	settings := inventory.Settings{
		DefaultWarehouseID:     cfg.Engine.DefaultWarehouseID,
		WarrantyMonths:         cfg.Engine.WarrantyMonths,
		SupplierWarrantyMonths: cfg.Engine.SupplierWarrantyMonths,
		Serial: entity.SerialSettings{
			Prefix:      cfg.Serial.Prefix,
			Separator:   cfg.Serial.Separator,
			YearFormat:  cfg.Serial.YearFormat,
			Digits:      cfg.Serial.Digits,
			ResetYearly: cfg.Serial.ResetYearly,
		},
	}

	movementsUC := inventory.NewRegisterMovementUseCase(txRunner, dir, settings)
	batchesUC := inventory.NewBatchLifecycleUseCase(txRunner, dir, settings)
	receiveUC := inventory.NewReceiveUnitUseCase(txRunner, movementsUC, batchesUC, settings)
	custodyUC := inventory.NewCustodyUseCase(txRunner, movementsUC)
	lookupUC := inventory.NewLookupUseCase(txRunner, dir, settings)
	reconcileUC := inventory.NewReconcileUseCase(txRunner)
	serialUC := inventory.NewSerialSettingsUseCase(txRunner, settings)

	go reconcileUC.Run(ctx, cfg.Engine.ReconcileInterval)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Serial Inventory API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "store": cfg.Store.Driver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Batches:        batchesUC,
		ReceiveUnit:    receiveUC,
		Movements:      movementsUC,
		Custody:        custodyUC,
		Lookup:         lookupUC,
		Reconcile:      reconcileUC,
		SerialSettings: serialUC,
		JWTSecret:      cfg.JWT.Secret,
		JWTIssuer:      cfg.JWT.Issuer,
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de telemetría")
	}

	log.Info().Msg("aplicación detenida")
}
