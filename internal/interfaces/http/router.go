package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Batches        *inventory.BatchLifecycleUseCase
	ReceiveUnit    *inventory.ReceiveUnitUseCase
	Movements      *inventory.RegisterMovementUseCase
	Custody        *inventory.CustodyUseCase
	Lookup         *inventory.LookupUseCase
	Reconcile      *inventory.ReconcileUseCase
	SerialSettings *inventory.SerialSettingsUseCase
	JWTSecret      string
	JWTIssuer      string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret, deps.JWTIssuer))

	batchHandler := NewBatchHandler(deps.Batches, deps.ReceiveUnit, deps.Lookup)
	batches := api.Group("/batches")
	batches.Post("/", batchHandler.Create)
	batches.Get("/", batchHandler.List)
	batches.Get("/stats", batchHandler.Stats)
	batches.Get("/:id", batchHandler.GetByID)
	batches.Patch("/:id/items/:itemId", batchHandler.UpdateItem)
	batches.Patch("/:id/prices", batchHandler.AssignPrices)
	batches.Post("/:id/begin-receiving", batchHandler.BeginReceiving)
	batches.Post("/:id/items/:itemId/received", batchHandler.RecordUnitsReceived)
	batches.Post("/:id/cancel", batchHandler.Cancel)
	batches.Post("/:id/ready-to-sell", batchHandler.ReadyToSell)
	batches.Post("/:id/units", batchHandler.ReceiveUnit)

	deviceHandler := NewDeviceHandler(deps.Movements, deps.Lookup, deps.Reconcile)
	devices := api.Group("/devices")
	devices.Get("/search", deviceHandler.Search)
	devices.Get("/lookup/:code", deviceHandler.Lookup)
	devices.Post("/transfer", deviceHandler.BulkTransfer)
	devices.Get("/:serial/history", deviceHandler.History)
	devices.Get("/:serial/status", deviceHandler.Status)
	devices.Post("/:serial/movements", deviceHandler.RecordMovement)

	movements := api.Group("/movements")
	movements.Get("/recent", deviceHandler.Recent)
	movements.Get("/stats", deviceHandler.Stats)
	movements.Get("/drift", RequireRole("admin"), deviceHandler.Drift)

	custodyHandler := NewCustodyHandler(deps.Custody)
	custody := api.Group("/custody")
	custody.Get("/", custodyHandler.List)
	custody.Get("/summary", custodyHandler.Summary)
	custody.Post("/assign", custodyHandler.Assign)
	custody.Post("/return", custodyHandler.Return)
	custody.Post("/transfer", custodyHandler.Transfer)

	serialHandler := NewSerialSettingsHandler(deps.SerialSettings)
	serials := api.Group("/serials")
	serials.Get("/settings", serialHandler.Get)
	serials.Put("/settings", RequireRole("admin"), serialHandler.Update)
}
