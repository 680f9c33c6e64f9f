package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/serial-inventory-api/internal/application/dto"
	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
)

// DeviceHandler consultas y movimientos de unidades serializadas.
type DeviceHandler struct {
	moves  *inventory.RegisterMovementUseCase
	lookup *inventory.LookupUseCase
	recon  *inventory.ReconcileUseCase
}

// NewDeviceHandler construye el handler.
func NewDeviceHandler(moves *inventory.RegisterMovementUseCase, lookup *inventory.LookupUseCase, recon *inventory.ReconcileUseCase) *DeviceHandler {
	return &DeviceHandler{moves: moves, lookup: lookup, recon: recon}
}

// Search godoc
// @Summary      Buscar por fragmento de serial
// @Tags         devices
// @Security     Bearer
// @Produce      json
// @Param        q    query  string  true  "Fragmento (mínimo 2 caracteres)"
// @Success      200  {array}   dto.DeviceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/devices/search [get]
func (h *DeviceHandler) Search(c *fiber.Ctx) error {
	list, err := h.lookup.Search(c.UserContext(), c.Query("q"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDeviceList(list))
}

// Lookup godoc
// @Summary      Resolver código escaneado
// @Description  found=false cuando el serial no existe; no es error.
// @Tags         devices
// @Security     Bearer
// @Produce      json
// @Param        code  path  string  true  "Serial o código de barras"
// @Success      200   {object}  dto.LookupResponse
// @Router       /api/devices/lookup/{code} [get]
func (h *DeviceHandler) Lookup(c *fiber.Ctx) error {
	res, err := h.lookup.LookupBySerial(c.UserContext(), c.Params("code"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToLookupResponse(res))
}

// History godoc
// @Summary      Historial del dispositivo
// @Tags         devices
// @Security     Bearer
// @Produce      json
// @Param        serial  path  string  true  "Serial"
// @Success      200     {object}  dto.DeviceHistoryResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/devices/{serial}/history [get]
func (h *DeviceHandler) History(c *fiber.Ctx) error {
	hist, err := h.lookup.DeviceHistory(c.UserContext(), inventory.NormalizeCode(c.Params("serial")))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDeviceHistoryResponse(hist))
}

// Status godoc
// @Summary      Estado actual
// @Tags         devices
// @Security     Bearer
// @Produce      json
// @Param        serial  path  string  true  "Serial"
// @Success      200     {object}  dto.DeviceStatusResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/devices/{serial}/status [get]
func (h *DeviceHandler) Status(c *fiber.Ctx) error {
	serial := inventory.NormalizeCode(c.Params("serial"))
	status, err := h.moves.CurrentStatus(c.UserContext(), serial)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.DeviceStatusResponse{Serial: serial, Status: string(status)})
}

// RecordMovement godoc
// @Summary      Registrar movimiento
// @Description  Transferencia, custodia, venta, devolución, mantenimiento, upgrade/downgrade, daño o ajuste.
// @Tags         devices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        serial  path  string                       true  "Serial"
// @Param        body    body  dto.RegisterMovementRequest  true  "Tipo y datos del movimiento"
// @Success      201     {object}  dto.MovementResultResponse
// @Success      200     {object}  dto.MovementResultResponse  "reintento con la misma idempotency_key"
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/devices/{serial}/movements [post]
func (h *DeviceHandler) RecordMovement(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return unauthorized(c)
	}
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.moves.RegisterMovementFromRequest(c.UserContext(), c.Params("serial"), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	if out.Replayed {
		return c.JSON(out)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// BulkTransfer godoc
// @Summary      Transferencia masiva entre bodegas
// @Description  Cada serial se procesa en su propia transacción; la respuesta trae el resultado por serial.
// @Tags         devices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BulkTransferRequest  true  "Seriales y bodega destino"
// @Success      200   {array}   dto.TransferResultResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/devices/transfer [post]
func (h *DeviceHandler) BulkTransfer(c *fiber.Ctx) error {
	var in dto.BulkTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.moves.BulkTransferFromRequest(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Recent godoc
// @Summary      Movimientos recientes
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Máximo 50"  default(50)
// @Success      200    {array}  dto.MovementResponse
// @Router       /api/movements/recent [get]
func (h *DeviceHandler) Recent(c *fiber.Ctx) error {
	list, err := h.lookup.RecentMovements(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToFeedList(list))
}

// Stats godoc
// @Summary      Estadísticas de movimientos
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.MovementStatsResponse
// @Router       /api/movements/stats [get]
func (h *DeviceHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.lookup.MovementStats(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToMovementStatsResponse(stats))
}

// Drift godoc
// @Summary      Reporte de reconciliación
// @Description  Dispositivos cuyo estado guardado no coincide con su último movimiento.
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.StatusDriftResponse
// @Router       /api/movements/drift [get]
func (h *DeviceHandler) Drift(c *fiber.Ctx) error {
	drift, err := h.recon.Reconcile(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.StatusDriftResponse, 0, len(drift))
	for _, d := range drift {
		out = append(out, dto.StatusDriftResponse{
			DeviceID:     d.DeviceID,
			SerialNumber: d.SerialNumber,
			Cached:       string(d.Cached),
			Ledger:       string(d.Ledger),
		})
	}
	return c.JSON(out)
}
