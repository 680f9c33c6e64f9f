package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/serial-inventory-api/internal/application/dto"
	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
)

// CustodyHandler asignación y devolución de equipos a empleados.
type CustodyHandler struct {
	uc *inventory.CustodyUseCase
}

// NewCustodyHandler construye el handler.
func NewCustodyHandler(uc *inventory.CustodyUseCase) *CustodyHandler {
	return &CustodyHandler{uc: uc}
}

// Assign godoc
// @Summary      Asignar custodia
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AssignCustodyRequest  true  "Serial y responsable"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      409   {object}  dto.ErrorResponse  "el dispositivo no está disponible"
// @Router       /api/custody/assign [post]
func (h *CustodyHandler) Assign(c *fiber.Ctx) error {
	var in dto.AssignCustodyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.AssignCustody(c.UserContext(), inventory.AssignCustodyInput{
		Serial:         inventory.NormalizeCode(in.Serial),
		HolderID:       in.HolderID,
		Reason:         in.Reason,
		Notes:          in.Notes,
		IdempotencyKey: in.IdempotencyKey,
		PerformedBy:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResultResponse(res))
}

// Return godoc
// @Summary      Devolver custodia
// @Description  condition: good o fair (disponible), needs_maintenance (mantenimiento) o damaged.
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReturnCustodyRequest  true  "Serial y condición"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/custody/return [post]
func (h *CustodyHandler) Return(c *fiber.Ctx) error {
	var in dto.ReturnCustodyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.ReturnCustody(c.UserContext(), inventory.ReturnCustodyInput{
		Serial:         inventory.NormalizeCode(in.Serial),
		Condition:      in.Condition,
		WarehouseID:    in.WarehouseID,
		Notes:          in.Notes,
		IdempotencyKey: in.IdempotencyKey,
		PerformedBy:    GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResultResponse(res))
}

// Transfer godoc
// @Summary      Pasar custodia a otro empleado
// @Tags         custody
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.TransferCustodyRequest  true  "Serial y nuevo responsable"
// @Success      201   {object}  dto.MovementResultResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/custody/transfer [post]
func (h *CustodyHandler) Transfer(c *fiber.Ctx) error {
	var in dto.TransferCustodyRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.TransferCustody(c.UserContext(), inventory.NormalizeCode(in.Serial), in.HolderID, in.Reason, GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ToMovementResultResponse(res))
}

// List godoc
// @Summary      Dispositivos en custodia
// @Tags         custody
// @Security     Bearer
// @Produce      json
// @Param        holder_id  query  string  false  "Responsable"
// @Success      200        {array}  dto.DeviceResponse
// @Router       /api/custody [get]
func (h *CustodyHandler) List(c *fiber.Ctx) error {
	list, err := h.uc.List(c.UserContext(), c.Query("holder_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToDeviceList(list))
}

// Summary godoc
// @Summary      Custodia por responsable
// @Tags         custody
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CustodySummaryResponse
// @Router       /api/custody/summary [get]
func (h *CustodyHandler) Summary(c *fiber.Ctx) error {
	summary, err := h.uc.Summary(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CustodySummaryResponse, 0, len(summary))
	for _, s := range summary {
		out = append(out, dto.CustodySummaryResponse{HolderID: s.HolderID, ItemCount: s.ItemCount})
	}
	return c.JSON(out)
}
