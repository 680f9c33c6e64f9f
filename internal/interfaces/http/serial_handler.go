package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/serial-inventory-api/internal/application/dto"
	"github.com/jhoicas/serial-inventory-api/internal/application/inventory"
)

// SerialSettingsHandler formato del generador de seriales.
type SerialSettingsHandler struct {
	uc *inventory.SerialSettingsUseCase
}

// NewSerialSettingsHandler construye el handler.
func NewSerialSettingsHandler(uc *inventory.SerialSettingsUseCase) *SerialSettingsHandler {
	return &SerialSettingsHandler{uc: uc}
}

func (h *SerialSettingsHandler) respond(c *fiber.Ctx) error {
	s, err := h.uc.Get(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	next, err := h.uc.Next(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inventory.ToSerialSettingsResponse(s, next))
}

// Get godoc
// @Summary      Configuración de seriales
// @Tags         serials
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.SerialSettingsResponse
// @Router       /api/serials/settings [get]
func (h *SerialSettingsHandler) Get(c *fiber.Ctx) error {
	return h.respond(c)
}

// Update godoc
// @Summary      Cambiar formato de seriales
// @Description  Solo admin. La secuencia actual se conserva.
// @Tags         serials
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SerialSettingsRequest  true  "Prefijo, separador, formato de año, dígitos"
// @Success      200   {object}  dto.SerialSettingsResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/serials/settings [put]
func (h *SerialSettingsHandler) Update(c *fiber.Ctx) error {
	var in dto.SerialSettingsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	_, err := h.uc.Update(c.UserContext(), inventory.SerialSettingsUpdate{
		Prefix:      in.Prefix,
		Separator:   in.Separator,
		YearFormat:  in.YearFormat,
		Digits:      in.Digits,
		ResetYearly: in.ResetYearly,
	})
	if err != nil {
		return writeError(c, err)
	}
	return h.respond(c)
}
