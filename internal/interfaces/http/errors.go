package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/serial-inventory-api/internal/application/dto"
	"github.com/jhoicas/serial-inventory-api/internal/domain"
)

// writeError traduce la taxonomía de errores del dominio a status HTTP.
// Los errores de persistencia se registran; al cliente solo llega un mensaje genérico.
func writeError(c *fiber.Ctx, err error) error {
	var (
		status = fiber.StatusInternalServerError
		code   = "INTERNAL"
		msg    = "error interno"
	)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code, msg = fiber.StatusBadRequest, "VALIDATION", err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = fiber.StatusNotFound, "NOT_FOUND", err.Error()
	case errors.Is(err, domain.ErrOverReceipt):
		status, code, msg = fiber.StatusConflict, "OVER_RECEIPT", err.Error()
	case errors.Is(err, domain.ErrDeviceNotAvailable):
		status, code, msg = fiber.StatusConflict, "DEVICE_NOT_AVAILABLE", err.Error()
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code, msg = fiber.StatusConflict, "INVALID_TRANSITION", err.Error()
	case errors.Is(err, domain.ErrConcurrencyConflict):
		status, code, msg = fiber.StatusConflict, "CONCURRENCY_CONFLICT", "conflicto de concurrencia, reintentar"
	default:
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
