package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Prestamos-api/internal/application/dto"
	"github.com/jhoicas/Prestamos-api/internal/domain"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// Orden relevante: ErrToolNotFound antes que ErrNotFound.
var errorMappings = []errorMapping{
	{domain.ErrToolNotFound, fiber.StatusNotFound, "TOOL_NOT_FOUND"},
	{domain.ErrNotFound, fiber.StatusNotFound, "NOT_FOUND"},
	{domain.ErrInvalidInput, fiber.StatusBadRequest, "VALIDATION"},
	{domain.ErrInvalidQuantity, fiber.StatusBadRequest, "INVALID_QUANTITY"},
	{domain.ErrUnitMismatch, fiber.StatusBadRequest, "UNIT_MISMATCH"},
	{domain.ErrInvalidTransition, fiber.StatusConflict, "INVALID_TRANSITION"},
	{domain.ErrInvalidState, fiber.StatusConflict, "INVALID_STATE"},
	{domain.ErrInsufficientStock, fiber.StatusConflict, "INSUFFICIENT_STOCK"},
	{domain.ErrAlreadySettled, fiber.StatusConflict, "ALREADY_SETTLED"},
	{domain.ErrDuplicate, fiber.StatusConflict, "DUPLICATE"},
	{domain.ErrUnauthorized, fiber.StatusUnauthorized, "UNAUTHORIZED"},
	{domain.ErrForbidden, fiber.StatusForbidden, "FORBIDDEN"},
	{domain.ErrTransactionFailed, fiber.StatusServiceUnavailable, "TRANSACTION_FAILED"},
}

// StatusFor traduce un error de dominio a status HTTP y código de error.
func StatusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// writeError responde con el status y código del error. Los 5xx no exponen detalles internos.
func writeError(c *fiber.Ctx, err error) error {
	status, code := StatusFor(err)
	msg := err.Error()
	if status >= fiber.StatusInternalServerError {
		msg = "error interno, intente de nuevo"
		if status == fiber.StatusServiceUnavailable {
			msg = domain.ErrTransactionFailed.Error()
		}
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}
