package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"catalog/internal/services"
)

// Response messages. Store failures never expose their cause.
const (
	MsgInvalidID  = "invalid product identifier"
	MsgNotFound   = "product not found in catalog"
	MsgValidation = "payload does not meet the catalog requirements"
	MsgInternal   = "internal server error"
	MsgFailed     = "failed to process the request"
)

// respondError maps a service error onto its HTTP status and body.
func respondError(c *fiber.Ctx, err error, logMsg string) error {
	if ve, ok := services.IsValidationError(err); ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": MsgValidation,
			"details": ve.Details,
		})
	}

	switch {
	case errors.Is(err, services.ErrInvalidIdentifier):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": MsgInvalidID,
		})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": MsgNotFound,
		})
	}

	log.WithError(err).WithFields(log.Fields{
		"method": c.Method(),
		"path":   c.Path(),
	}).Error(logMsg)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": MsgFailed,
	})
}
