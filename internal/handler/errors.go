package handler

import (
	"errors"

	"go-repairshop/internal/apperr"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var statusByKind = map[apperr.Kind]int{
	apperr.KindNotFound:            fiber.StatusNotFound,
	apperr.KindValidation:          fiber.StatusBadRequest,
	apperr.KindInsufficientStock:   fiber.StatusConflict,
	apperr.KindInsufficientPayment: fiber.StatusUnprocessableEntity,
	apperr.KindOverpayment:         fiber.StatusUnprocessableEntity,
	apperr.KindTenantIsolation:     fiber.StatusForbidden,
	apperr.KindRegisterAlreadyOpen: fiber.StatusConflict,
	apperr.KindNoOpenRegister:      fiber.StatusConflict,
	apperr.KindStateConflict:       fiber.StatusConflict,
	apperr.KindUnauthorized:        fiber.StatusUnauthorized,
	apperr.KindInternal:            fiber.StatusInternalServerError,
}

// respondError maps an engine error to a status code and a stable body.
// Internal causes are logged, never returned.
func respondError(c *fiber.Ctx, log *zap.Logger, err error) error {
	kind := apperr.KindOf(err)
	status, ok := statusByKind[kind]
	if !ok {
		status = fiber.StatusInternalServerError
	}

	body := fiber.Map{"error": apperr.Message(err), "code": kind}
	switch kind {
	case apperr.KindInternal:
		log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(status).JSON(body)
	case apperr.KindInsufficientStock:
		var short *apperr.InsufficientStockError
		if errors.As(err, &short) {
			body["items"] = short.Items
		}
	case apperr.KindInsufficientPayment:
		var short *apperr.InsufficientPaymentError
		if errors.As(err, &short) {
			body["total"] = short.Total
			body["paid"] = short.Paid
		}
	case apperr.KindOverpayment:
		var over *apperr.OverpaymentError
		if errors.As(err, &over) {
			body["remaining"] = over.Remaining
			body["attempted"] = over.Attempted
		}
	}
	body["detail"] = err.Error()
	return c.Status(status).JSON(body)
}

func badJSON(c *fiber.Ctx) error {
	return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
}

func paramID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid " + name)
	}
	return id, nil
}
