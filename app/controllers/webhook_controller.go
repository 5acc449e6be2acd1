package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/aseguraplus/SeguroPay/app/models"
	"github.com/aseguraplus/SeguroPay/internal/pkg/database"
	"github.com/aseguraplus/SeguroPay/internal/pkg/metrics/counter"
	"github.com/aseguraplus/SeguroPay/internal/pkg/notify"
	"github.com/aseguraplus/SeguroPay/internal/pkg/payments"
)

var outcomeQueue *notify.Queue

// newWebhookService builds the payments service for one delivery. Tests swap
// this out to drive the handler against an in-memory store.
var newWebhookService = func(notifier payments.Notifier) *payments.Service {
	return payments.NewServiceFromDB(database.GetDB(), notifier)
}

// InitializeWebhookController wires the shared outcome queue used to announce
// settled payments after commit.
func InitializeWebhookController(queue *notify.Queue) {
	outcomeQueue = queue
}

func isKnownProvider(key string) bool {
	switch key {
	case models.PaymentMethodPSE, models.PaymentMethodWompi:
		return true
	default:
		return false
	}
}

// HandleProviderWebhook receives one provider delivery and hands it to the
// payments engine. The response code tells the provider whether to redeliver:
// 2xx and 4xx settle the delivery, 5xx asks for a retry.
func HandleProviderWebhook(c *fiber.Ctx) error {
	providerKey := strings.ToUpper(strings.TrimSpace(c.Params("provider")))
	rawBody := append([]byte(nil), c.BodyRaw()...)

	// Counters are keyed by canonical provider keys only; arbitrary path
	// values must not grow the Redis hash.
	if isKnownProvider(providerKey) {
		_ = counter.AddWebhookReceived(providerKey)
	}

	var notifier payments.Notifier
	if outcomeQueue != nil {
		notifier = outcomeQueue
	}
	svc := newWebhookService(notifier)

	res, err := svc.HandleWebhook(c.UserContext(), providerKey, collectHeaders(c), rawBody)

	switch {
	case err == nil:
		_ = counter.AddWebhookProcessed(providerKey)
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"ok":      true,
			"outcome": res.Outcome,
		})
	case errors.Is(err, payments.ErrInvalidSignature):
		_ = counter.AddWebhookFailed(providerKey)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	case errors.Is(err, payments.ErrUnknownProvider):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "unknown_provider"})
	case errors.Is(err, payments.ErrProviderInactive):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "provider_inactive"})
	case res.Outcome == payments.OutcomeFailed:
		_ = counter.AddWebhookFailed(providerKey)
		// Terminally failed: the event is parked FAILED, redelivering the same
		// payload cannot succeed, so the provider must not retry.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"ok":      false,
			"outcome": res.Outcome,
			"error":   err.Error(),
		})
	default:
		// Transient infrastructure failure; everything rolled back.
		log.Errorf("[Webhook] %s delivery failed transiently: %v", providerKey, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}
}
