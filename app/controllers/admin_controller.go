package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
	"github.com/aseguraplus/SeguroPay/app/repository"
	"github.com/aseguraplus/SeguroPay/internal/pkg/audit"
	"github.com/aseguraplus/SeguroPay/internal/pkg/database"
	"github.com/aseguraplus/SeguroPay/internal/pkg/ledger"
	"github.com/aseguraplus/SeguroPay/internal/pkg/metrics/counter"
	"github.com/aseguraplus/SeguroPay/internal/pkg/security"
	"github.com/aseguraplus/SeguroPay/internal/pkg/usercontext"
)

var adminRepos *repository.Repositories

// InitializeAdminController wires the admin handlers to the global
// repositories.
func InitializeAdminController() {
	adminRepos = repository.GetGlobalRepositories()
}

// HandleListWebhookEvents lists webhook events by status, FAILED by default.
// This is the operator surface for events parked after terminal failures.
func HandleListWebhookEvents(c *fiber.Ctx) error {
	status := strings.ToUpper(c.Query("status", models.WebhookEventFailed))
	switch status {
	case models.WebhookEventReceived, models.WebhookEventProcessed, models.WebhookEventFailed:
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown event status"})
	}

	events, err := adminRepos.WebhookEvent.ListByStatus(status, defaultListLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load events"})
	}
	total, err := adminRepos.WebhookEvent.CountByStatus(status)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count events"})
	}

	out := make([]fiber.Map, 0, len(events))
	for i := range events {
		e := &events[i]
		out = append(out, fiber.Map{
			"id":                e.ID,
			"provider":          e.Provider,
			"provider_event_id": e.ProviderEventID,
			"status":            e.Status,
			"last_error":        e.LastError,
			"received_at":       e.ReceivedAt,
			"processed_at":      e.ProcessedAt,
		})
	}
	return c.JSON(fiber.Map{"events": out, "total": total})
}

// HandleGetWebhookEvent returns one webhook event including its raw payload.
func HandleGetWebhookEvent(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid event id"})
	}

	event, err := adminRepos.WebhookEvent.GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Event not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load event"})
	}

	return c.JSON(fiber.Map{
		"id":                event.ID,
		"provider":          event.Provider,
		"provider_event_id": event.ProviderEventID,
		"status":            event.Status,
		"last_error":        event.LastError,
		"raw_payload":       string(event.RawPayload),
		"received_at":       event.ReceivedAt,
		"processed_at":      event.ProcessedAt,
	})
}

// HandleListAuditTrail lists audit entries for an entity or an action code.
func HandleListAuditTrail(c *fiber.Ctx) error {
	entity := c.Query("entity")
	entityID := c.Query("entity_id")
	action := c.Query("action")

	var (
		entries []models.AuditLogEntry
		err     error
	)
	switch {
	case entity != "" && entityID != "":
		entries, err = adminRepos.AuditLog.ListByEntity(entity, entityID, defaultListLimit)
	case action != "":
		entries, err = adminRepos.AuditLog.ListByAction(action, defaultListLimit)
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "entity+entity_id or action required"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load audit trail"})
	}

	out := make([]fiber.Map, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, fiber.Map{
			"id":         e.ID,
			"actor_id":   e.ActorID,
			"action":     e.Action,
			"entity":     e.Entity,
			"entity_id":  e.EntityID,
			"metadata":   e.Metadata,
			"ip_address": e.IPAddress,
			"created_at": e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"entries": out})
}

// HandleCheckUserBalance compares a user's cached balance projection against
// the ledger-derived value and refreshes the projection when they disagree.
func HandleCheckUserBalance(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}

	svc := ledger.NewServiceFromDB(database.GetDB())
	drift, err := svc.CheckProjection(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to check projection"})
	}

	if drift.Differs {
		if _, err := svc.RefreshProjection(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to refresh projection"})
		}
	}

	return c.JSON(fiber.Map{
		"user_id":   drift.UserID,
		"cached":    drift.Cached.StringFixed(2),
		"derived":   drift.Derived.StringFixed(2),
		"drifted":   drift.Differs,
		"refreshed": drift.Differs,
	})
}

// HandleGetWebhookStats returns per-provider delivery counters plus the
// number of events currently parked FAILED.
func HandleGetWebhookStats(c *fiber.Ctx) error {
	counts, err := counter.GetWebhookCounts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to read counters"})
	}
	parked, err := adminRepos.WebhookEvent.CountByStatus(models.WebhookEventFailed)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to count failed events"})
	}
	return c.JSON(fiber.Map{
		"deliveries":    counts,
		"parked_failed": parked,
	})
}

// HandleIssueUserAPIKey generates a fresh API key for a user, replacing any
// previous one. The plaintext is returned exactly once; only the hash is
// stored.
func HandleIssueUserAPIKey(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid user id"})
	}

	user, err := adminRepos.User.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	key, err := security.GenerateAPIKey()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to generate API key"})
	}
	user.APIKeyHash = models.HashAPIKey(key)
	if err := adminRepos.User.Update(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to store API key"})
	}

	actor := usercontext.GetUserID(c)
	recorder := audit.NewRecorder(database.GetDB())
	if err := recorder.Record(&actor, "USER_API_KEY_ISSUED", audit.EntityUser, user.ID.String(), nil, GetClientIP(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record audit entry"})
	}

	return c.JSON(fiber.Map{"user_id": user.ID, "api_key": key})
}

// HandleListProviders lists the configured payment providers.
func HandleListProviders(c *fiber.Ctx) error {
	providers, err := adminRepos.Provider.ListActive()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load providers"})
	}
	return c.JSON(fiber.Map{"providers": providers})
}

// HandleSaveProvider creates or updates a provider webhook configuration and
// records the change in the audit trail.
func HandleSaveProvider(c *fiber.Ctx) error {
	var input struct {
		Key             string `json:"key"`
		WebhookSecret   string `json:"webhook_secret"`
		SigningRequired *bool  `json:"signing_required"`
		IsActive        *bool  `json:"is_active"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid body"})
	}

	input.Key = strings.ToUpper(strings.TrimSpace(input.Key))
	if input.Key != models.PaymentMethodPSE && input.Key != models.PaymentMethodWompi {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unknown provider key"})
	}

	provider, err := adminRepos.Provider.GetByKey(input.Key)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load provider"})
		}
		provider = &models.PaymentProvider{Key: input.Key, SigningRequired: true}
	}

	if input.WebhookSecret != "" {
		provider.WebhookSecret = input.WebhookSecret
	}
	if input.SigningRequired != nil {
		provider.SigningRequired = *input.SigningRequired
	}
	if input.IsActive != nil {
		provider.IsActive = *input.IsActive
	}

	if err := adminRepos.Provider.Save(provider); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to save provider"})
	}

	actor := usercontext.GetUserID(c)
	recorder := audit.NewRecorder(database.GetDB())
	if err := recorder.Record(&actor, "PROVIDER_CONFIG_CHANGED", audit.EntityProvider, provider.Key, map[string]any{
		"signing_required": provider.SigningRequired,
		"is_active":        provider.IsActive,
		"webhook_secret":   provider.WebhookSecret,
	}, GetClientIP(c)); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record audit entry"})
	}

	return c.JSON(fiber.Map{"ok": true, "provider": provider})
}
