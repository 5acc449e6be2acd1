package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/aseguraplus/SeguroPay/app/models"
	"github.com/aseguraplus/SeguroPay/internal/pkg/middleware"
)

// ServerInterface lists the v1 API operations.
type ServerInterface interface {
	GetPing(c *fiber.Ctx) error
	GetUserProfile(c *fiber.Ctx) error
	ListPayments(c *fiber.Ctx) error
	GetPayment(c *fiber.Ctx) error
	GetMyBalance(c *fiber.Ctx) error
	ListMyLedgerEntries(c *fiber.Ctx) error
	ListWebhookEvents(c *fiber.Ctx) error
	GetWebhookEvent(c *fiber.Ctx) error
	ListAuditTrail(c *fiber.Ctx) error
	CheckUserBalance(c *fiber.Ctx) error
	GetWebhookStats(c *fiber.Ctx) error
	IssueUserAPIKey(c *fiber.Ctx) error
	ListProviders(c *fiber.Ctx) error
	SaveProvider(c *fiber.Ctx) error
}

// Pong is the ping response body.
type Pong struct {
	Ping string `json:"ping"`
}

// RegisterHandlers attaches the v1 routes with their auth requirements.
func RegisterHandlers(r fiber.Router, si ServerInterface) {
	r.Get("/ping", si.GetPing)

	authed := r.Group("", middleware.APIKeyAuthMiddleware(), middleware.RequireAuth)
	authed.Get("/user/profile", si.GetUserProfile)
	authed.Get("/payments", si.ListPayments)
	authed.Get("/payments/:id", si.GetPayment)
	authed.Get("/users/me/balance", si.GetMyBalance)
	authed.Get("/users/me/ledger", si.ListMyLedgerEntries)

	// Oversight roles read everything; config changes stay admin-only.
	admin := authed.Group("/admin")
	oversight := middleware.RequireRole(models.RoleAdmin, models.RoleInterventoria, models.RoleSupervisor)
	admin.Get("/webhook-events", oversight, si.ListWebhookEvents)
	admin.Get("/webhook-events/:id", oversight, si.GetWebhookEvent)
	admin.Get("/audit-logs", oversight, si.ListAuditTrail)
	admin.Get("/webhook-stats", oversight, si.GetWebhookStats)
	admin.Post("/users/:id/balance-check", middleware.RequireAdmin, si.CheckUserBalance)
	admin.Post("/users/:id/api-key", middleware.RequireAdmin, si.IssueUserAPIKey)
	admin.Get("/providers", middleware.RequireAdmin, si.ListProviders)
	admin.Put("/providers", middleware.RequireAdmin, si.SaveProvider)
}
