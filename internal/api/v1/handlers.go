package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/aseguraplus/SeguroPay/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	response := Pong{
		Ping: "pong",
	}

	return c.Status(fiber.StatusOK).JSON(response)
}

// GetUserProfile returns account information for the authenticated user (API key).
// Security is enforced via API key middleware attached in the router.
func (s *APIServer) GetUserProfile(c *fiber.Ctx) error {
	return controllers.HandleGetUserAccount(c)
}

// ListPayments returns the caller's recent payments.
func (s *APIServer) ListPayments(c *fiber.Ctx) error {
	return controllers.HandleListMyPayments(c)
}

// GetPayment returns one payment by UUID, subject to ownership checks.
func (s *APIServer) GetPayment(c *fiber.Ctx) error {
	return controllers.HandleGetPayment(c)
}

// GetMyBalance returns the caller's ledger-derived balance.
func (s *APIServer) GetMyBalance(c *fiber.Ctx) error {
	return controllers.HandleGetMyBalance(c)
}

// ListMyLedgerEntries returns the caller's recent ledger movements.
func (s *APIServer) ListMyLedgerEntries(c *fiber.Ctx) error {
	return controllers.HandleListMyLedgerEntries(c)
}

// ListWebhookEvents lists webhook events by status (operator surface).
func (s *APIServer) ListWebhookEvents(c *fiber.Ctx) error {
	return controllers.HandleListWebhookEvents(c)
}

// GetWebhookEvent returns one webhook event including its raw payload.
func (s *APIServer) GetWebhookEvent(c *fiber.Ctx) error {
	return controllers.HandleGetWebhookEvent(c)
}

// ListAuditTrail lists audit entries for an entity or action.
func (s *APIServer) ListAuditTrail(c *fiber.Ctx) error {
	return controllers.HandleListAuditTrail(c)
}

// CheckUserBalance reconciles a user's balance projection with the ledger.
func (s *APIServer) CheckUserBalance(c *fiber.Ctx) error {
	return controllers.HandleCheckUserBalance(c)
}

// GetWebhookStats returns per-provider webhook delivery counters.
func (s *APIServer) GetWebhookStats(c *fiber.Ctx) error {
	return controllers.HandleGetWebhookStats(c)
}

// IssueUserAPIKey generates and stores a fresh API key for a user.
func (s *APIServer) IssueUserAPIKey(c *fiber.Ctx) error {
	return controllers.HandleIssueUserAPIKey(c)
}

// ListProviders lists the configured payment providers.
func (s *APIServer) ListProviders(c *fiber.Ctx) error {
	return controllers.HandleListProviders(c)
}

// SaveProvider creates or updates a provider webhook configuration.
func (s *APIServer) SaveProvider(c *fiber.Ctx) error {
	return controllers.HandleSaveProvider(c)
}
