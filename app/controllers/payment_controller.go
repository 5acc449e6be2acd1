package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/models"
	"github.com/aseguraplus/SeguroPay/app/repository"
	"github.com/aseguraplus/SeguroPay/internal/pkg/authz"
	"github.com/aseguraplus/SeguroPay/internal/pkg/database"
	"github.com/aseguraplus/SeguroPay/internal/pkg/ledger"
	"github.com/aseguraplus/SeguroPay/internal/pkg/usercontext"
)

const defaultListLimit = 50

// HandleGetPayment returns one payment. Clients see their own payments only;
// oversight roles and admins see all.
func HandleGetPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid payment id"})
	}

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	payment, err := repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Payment not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payment"})
	}

	owns := payment.UserID == userCtx.UserID
	if !authz.Can(userCtx.Role, authz.ActionViewPayment, owns) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not allowed to view this payment"})
	}

	return c.JSON(paymentResponse(payment))
}

// HandleListMyPayments returns the authenticated user's recent payments.
func HandleListMyPayments(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !authz.Can(userCtx.Role, authz.ActionListPayments, true) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not allowed to list payments"})
	}

	repo := repository.GetGlobalFactory().GetPaymentRepository()
	list, err := repo.GetByUserID(userCtx.UserID, defaultListLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load payments"})
	}

	out := make([]fiber.Map, 0, len(list))
	for i := range list {
		out = append(out, paymentResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"payments": out})
}

// HandleGetMyBalance returns the authenticated user's balance derived from the
// ledger. The cached projection is never served here.
func HandleGetMyBalance(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !authz.Can(userCtx.Role, authz.ActionViewBalance, true) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not allowed to view balance"})
	}

	svc := ledger.NewServiceFromDB(database.GetDB())
	balance, err := svc.ComputeBalance(userCtx.UserID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to derive balance"})
	}

	return c.JSON(fiber.Map{
		"user_id":  userCtx.UserID,
		"balance":  balance.StringFixed(2),
		"currency": "COP",
	})
}

// HandleListMyLedgerEntries returns the authenticated user's recent ledger
// movements, newest first.
func HandleListMyLedgerEntries(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !authz.Can(userCtx.Role, authz.ActionViewLedger, true) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Not allowed to view ledger"})
	}

	repo := repository.GetGlobalFactory().GetLedgerRepository()
	entries, err := repo.ListByUser(userCtx.UserID, defaultListLimit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load ledger entries"})
	}

	out := make([]fiber.Map, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		out = append(out, fiber.Map{
			"id":         e.ID,
			"type":       e.Type,
			"amount":     e.Amount.StringFixed(2),
			"concept":    e.Concept,
			"reference":  e.Reference,
			"created_at": e.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"entries": out})
}

func paymentResponse(p *models.Payment) fiber.Map {
	return fiber.Map{
		"id":                      p.ID,
		"user_id":                 p.UserID,
		"amount":                  p.Amount.StringFixed(2),
		"currency":                p.Currency,
		"method":                  p.Method,
		"status":                  p.Status,
		"concept":                 p.Concept,
		"provider_transaction_id": p.ProviderTransactionID,
		"paid_at":                 p.PaidAt,
		"created_at":              p.CreatedAt,
	}
}
