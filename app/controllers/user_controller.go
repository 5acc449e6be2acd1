package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/aseguraplus/SeguroPay/app/repository"
	"github.com/aseguraplus/SeguroPay/internal/pkg/database"
	"github.com/aseguraplus/SeguroPay/internal/pkg/ledger"
	"github.com/aseguraplus/SeguroPay/internal/pkg/usercontext"
)

// HandleGetUserAccount returns account information for the authenticated user.
func HandleGetUserAccount(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	repo := repository.GetGlobalFactory().GetUserRepository()
	account, err := repo.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load user"})
	}

	svc := ledger.NewServiceFromDB(database.GetDB())
	balance, err := svc.ComputeBalance(account.ID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to derive balance"})
	}

	return c.JSON(fiber.Map{
		"id":         account.ID,
		"full_name":  account.FullName,
		"email":      account.EmailPrimary,
		"id_type":    account.IDType,
		"id_number":  account.IDNumber,
		"role":       account.Role,
		"status":     account.Status,
		"balance":    balance.StringFixed(2),
		"created_at": account.CreatedAt.UTC().Format(time.RFC3339),
	})
}
