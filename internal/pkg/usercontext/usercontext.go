package usercontext

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/aseguraplus/SeguroPay/app/models"
)

// UserContext represents the authenticated caller for a request
type UserContext struct {
	UserID     uuid.UUID `json:"user_id"`
	Role       string    `json:"role"`
	IsLoggedIn bool      `json:"is_logged_in"`
}

// GetUserContext retrieves the user context from fiber context
// Returns a default anonymous context if none is set
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx := c.Locals(KeyUserContext); ctx != nil {
		return ctx.(UserContext)
	}
	return UserContext{IsLoggedIn: false}
}

// IsLoggedIn checks if the current request is authenticated
func IsLoggedIn(c *fiber.Ctx) bool {
	return GetUserContext(c).IsLoggedIn
}

// IsAdmin checks if the current user has the admin role
func IsAdmin(c *fiber.Ctx) bool {
	return GetUserContext(c).Role == models.RoleAdmin
}

// GetUserID returns the current user's ID, or uuid.Nil if not logged in
func GetUserID(c *fiber.Ctx) uuid.UUID {
	return GetUserContext(c).UserID
}

// GetRole returns the current user's role, or empty string if not logged in
func GetRole(c *fiber.Ctx) string {
	return GetUserContext(c).Role
}
