package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/aseguraplus/SeguroPay/app/controllers"
	apiv1 "github.com/aseguraplus/SeguroPay/internal/api/v1"
	"github.com/aseguraplus/SeguroPay/internal/pkg/constants"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	// Initialize admin controller with repositories
	controllers.InitializeAdminController()

	api := app.Group(constants.APIRoute, limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	// Provider webhooks authenticate with their signature, not an API key.
	api.Post(constants.WebhookPaymentsPath, controllers.HandleProviderWebhook)

	// API v1 routes
	v1 := api.Group("/v1")
	apiServer := apiv1.NewAPIServer()
	apiv1.RegisterHandlers(v1, apiServer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
