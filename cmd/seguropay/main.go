package main

import (
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/aseguraplus/SeguroPay/app/controllers"
	"github.com/aseguraplus/SeguroPay/app/repository"
	"github.com/aseguraplus/SeguroPay/internal/pkg/cache"
	"github.com/aseguraplus/SeguroPay/internal/pkg/constants"
	"github.com/aseguraplus/SeguroPay/internal/pkg/database"
	"github.com/aseguraplus/SeguroPay/internal/pkg/env"
	"github.com/aseguraplus/SeguroPay/internal/pkg/notify"
	"github.com/aseguraplus/SeguroPay/internal/pkg/router"
)

func main() {
	app, queue := NewApplication()
	defer queue.Stop()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() (*fiber.App, *notify.Queue) {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	// outcome notifications run outside the webhook transaction
	sender := notify.NewMailSender(repository.GetGlobalFactory().GetUserRepository())
	queue := notify.NewQueue(sender, env.GetEnvInt("NOTIFY_WORKERS", 2))
	queue.Start()
	controllers.InitializeWebhookController(queue)

	// init fiber app
	app := fiber.New(fiber.Config{
		AppName: "SeguroPay",
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get(constants.MetricsRoute, basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	return app, queue
}
