// Package server wires the HTTP routes onto a fiber app.
package server

import (
	"errors"
	"strings"

	"rootify-backend/internal/access"
	"rootify-backend/internal/admin"
	"rootify-backend/internal/assistant"
	"rootify-backend/internal/audit"
	"rootify-backend/internal/auth"
	"rootify-backend/internal/config"
	"rootify-backend/internal/identity"
	"rootify-backend/internal/logging"
	"rootify-backend/internal/models"
	"rootify-backend/internal/records"
	"rootify-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Deps struct {
	Config   *config.Config
	Log      logging.Logger
	Identity *identity.Service
	Resolver *access.Resolver
	Users    *users.Repository
	Records  *records.Service
	Audit    *audit.Service
	Gemini   assistant.Generator
	// RelyingParty is nil when federated login is not configured.
	RelyingParty *identity.RelyingParty
}

func New(d *Deps) *fiber.App {
	cfg := d.Config

	app := fiber.New(fiber.Config{
		AppName:      "rootify",
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: errorHandler(d.Log),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(corsOrigins, ","),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowCredentials: cfg.CORSOrigins != "*",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Post("/ask-gemini", assistant.AskGeminiHandler(d.Gemini, d.Log))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register", auth.RegisterHandler(d.Resolver))
	api.Post("/auth/login/user", auth.LoginHandler(cfg, d.Resolver, models.RoleUser))
	api.Post("/auth/login/admin", auth.LoginHandler(cfg, d.Resolver, models.RoleAdmin))

	if d.RelyingParty != nil {
		callback := federatedCallback(d)
		api.Get("/auth/federated/login", auth.FederatedLoginHandler(d.RelyingParty.LoginHandler()))
		api.Get("/auth/federated/callback", adaptor.HTTPHandlerFunc(d.RelyingParty.CallbackHandler(d.Identity, callback)))
	} else {
		api.Get("/auth/federated/*", auth.FederatedDisabledHandler())
	}

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg, d.Identity))

	protected.Post("/auth/logout", auth.LogoutHandler(d.Identity))
	protected.Get("/auth/me", auth.MeHandler(d.Users))

	protected.Get("/soil-types", records.ListSoilTypesHandler(d.Records))
	protected.Get("/distributors", records.ListDistributorsHandler(d.Records))

	// Admin routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Get("/soil-types", records.ListMySoilTypesHandler(d.Records))
	adminRoutes.Post("/soil-types", records.CreateSoilTypeHandler(d.Records))
	adminRoutes.Post("/soil-types/import", records.ImportHandler(d.Records, records.SoilTypes))
	adminRoutes.Delete("/soil-types/:id", records.DeleteHandler(d.Records, records.SoilTypes))

	adminRoutes.Get("/distributors", records.ListMyDistributorsHandler(d.Records))
	adminRoutes.Post("/distributors", records.CreateDistributorHandler(d.Records))
	adminRoutes.Post("/distributors/import", records.ImportHandler(d.Records, records.Distributors))
	adminRoutes.Delete("/distributors/:id", records.DeleteHandler(d.Records, records.Distributors))

	adminRoutes.Get("/audit-logs", admin.ListAuditLogsHandler(d.Audit))

	if cfg.PublicDir != "" {
		app.Static("/", cfg.PublicDir)
	}

	return app
}

func federatedCallback(d *Deps) identity.FederatedCallback {
	return auth.FederatedCallback(d.Config, d.Resolver)
}

// errorHandler renders every failure as {"error": msg}.
func errorHandler(log logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var e *fiber.Error
		if errors.As(err, &e) {
			return c.Status(e.Code).JSON(fiber.Map{
				"error": e.Message,
			})
		}
		log.Error(c.UserContext(), "unexpected error", "method", c.Method(), "path", c.Path(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Unexpected server error",
		})
	}
}
