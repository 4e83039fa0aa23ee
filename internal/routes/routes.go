package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ahmetcoskunkizilkaya/account-service/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/account-service/internal/middleware"
)

type Handlers struct {
	Root    *handlers.RootHandler
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Account *handlers.AccountHandler
}

func Setup(app *fiber.App, cfg *config.Config, h Handlers, gatherer prometheus.Gatherer) {
	app.Get("/", h.Root.Home)
	app.Get("/version", h.Root.Version)
	app.Post("/get-id-token", h.Root.IDToken)
	if gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", h.Health.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/sign-up", h.Auth.SignUp)
	auth.Post("/sign-in", h.Auth.SignIn)
	auth.Post("/:provider", h.Auth.Social)

	// JWT applied per route so public routes never see it
	api.Get("/me", middleware.JWTProtected(cfg), h.Account.Me)
	api.Put("/me", middleware.JWTProtected(cfg), h.Account.UpdateProfile)
	api.Delete("/me", middleware.JWTProtected(cfg), h.Account.Withdraw)
}
