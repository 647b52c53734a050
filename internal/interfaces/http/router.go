package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Tagihan-api/internal/application/analytics"
	"github.com/jhoicas/Tagihan-api/internal/application/auth"
	"github.com/jhoicas/Tagihan-api/internal/application/billing"
	"github.com/jhoicas/Tagihan-api/internal/application/usecase"
)

// RouterDeps dependencias para el router. AuthUC y InsightsUC son opcionales.
type RouterDeps struct {
	Store      *billing.CustomerStore
	Receipts   *billing.ReceiptUseCase
	Dashboard  *analytics.DashboardUseCase
	InsightsUC *usecase.InsightsUseCase
	AuthUC     *auth.AuthUseCase
	JWTSecret  string // vacío = API sin autenticación
	Logger     zerolog.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	if deps.AuthUC != nil {
		authHandler := NewAuthHandler(deps.AuthUC)
		api.Post("/auth/login", authHandler.Login)
	}

	// Rutas protegidas (Bearer Token cuando hay secreto configurado)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.Store, deps.Receipts, deps.Logger)
	customers.Get("/events", customerHandler.Events)
	customers.Get("/", customerHandler.List)
	customers.Post("/", customerHandler.Create)
	customers.Get("/:id", customerHandler.Get)
	customers.Patch("/:id", customerHandler.Update)
	customers.Delete("/:id", RequireRole(deps.JWTSecret, auth.RoleAdmin), customerHandler.Delete)
	customers.Post("/:id/payments", customerHandler.RecordPayment)
	customers.Get("/:id/payments/:pid/receipt", customerHandler.Receipt)

	if deps.Dashboard != nil {
		dashboardHandler := NewDashboardHandler(deps.Dashboard)
		protected.Get("/dashboard/summary", dashboardHandler.GetSummary)
	}

	if deps.InsightsUC != nil {
		insightsHandler := NewInsightsHandler(deps.InsightsUC)
		protected.Post("/insights", insightsHandler.Generate)
	}
}
