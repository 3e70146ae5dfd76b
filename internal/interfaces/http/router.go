package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Biblioteca-api/internal/application/analytics"
	"github.com/jhoicas/Biblioteca-api/internal/application/auth"
	"github.com/jhoicas/Biblioteca-api/internal/application/lending"
	"github.com/jhoicas/Biblioteca-api/internal/application/ports"
	"github.com/jhoicas/Biblioteca-api/internal/application/usecase"
	"github.com/jhoicas/Biblioteca-api/internal/domain/entity"
	"github.com/jhoicas/Biblioteca-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC      *auth.AuthUseCase
	UserUC      *usecase.UserUseCase
	CategoryUC  *usecase.CategoryUseCase
	BookUC      *usecase.BookUseCase
	EditionUC   *usecase.EditionUseCase
	LoanUC      *lending.LoanUseCase
	DashboardUC *analytics.DashboardUseCase
	ReportUC    *analytics.ReportUseCase
	JWTSecret   string
	Denylist    ports.TokenDenylist // opcional
	Metrics     *Metrics            // opcional
	Logger      *logger.Logger
}

// Router registra middlewares comunes y las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(RequestID())
	if deps.Logger != nil {
		app.Use(AccessLog(deps.Logger))
	}
	if deps.Metrics != nil {
		app.Use(deps.Metrics.Middleware())
		app.Get("/metrics", deps.Metrics.Handler())
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")
	// el rol de las rutas de administración se relee de la base de datos
	var roles RoleSource
	if deps.UserUC != nil {
		roles = deps.UserUC
	}
	admin := RequireRole(roles, string(entity.RoleAdmin))

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.UserUC)
	authGroup := api.Group("/auth")
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret, deps.Denylist))
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/me", authHandler.Me)
	protected.Get("/user/role", authHandler.Role)

	userHandler := NewUserHandler(deps.UserUC)
	users := protected.Group("/usuarios", admin)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.GetByID)
	users.Put("/:id/role", userHandler.UpdateRole)

	categoryHandler := NewCategoryHandler(deps.CategoryUC)
	categories := protected.Group("/categorias")
	categories.Get("/", categoryHandler.List)
	categories.Post("/", admin, categoryHandler.Create)
	categories.Put("/:id", admin, categoryHandler.Update)
	categories.Delete("/:id", admin, categoryHandler.Delete)

	bookHandler := NewBookHandler(deps.BookUC)
	editionHandler := NewEditionHandler(deps.EditionUC)
	books := protected.Group("/libros")
	books.Get("/", bookHandler.List)
	books.Get("/:id", bookHandler.GetByID)
	books.Post("/", admin, bookHandler.Create)
	books.Put("/:id", admin, bookHandler.Update)
	books.Delete("/:id", admin, bookHandler.Delete)
	books.Get("/:id/ediciones", editionHandler.ListByBook)
	books.Post("/:id/ediciones", admin, editionHandler.Create)
	protected.Put("/ediciones/:id/copias", admin, editionHandler.SetStock)

	// /mios se registra antes que /:id
	loanHandler := NewLoanHandler(deps.LoanUC)
	loans := protected.Group("/prestamos")
	loans.Get("/mios", loanHandler.Mine)
	loans.Get("/", admin, loanHandler.List)
	loans.Get("/:id", loanHandler.GetByID)
	loans.Post("/", admin, loanHandler.Create)
	loans.Post("/:id/iniciar", admin, loanHandler.Start)
	loans.Post("/:id/devolver", admin, loanHandler.Return)

	protected.Get("/dashboard", NewDashboardHandler(deps.DashboardUC).GetSummary)

	reportHandler := NewReportHandler(deps.ReportUC)
	reports := protected.Group("/reportes", admin)
	reports.Get("/inventario", reportHandler.Inventory)
	reports.Get("/prestamos-activos", reportHandler.ActiveLoans)
	reports.Get("/top-usuarios", reportHandler.TopBorrowers)
	reports.Get("/historial-usuario/:id", reportHandler.UserHistory)
	reports.Get("/descargar", reportHandler.Download)
}
