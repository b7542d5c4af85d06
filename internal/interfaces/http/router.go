package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/application/usecase"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ToolUC    *usecase.ToolUseCase
	LoanUC    *lending.LoanUseCase
	ReturnUC  *lending.ReturnUseCase
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	anyRole := RequireRole(entity.RoleAdmin, entity.RoleStaff, entity.RoleBorrower)
	staff := RequireRole(entity.RoleAdmin, entity.RoleStaff)
	admin := RequireRole(entity.RoleAdmin)

	// Catálogo
	toolHandler := NewToolHandler(deps.ToolUC)
	api.Get("/tools", anyRole, toolHandler.List)
	api.Get("/tools/:id", anyRole, toolHandler.GetByID)
	api.Get("/categories", anyRole, toolHandler.ListCategories)

	// Préstamos
	loanHandler := NewLoanHandler(deps.LoanUC, deps.ReturnUC)
	loans := api.Group("/loans")
	loans.Post("/", anyRole, loanHandler.Submit)
	loans.Get("/", anyRole, loanHandler.List)
	loans.Get("/:id", anyRole, loanHandler.GetByID)
	loans.Put("/:id", staff, loanHandler.Update)
	loans.Delete("/:id", admin, loanHandler.Delete)
	loans.Post("/:id/approve", staff, loanHandler.Approve)
	loans.Post("/:id/lend", staff, loanHandler.Lend)
	loans.Post("/:id/reject", staff, loanHandler.Reject)
	loans.Get("/:id/fine-preview", staff, loanHandler.FinePreview)

	// Devoluciones
	returnHandler := NewReturnHandler(deps.ReturnUC)
	returns := api.Group("/returns")
	returns.Post("/", staff, returnHandler.Settle)
	returns.Get("/", staff, returnHandler.List)
	returns.Get("/:id", staff, returnHandler.GetByID)
	returns.Delete("/:id", admin, returnHandler.Delete)
}
