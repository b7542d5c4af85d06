package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/Prestamos-api/internal/application/dto"
	"github.com/jhoicas/Prestamos-api/internal/application/usecase"
)

// ToolHandler consultas del catálogo de herramientas (cualquier rol autenticado).
type ToolHandler struct {
	uc *usecase.ToolUseCase
}

// NewToolHandler construye el handler.
func NewToolHandler(uc *usecase.ToolUseCase) *ToolHandler {
	return &ToolHandler{uc: uc}
}

// List godoc
// @Summary      Listar herramientas
// @Tags         tools
// @Security     Bearer
// @Produce      json
// @Param        category_id  query  string  false  "Categoría"
// @Param        status       query  string  false  "available|out_of_stock|maintenance"
// @Param        q            query  string  false  "Búsqueda por código o nombre"
// @Param        limit        query  int     false  "Límite"  default(20)
// @Param        offset       query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.ToolListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/tools [get]
func (h *ToolHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), usecase.ToolQuery{
		CategoryID: c.Query("category_id"),
		Status:     c.Query("status"),
		Search:     c.Query("q"),
		Page:       dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener herramienta por ID
// @Tags         tools
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la herramienta"
// @Success      200  {object}  dto.ToolResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/tools/{id} [get]
func (h *ToolHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// ListCategories godoc
// @Summary      Listar categorías de herramientas
// @Tags         tools
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CategoryResponse
// @Router       /api/categories [get]
func (h *ToolHandler) ListCategories(c *fiber.Ctx) error {
	out, err := h.uc.ListCategories(c.UserContext())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
