package usecase

import (
	"context"

	"github.com/jhoicas/Prestamos-api/internal/application/dto"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

// ToolUseCase consultas del catálogo de herramientas. Las existencias solo cambian vía el libro
// de inventario (application/lending), nunca desde aquí.
type ToolUseCase struct {
	tools      repository.ToolRepository
	categories repository.CategoryRepository
}

// NewToolUseCase construye el caso de uso.
func NewToolUseCase(tools repository.ToolRepository, categories repository.CategoryRepository) *ToolUseCase {
	return &ToolUseCase{tools: tools, categories: categories}
}

// ToolQuery filtros de listado.
type ToolQuery struct {
	CategoryID string
	Status     string
	Search     string
	Page       dto.PageRequest
}

// GetByID obtiene una herramienta. ErrToolNotFound si no existe.
func (uc *ToolUseCase) GetByID(ctx context.Context, id string) (*dto.ToolResponse, error) {
	t, err := uc.tools.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.ErrToolNotFound
	}
	out := dto.NewToolResponse(t)
	return &out, nil
}

// List lista herramientas con filtros y paginación.
func (uc *ToolUseCase) List(ctx context.Context, q ToolQuery) (*dto.ToolListResponse, error) {
	q.Page.DefaultPage()
	status := entity.ToolStatus(q.Status)
	switch status {
	case "", entity.ToolAvailable, entity.ToolOutOfStock, entity.ToolMaintenance:
	default:
		return nil, domain.ErrInvalidInput
	}
	list, err := uc.tools.List(ctx, repository.ToolFilter{
		CategoryID: q.CategoryID,
		Status:     status,
		Search:     q.Search,
		Limit:      q.Page.Limit,
		Offset:     q.Page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ToolResponse, 0, len(list))
	for _, t := range list {
		items = append(items, dto.NewToolResponse(t))
	}
	return &dto.ToolListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: q.Page.Limit, Offset: q.Page.Offset},
	}, nil
}

// ListCategories lista las categorías.
func (uc *ToolUseCase) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, dto.CategoryResponse{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out, nil
}
