package dto

import (
	"time"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// ToolResponse herramienta con sus existencias por bucket.
type ToolResponse struct {
	ID             string    `json:"id"`
	Code           string    `json:"code"`
	Name           string    `json:"name"`
	CategoryID     *string   `json:"category_id,omitempty"`
	Condition      string    `json:"condition"`
	TotalStock     int       `json:"total_stock"`
	AvailableStock int       `json:"available_stock"`
	RepairStock    int       `json:"repair_stock"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToolListResponse listado paginado de herramientas.
type ToolListResponse struct {
	Items []ToolResponse `json:"items"`
	Page  PageResponse   `json:"page"`
}

// CategoryResponse categoría de herramientas.
type CategoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// NewToolResponse convierte la entidad en respuesta.
func NewToolResponse(t *entity.Tool) ToolResponse {
	return ToolResponse{
		ID:             t.ID,
		Code:           t.Code,
		Name:           t.Name,
		CategoryID:     t.CategoryID,
		Condition:      t.Condition,
		TotalStock:     t.TotalStock,
		AvailableStock: t.AvailableStock,
		RepairStock:    t.RepairStock,
		Status:         string(t.Status),
		UpdatedAt:      t.UpdatedAt,
	}
}
