package repository

import (
	"context"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// ToolRepository define el puerto de persistencia para Tool.
// UpdateStock solo debe llamarlo el libro de inventario (application/lending.Ledger).
type ToolRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Tool, error)
	// GetForUpdate bloquea la fila de la herramienta (SELECT FOR UPDATE) hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Tool, error)
	UpdateStock(ctx context.Context, tool *entity.Tool) error
	List(ctx context.Context, filter ToolFilter) ([]*entity.Tool, error)
}

// ToolFilter criterios para listar herramientas.
type ToolFilter struct {
	CategoryID string
	Status     entity.ToolStatus
	Search     string // código o nombre
	Limit      int
	Offset     int
}
