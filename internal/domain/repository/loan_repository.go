package repository

import (
	"context"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// LoanRepository define el puerto de persistencia para Loan.
type LoanRepository interface {
	Create(ctx context.Context, loan *entity.Loan) error
	GetByID(ctx context.Context, id string) (*entity.Loan, error)
	// GetForUpdate bloquea la fila del préstamo (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id string) (*entity.Loan, error)
	Update(ctx context.Context, loan *entity.Loan) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter LoanFilter) ([]*entity.Loan, error)
}

// LoanFilter criterios para listar préstamos.
type LoanFilter struct {
	UserID string
	ToolID string
	Status entity.LoanStatus
	Limit  int
	Offset int
}
