package repository

import (
	"context"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// ReturnRepository define el puerto de persistencia para LoanReturn.
// Create devuelve domain.ErrAlreadySettled si el préstamo ya tiene devolución.
type ReturnRepository interface {
	Create(ctx context.Context, ret *entity.LoanReturn) error
	GetByID(ctx context.Context, id string) (*entity.LoanReturn, error)
	// GetForUpdate bloquea la fila de la devolución.
	GetForUpdate(ctx context.Context, id string) (*entity.LoanReturn, error)
	GetByLoanID(ctx context.Context, loanID string) (*entity.LoanReturn, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]*entity.LoanReturn, error)
}
