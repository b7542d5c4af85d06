package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

var _ repository.ReturnRepository = (*ReturnRepo)(nil)

// ReturnRepo implementación de ReturnRepository sobre PostgreSQL (usable con pool o tx).
type ReturnRepo struct {
	q Querier
}

// NewReturnRepository construye el adaptador de devoluciones. Pasar pool o tx (Querier).
func NewReturnRepository(q Querier) *ReturnRepo {
	return &ReturnRepo{q: q}
}

const returnColumns = `id, loan_id, actual_return_date, days_late, fine_per_day, total_fine, condition,
	good_units, damaged_units, lost_units, note, processed_by, created_at`

func scanReturn(row pgx.Row) (*entity.LoanReturn, error) {
	var x entity.LoanReturn
	err := row.Scan(
		&x.ID, &x.LoanID, &x.ActualReturnDate, &x.DaysLate, &x.FinePerDay, &x.TotalFine, &x.Condition,
		&x.GoodUnits, &x.DamagedUnits, &x.LostUnits, &x.Note, &x.ProcessedBy, &x.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

// Create inserta la devolución. loan_id es UNIQUE: una segunda devolución es ErrAlreadySettled.
func (r *ReturnRepo) Create(ctx context.Context, ret *entity.LoanReturn) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO loan_returns (id, loan_id, actual_return_date, days_late, fine_per_day, total_fine, condition,
			good_units, damaged_units, lost_units, note, processed_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		ret.ID, ret.LoanID, ret.ActualReturnDate, ret.DaysLate, ret.FinePerDay, ret.TotalFine, ret.Condition,
		ret.GoodUnits, ret.DamagedUnits, ret.LostUnits, ret.Note, ret.ProcessedBy, ret.CreatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrAlreadySettled
		case isForeignKeyViolation(err):
			return domain.ErrNotFound
		}
		return fmt.Errorf("create loan return: %w", err)
	}
	return nil
}

func (r *ReturnRepo) getOne(ctx context.Context, query string, arg string) (*entity.LoanReturn, error) {
	var out *entity.LoanReturn
	err := withReadRetry(ctx, r.q, func() error {
		x, err := scanReturn(r.q.QueryRow(ctx, query, arg))
		out = x
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return out, nil
}

// GetByID obtiene una devolución por ID. nil si no existe.
func (r *ReturnRepo) GetByID(ctx context.Context, id string) (*entity.LoanReturn, error) {
	if !validID(id) {
		return nil, nil
	}
	x, err := r.getOne(ctx, `SELECT `+returnColumns+` FROM loan_returns WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get loan return: %w", err)
	}
	return x, nil
}

// GetForUpdate obtiene la devolución y bloquea la fila.
func (r *ReturnRepo) GetForUpdate(ctx context.Context, id string) (*entity.LoanReturn, error) {
	if !validID(id) {
		return nil, nil
	}
	x, err := scanReturn(r.q.QueryRow(ctx, `SELECT `+returnColumns+` FROM loan_returns WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan return for update: %w", err)
	}
	return x, nil
}

// GetByLoanID obtiene la devolución de un préstamo. nil si no tiene.
func (r *ReturnRepo) GetByLoanID(ctx context.Context, loanID string) (*entity.LoanReturn, error) {
	if !validID(loanID) {
		return nil, nil
	}
	x, err := r.getOne(ctx, `SELECT `+returnColumns+` FROM loan_returns WHERE loan_id = $1`, loanID)
	if err != nil {
		return nil, fmt.Errorf("get loan return by loan: %w", err)
	}
	return x, nil
}

// Delete borra la devolución.
func (r *ReturnRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM loan_returns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loan return: %w", err)
	}
	return nil
}

// List lista devoluciones, más recientes primero.
func (r *ReturnRepo) List(ctx context.Context, limit, offset int) ([]*entity.LoanReturn, error) {
	var list []*entity.LoanReturn
	err := withReadRetry(ctx, r.q, func() error {
		list = nil
		rows, err := r.q.Query(ctx,
			`SELECT `+returnColumns+` FROM loan_returns ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			x, err := scanReturn(rows)
			if err != nil {
				return err
			}
			list = append(list, x)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list loan returns: %w", err)
	}
	return list, nil
}
