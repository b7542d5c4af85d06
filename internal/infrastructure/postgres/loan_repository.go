package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Prestamos-api/internal/domain"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

var _ repository.LoanRepository = (*LoanRepo)(nil)

// LoanRepo implementación de LoanRepository sobre PostgreSQL (usable con pool o tx).
type LoanRepo struct {
	q Querier
}

// NewLoanRepository construye el adaptador de préstamos. Pasar pool o tx (Querier).
func NewLoanRepository(q Querier) *LoanRepo {
	return &LoanRepo{q: q}
}

const loanColumns = `id, code, user_id, tool_id, quantity, borrow_date, planned_return_date, purpose, status,
	validated_by, validated_at, validation_note, created_at, updated_at`

func scanLoan(row pgx.Row) (*entity.Loan, error) {
	var l entity.Loan
	err := row.Scan(
		&l.ID, &l.Code, &l.UserID, &l.ToolID, &l.Quantity, &l.BorrowDate, &l.PlannedReturnDate,
		&l.Purpose, &l.Status, &l.ValidatedBy, &l.ValidatedAt, &l.ValidationNote,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// Create inserta un préstamo. Código repetido = ErrDuplicate; herramienta inexistente = ErrToolNotFound.
func (r *LoanRepo) Create(ctx context.Context, loan *entity.Loan) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO loans (id, code, user_id, tool_id, quantity, borrow_date, planned_return_date, purpose,
			status, validated_by, validated_at, validation_note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		loan.ID, loan.Code, loan.UserID, loan.ToolID, loan.Quantity, loan.BorrowDate, loan.PlannedReturnDate,
		loan.Purpose, loan.Status, loan.ValidatedBy, loan.ValidatedAt, loan.ValidationNote,
		loan.CreatedAt, loan.UpdatedAt,
	)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return domain.ErrToolNotFound
		}
		return fmt.Errorf("create loan: %w", err)
	}
	return nil
}

// GetByID obtiene un préstamo por ID. nil si no existe.
func (r *LoanRepo) GetByID(ctx context.Context, id string) (*entity.Loan, error) {
	if !validID(id) {
		return nil, nil
	}
	var out *entity.Loan
	err := withReadRetry(ctx, r.q, func() error {
		l, err := scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1`, id))
		out = l
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan: %w", err)
	}
	return out, nil
}

// GetForUpdate obtiene el préstamo y bloquea la fila (SELECT FOR UPDATE).
func (r *LoanRepo) GetForUpdate(ctx context.Context, id string) (*entity.Loan, error) {
	if !validID(id) {
		return nil, nil
	}
	l, err := scanLoan(r.q.QueryRow(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get loan for update: %w", err)
	}
	return l, nil
}

// Update persiste todos los campos editables del préstamo.
func (r *LoanRepo) Update(ctx context.Context, loan *entity.Loan) error {
	tag, err := r.q.Exec(ctx, `
		UPDATE loans
		SET tool_id = $2, quantity = $3, borrow_date = $4, planned_return_date = $5, purpose = $6,
			status = $7, validated_by = $8, validated_at = $9, validation_note = $10, updated_at = $11
		WHERE id = $1`,
		loan.ID, loan.ToolID, loan.Quantity, loan.BorrowDate, loan.PlannedReturnDate, loan.Purpose,
		loan.Status, loan.ValidatedBy, loan.ValidatedAt, loan.ValidationNote, loan.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrToolNotFound
		}
		return fmt.Errorf("update loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete borra el préstamo.
func (r *LoanRepo) Delete(ctx context.Context, id string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	return nil
}

// List lista préstamos con filtros, más recientes primero.
func (r *LoanRepo) List(ctx context.Context, f repository.LoanFilter) ([]*entity.Loan, error) {
	if f.ToolID != "" && !validID(f.ToolID) {
		return nil, nil
	}
	var (
		where []string
		args  []any
	)
	if f.UserID != "" {
		args = append(args, f.UserID)
		where = append(where, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.ToolID != "" {
		args = append(args, f.ToolID)
		where = append(where, fmt.Sprintf("tool_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + loanColumns + ` FROM loans`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	var list []*entity.Loan
	err := withReadRetry(ctx, r.q, func() error {
		list = nil
		rows, err := r.q.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			l, err := scanLoan(rows)
			if err != nil {
				return err
			}
			list = append(list, l)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	return list, nil
}
