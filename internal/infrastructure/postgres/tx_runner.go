package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain"
)

var _ lending.TxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// Run inicia una transacción, ejecuta fn con repos atados a la tx y hace Commit o Rollback.
// Los errores de dominio se devuelven tal cual; cualquier otro fallo (begin, commit,
// errores de pgx dentro del callback) se envuelve en domain.ErrTransactionFailed.
func (r *TxRunner) Run(ctx context.Context, fn func(repos lending.TxRepos) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", domain.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repos := lending.TxRepos{
		Tools:    NewToolRepository(tx),
		Loans:    NewLoanRepository(tx),
		Returns:  NewReturnRepository(tx),
		Activity: NewActivityLogRepository(tx),
	}

	if err := fn(repos); err != nil {
		return txError(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", domain.ErrTransactionFailed, err)
	}
	return nil
}
