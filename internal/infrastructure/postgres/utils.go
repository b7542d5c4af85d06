package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/Prestamos-api/internal/domain"
)

// Querier es lo común a *pgxpool.Pool y pgx.Tx: los repositorios funcionan igual con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const readRetryDelay = 50 * time.Millisecond

// validID indica si id puede ser una clave UUID. Un id mal formado no existe: se responde
// "no encontrado" sin ir a la base de datos.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// isForeignKeyViolation verifica si un error es una violación de FK (23503).
func isForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

// isCheckViolation verifica si un error es una violación de CHECK (23514).
func isCheckViolation(err error) bool {
	return hasCode(err, "23514")
}

func hasCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), code)
}

// isTransient indica fallos del almacén que no dependen de los datos: serialización (40001),
// interbloqueo (40P01), conexión (clase 08), recursos (clase 53), apagado o cancelación
// (clase 57), tx abortada (25P02) o errores que pgconn considera seguros de reintentar.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "40001", pgErr.Code == "40P01", pgErr.Code == "25P02":
			return true
		case strings.HasPrefix(pgErr.Code, "08"), strings.HasPrefix(pgErr.Code, "53"), strings.HasPrefix(pgErr.Code, "57"):
			return true
		}
		return false
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var connErr *pgconn.ConnectError
	return errors.As(err, &connErr)
}

// domainErrors son los centinelas que un callback de transacción puede devolver tal cual.
var domainErrors = []error{
	domain.ErrNotFound,
	domain.ErrToolNotFound,
	domain.ErrInvalidInput,
	domain.ErrDuplicate,
	domain.ErrUnauthorized,
	domain.ErrForbidden,
	domain.ErrInsufficientStock,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidTransition,
	domain.ErrInvalidState,
	domain.ErrUnitMismatch,
	domain.ErrAlreadySettled,
	domain.ErrTransactionFailed,
}

func isDomainError(err error) bool {
	for _, target := range domainErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// txError clasifica el error de un callback: los de dominio pasan intactos y cualquier
// otro fallo del almacén se envuelve en domain.ErrTransactionFailed.
func txError(err error) error {
	if err == nil || isDomainError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrTransactionFailed, err)
}

// withReadRetry reintenta una vez las lecturas fuera de transacción ante fallos transitorios.
// Dentro de una tx no se reintenta: la tx ya quedó abortada y decide el TxRunner.
func withReadRetry(ctx context.Context, q Querier, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) {
		return err
	}
	if _, inTx := q.(pgx.Tx); inTx {
		return err
	}
	select {
	case <-ctx.Done():
		return err
	case <-time.After(readRetryDelay):
	}
	return fn()
}
