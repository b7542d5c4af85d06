package lending

import (
	"context"
	"crypto/rand"
	"time"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
	"github.com/oklog/ulid/v2"
)

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Tools    repository.ToolRepository
	Loans    repository.LoanRepository
	Returns  repository.ReturnRepository
	Activity repository.ActivityLogRepository
}

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback y ningún cambio es visible; si no, Commit.
// Los fallos del almacén al escribir se devuelven envueltos en domain.ErrTransactionFailed.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos TxRepos) error) error
}

// ActivityPublisher difunde entradas de bitácora ya confirmadas (p. ej. un stream de Redis).
// Sus errores nunca bloquean la operación.
type ActivityPublisher interface {
	Publish(ctx context.Context, entry *entity.ActivityLog) error
}

// Clock fuente de tiempo inyectable.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// CodeGenerator genera códigos únicos legibles para préstamos.
type CodeGenerator interface {
	NewLoanCode(t time.Time) (string, error)
}

// ULIDCodeGenerator genera códigos <prefijo>-<ULID>, ordenables por fecha.
type ULIDCodeGenerator struct {
	Prefix string
}

// NewLoanCode genera un código nuevo con marca de tiempo t.
func (g ULIDCodeGenerator) NewLoanCode(t time.Time) (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	if g.Prefix == "" {
		return id.String(), nil
	}
	return g.Prefix + "-" + id.String(), nil
}
