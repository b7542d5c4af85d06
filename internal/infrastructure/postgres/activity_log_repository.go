package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
)

var _ repository.ActivityLogRepository = (*ActivityLogRepo)(nil)

// ActivityLogRepo bitácora sobre PostgreSQL.
type ActivityLogRepo struct {
	q Querier
}

// NewActivityLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewActivityLogRepository(q Querier) *ActivityLogRepo {
	return &ActivityLogRepo{q: q}
}

const insertActivity = `
	INSERT INTO activity_logs (id, actor_id, action, entity_type, entity_id, description, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)`

// Record inserta la entrada. Dentro de una tx usa un SAVEPOINT: si el insert falla solo se
// deshace el savepoint y la transacción principal sigue utilizable.
func (r *ActivityLogRepo) Record(ctx context.Context, e *entity.ActivityLog) error {
	args := []any{e.ID, e.ActorID, e.Action, e.EntityType, e.EntityID, e.Description, e.CreatedAt}

	tx, inTx := r.q.(pgx.Tx)
	if !inTx {
		if _, err := r.q.Exec(ctx, insertActivity, args...); err != nil {
			return fmt.Errorf("record activity: %w", err)
		}
		return nil
	}

	sp, err := tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("activity savepoint: %w", err)
	}
	if _, err := sp.Exec(ctx, insertActivity, args...); err != nil {
		_ = sp.Rollback(ctx)
		return fmt.Errorf("record activity: %w", err)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("release activity savepoint: %w", err)
	}
	return nil
}
