package lending

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// activityRecorder escribe la bitácora dentro de la tx y la difunde tras el commit.
// Ningún fallo de bitácora interrumpe la operación principal.
type activityRecorder struct {
	clock     Clock
	publisher ActivityPublisher
	log       zerolog.Logger
}

func (a *activityRecorder) entry(actorID, action, entityType, entityID, format string, args ...any) *entity.ActivityLog {
	return &entity.ActivityLog{
		ID:          uuid.New().String(),
		ActorID:     actorID,
		Action:      action,
		EntityType:  entityType,
		EntityID:    entityID,
		Description: fmt.Sprintf(format, args...),
		CreatedAt:   a.clock.Now(),
	}
}

func (a *activityRecorder) record(ctx context.Context, repo repository.ActivityLogRepository, e *entity.ActivityLog) {
	if repo == nil || e == nil {
		return
	}
	if err := repo.Record(ctx, e); err != nil {
		a.log.Warn().Err(err).Str("action", e.Action).Str("entity_id", e.EntityID).Msg("bitácora no registrada")
	}
}

func (a *activityRecorder) publish(ctx context.Context, e *entity.ActivityLog) {
	if a.publisher == nil || e == nil {
		return
	}
	if err := a.publisher.Publish(ctx, e); err != nil {
		a.log.Warn().Err(err).Str("action", e.Action).Str("entity_id", e.EntityID).Msg("bitácora no publicada")
	}
}
