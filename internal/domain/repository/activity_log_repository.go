package repository

import (
	"context"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
)

// ActivityLogRepository sumidero de solo escritura para la bitácora de actividad.
type ActivityLogRepository interface {
	Record(ctx context.Context, entry *entity.ActivityLog) error
}
