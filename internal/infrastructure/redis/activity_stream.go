package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/Prestamos-api/internal/application/lending"
	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/pkg/config"
	goredis "github.com/redis/go-redis/v9"
)

var _ lending.ActivityPublisher = (*ActivityStream)(nil)

// streamMaxLen tope aproximado de entradas retenidas en el stream.
const streamMaxLen = 10000

// ActivityStream difunde la bitácora confirmada a un stream de Redis (XADD).
type ActivityStream struct {
	rdb     goredis.Cmdable
	stream  string
	timeout time.Duration
}

// NewClient crea el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// NewActivityStream construye el publicador sobre rdb y el nombre de stream.
func NewActivityStream(rdb goredis.Cmdable, stream string) *ActivityStream {
	if stream == "" {
		stream = "lending:activity"
	}
	return &ActivityStream{rdb: rdb, stream: stream, timeout: 2 * time.Second}
}

// Publish agrega la entrada al stream. Un Redis lento no debe frenar la respuesta: timeout corto.
func (s *ActivityStream) Publish(ctx context.Context, e *entity.ActivityLog) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.rdb.XAdd(ctx, &goredis.XAddArgs{
		Stream: s.stream,
		MaxLen: streamMaxLen,
		Approx: true,
		Values: Fields(e),
	}).Err()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", s.stream, err)
	}
	return nil
}

// Fields aplana la entrada en los campos del mensaje del stream.
func Fields(e *entity.ActivityLog) map[string]any {
	return map[string]any{
		"id":          e.ID,
		"actor_id":    e.ActorID,
		"action":      e.Action,
		"entity_type": e.EntityType,
		"entity_id":   e.EntityID,
		"description": e.Description,
		"created_at":  e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
