package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Prestamos-api/internal/domain/entity"
	"github.com/jhoicas/Prestamos-api/internal/infrastructure/redis"
	goredis "github.com/redis/go-redis/v9"
)

func TestFields(t *testing.T) {
	e := &entity.ActivityLog{
		ID: "a-1", ActorID: "u-1", Action: entity.ActionLoanApproved,
		EntityType: entity.EntityTypeLoan, EntityID: "l-1", Description: "PJM-1: waiting -> approved",
		CreatedAt: time.Date(2024, 3, 10, 9, 0, 0, 0, time.FixedZone("WIB", 7*3600)),
	}
	f := redis.Fields(e)

	assert.Equal(t, "loan.approved", f["action"])
	assert.Equal(t, "l-1", f["entity_id"])
	assert.Equal(t, "2024-03-10T02:00:00Z", f["created_at"], "marca de tiempo en UTC")
}

func TestPublish_RedisCaidoDevuelveError(t *testing.T) {
	rdb := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	s := redis.NewActivityStream(rdb, "")
	err := s.Publish(context.Background(), &entity.ActivityLog{ID: "a-1", CreatedAt: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lending:activity")
}
