package postgres_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Prestamos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Prestamos-api/pkg/config"
)

func TestPoolConfig(t *testing.T) {
	cfg := config.DBConfig{
		Host: "127.0.0.1", Port: 5432, User: "app", Password: "p@ss:word",
		DBName: "prestamos", SSLMode: "disable", MaxConns: 7,
	}
	pc, err := postgres.PoolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(7), pc.MaxConns)
	assert.Equal(t, int32(2), pc.MinConns)
	assert.Equal(t, "UTC", pc.ConnConfig.RuntimeParams["timezone"])
	assert.Equal(t, "p@ss:word", pc.ConnConfig.Password, "la contraseña se codifica en el DSN")
	assert.NotNil(t, pc.AfterConnect, "registra el codec decimal")
}

func TestPoolConfig_MinConnsNoSuperaMax(t *testing.T) {
	pc, err := postgres.PoolConfig(config.DBConfig{Host: "127.0.0.1", Port: 5432, DBName: "x", SSLMode: "disable", MaxConns: 1})
	require.NoError(t, err)
	assert.Equal(t, int32(1), pc.MinConns)
}

func TestMigrationNames(t *testing.T) {
	names, err := postgres.MigrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_lending_schema.sql", names[0])
}
