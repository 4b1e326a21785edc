package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"puripilot/config"
	"puripilot/internal/model"
)

func TestInit_Sqlite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:db_" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}
	conn, err := Init(cfg)
	require.NoError(t, err)

	for _, table := range []string{"devices", "floorplans", "push_subscriptions"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
}

func TestInit_UnknownDriver(t *testing.T) {
	_, err := Init(&config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestMigrate_SeedsOnce(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:       "sqlite",
		DSN:          "file:db_" + t.Name() + "?mode=memory&cache=shared",
		MaxOpenConns: 1,
	}
	conn, err := Init(cfg)
	require.NoError(t, err)

	var seed model.Device
	require.NoError(t, conn.First(&seed, "id = ?", "lg-puricare-1").Error)
	assert.Equal(t, "Lg Puricare", seed.Name)
	assert.Equal(t, model.ModeNormal, seed.Mode)

	// A second migration of a populated database must not add rows.
	require.NoError(t, Migrate(conn))
	var count int64
	require.NoError(t, conn.Model(&model.Device{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
