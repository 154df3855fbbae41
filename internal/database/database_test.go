package database

import (
	"path/filepath"
	"testing"

	"github.com/blues/antugrow/internal/config"
	"github.com/blues/antugrow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitSQLiteMemory(t *testing.T) {
	db, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)

	for _, table := range []string{"farms", "farm_weather", "farm_satellite", "farmers"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	farm := model.FarmModel{FarmerID: "f-1", Name: "North", CropTypes: []string{"maize"}}
	require.NoError(t, db.Create(&farm).Error)
	assert.Len(t, farm.ID, 36)
}

func TestInitSQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "antugrow.db")
	_, err := Init(config.DatabaseConfig{Driver: "sqlite", Path: path})
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestInitUnknownDriver(t *testing.T) {
	_, err := Init(config.DatabaseConfig{Driver: "mongo"})
	assert.Error(t, err)
}
