package app

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doorstep/internal/config"
	"doorstep/internal/repository/memory"
	"doorstep/internal/repository/postgres"
)

func TestNewStores(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		stores, err := NewStores(config.StoreMemory, nil)
		require.NoError(t, err)
		assert.IsType(t, &memory.LeadRepository{}, stores.Leads)
	})

	t.Run("postgres", func(t *testing.T) {
		db, _, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		stores, err := NewStores(config.StorePostgres, db)
		require.NoError(t, err)
		assert.IsType(t, &postgres.LeadRepository{}, stores.Leads)
		assert.IsType(t, &postgres.MechanicRepository{}, stores.Mechanics)
	})

	t.Run("postgres without db", func(t *testing.T) {
		_, err := NewStores(config.StorePostgres, nil)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewStores("mongo", nil)
		assert.Error(t, err)
	})
}
