package main

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/contabilflow/backend/shared/models"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestNextGenerationIsMonotonicPerSlug(t *testing.T) {
	loader := NewLoader(nil)

	assert.Equal(t, uint64(1), loader.nextGeneration("acme"))
	assert.Equal(t, uint64(2), loader.nextGeneration("acme"))
	assert.Equal(t, uint64(1), loader.nextGeneration("other"))
	assert.Equal(t, uint64(3), loader.nextGeneration("acme"))
}

func TestPublishKeepsNewestGeneration(t *testing.T) {
	loader := NewLoader(nil)

	_, err := loader.publish("acme", models.Bundle{WorkspaceSlug: "acme", Generation: 1})
	require.NoError(t, err)
	_, err = loader.publish("acme", models.Bundle{WorkspaceSlug: "acme", Generation: 3})
	require.NoError(t, err)

	// A slow load finishing late must not move the published marker back
	_, err = loader.publish("acme", models.Bundle{WorkspaceSlug: "acme", Generation: 2})
	require.NoError(t, err)

	loader.mu.Lock()
	defer loader.mu.Unlock()
	assert.Equal(t, uint64(3), loader.published["acme"])
}

func TestPublishTracksSlugsIndependently(t *testing.T) {
	loader := NewLoader(nil)

	loader.publish("acme", models.Bundle{WorkspaceSlug: "acme", Generation: 5})
	loader.publish("other", models.Bundle{WorkspaceSlug: "other", Generation: 1})

	loader.mu.Lock()
	defer loader.mu.Unlock()
	assert.Equal(t, uint64(5), loader.published["acme"])
	assert.Equal(t, uint64(1), loader.published["other"])
}

func TestLoadCollectionReturnsStoredClients(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `clients`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "name"}).
			AddRow("c-1", "acme", "Padaria Central").
			AddRow("c-2", "acme", "Mercado Bom Preço").
			AddRow("c-3", "acme", "Oficina do Zé"))

	clients := loadCollection[models.Client](db, "acme")

	assert.True(t, clients.Fetched)
	require.Len(t, clients.Items, 3)

	seen := make(map[string]bool)
	for _, client := range clients.Items {
		require.NotEmpty(t, client.ID)
		require.False(t, seen[client.ID], "duplicate client id %s", client.ID)
		seen[client.ID] = true
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCollectionQueryFailureIsUnfetched(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT \\* FROM `tasks`").
		WillReturnError(errors.New("connection reset"))

	tasks := loadCollection[models.Task](db, "acme")

	assert.False(t, tasks.Fetched)
	assert.Empty(t, tasks.Items)
	require.NoError(t, mock.ExpectationsWereMet())
}
