package audit

import (
	"errors"
	"testing"
	"time"

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

func feedColumns() []string {
	return []string{"id", "workspace_slug", "action", "target_id", "created_at"}
}

func testActor() *models.UserInfo {
	return &models.UserInfo{
		UserID:        "u-1",
		Name:          "Maria Souza",
		Email:         "maria@acme.com.br",
		Role:          models.RoleAdmin,
		WorkspaceSlug: "acme",
	}
}

func TestRecordNilActorIsNoOp(t *testing.T) {
	recorder := NewRecorder(nil)

	entry, err := recorder.Record(nil, models.ActionClientCreated, "client", "c-1", "Padaria", models.SeverityInfo, "", nil)

	require.NoError(t, err)
	assert.Nil(t, entry)

	entries, err := recorder.Recent("acme")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRecordAttributesActorAndWorkspace(t *testing.T) {
	recorder := NewRecorder(nil)

	entry, err := recorder.Record(testActor(), models.ActionTaskMoved, "task", "t-1", "Fechamento mensal",
		models.SeverityInfo, "moved to done", nil)

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "u-1", entry.ActorID)
	assert.Equal(t, "Maria Souza", entry.ActorName)
	assert.Equal(t, "acme", entry.WorkspaceSlug)
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRecordDefaultsSeverityToInfo(t *testing.T) {
	recorder := NewRecorder(nil)

	entry, err := recorder.Record(testActor(), models.ActionClientUpdated, "client", "c-1", "Padaria", "", "", nil)

	require.NoError(t, err)
	assert.Equal(t, models.SeverityInfo, entry.Severity)
}

func TestRecordSerializesUndoSnapshot(t *testing.T) {
	recorder := NewRecorder(nil)
	deleted := models.Client{ID: "c-1", WorkspaceSlug: "acme", Name: "Padaria Central", Version: 4}

	entry, err := recorder.Record(testActor(), models.ActionClientDeleted, "client", deleted.ID, deleted.Name,
		models.SeverityCritical, "", deleted)
	require.NoError(t, err)
	require.True(t, entry.HasUndo())

	var restored models.Client
	require.NoError(t, entry.DecodeUndo(&restored))
	assert.Equal(t, deleted.ID, restored.ID)
	assert.Equal(t, deleted.Name, restored.Name)
	assert.Equal(t, deleted.Version, restored.Version)
}

func TestRecentIsNewestFirstPerWorkspace(t *testing.T) {
	recorder := NewRecorder(nil)
	actor := testActor()
	other := testActor()
	other.WorkspaceSlug = "other"

	recorder.Record(actor, models.ActionClientCreated, "client", "c-1", "first", models.SeverityInfo, "", nil)
	recorder.Record(actor, models.ActionClientUpdated, "client", "c-1", "second", models.SeverityInfo, "", nil)
	recorder.Record(other, models.ActionClientCreated, "client", "c-9", "elsewhere", models.SeverityInfo, "", nil)

	entries, err := recorder.Recent("acme")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionClientUpdated, entries[0].Action)
	assert.Equal(t, models.ActionClientCreated, entries[1].Action)
}

func TestRecentReloadsFeedFromStore(t *testing.T) {
	db, mock := newMockDB(t)
	recorder := NewRecorder(db)

	mock.ExpectQuery("SELECT \\* FROM `audit_logs`").
		WillReturnRows(sqlmock.NewRows(feedColumns()).
			AddRow("a-1", "acme", "client_created", "c-1", time.Now().Add(-time.Minute)))

	entries, err := recorder.Recent("acme")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// Entries recorded by other services land in the shared store and must
	// show up on the next read, not only after a restart
	mock.ExpectQuery("SELECT \\* FROM `audit_logs`").
		WillReturnRows(sqlmock.NewRows(feedColumns()).
			AddRow("a-2", "acme", "task_moved", "t-1", time.Now()).
			AddRow("a-1", "acme", "client_created", "c-1", time.Now().Add(-time.Minute)))

	entries, err = recorder.Recent("acme")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "a-2", entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentFallsBackToCacheWhenStoreUnavailable(t *testing.T) {
	db, mock := newMockDB(t)
	recorder := NewRecorder(db)

	mock.ExpectQuery("SELECT \\* FROM `audit_logs`").
		WillReturnRows(sqlmock.NewRows(feedColumns()).
			AddRow("a-1", "acme", "client_created", "c-1", time.Now()))

	_, err := recorder.Recent("acme")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `audit_logs`").
		WillReturnError(errors.New("connection reset"))

	entries, err := recorder.Recent("acme")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a-1", entries[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordTxWritesThroughCallerTransaction(t *testing.T) {
	db, mock := newMockDB(t)
	recorder := NewRecorder(nil)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `audit_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := db.Transaction(func(tx *gorm.DB) error {
		entry, err := recorder.RecordTx(tx, testActor(), models.ActionTaskMoved, "task", "t-1", "Fechamento mensal",
			models.SeverityInfo, "moved to done", nil)
		require.NoError(t, err)
		require.NotNil(t, entry)
		return nil
	})

	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkRevertedUpdatesFeedCache(t *testing.T) {
	recorder := NewRecorder(nil)

	entry, err := recorder.Record(testActor(), models.ActionClientDeleted, "client", "c-1", "Padaria",
		models.SeverityCritical, "", models.Client{ID: "c-1"})
	require.NoError(t, err)

	require.NoError(t, recorder.MarkReverted("acme", entry.ID))

	entries, err := recorder.Recent("acme")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Reverted)
	assert.False(t, entries[0].HasUndo())
}
