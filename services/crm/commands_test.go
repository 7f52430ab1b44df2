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

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/models"
	"github.com/contabilflow/backend/shared/utils"
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

type capturedEvents struct {
	events []models.WorkspaceEvent
}

func (ce *capturedEvents) Publish(event models.WorkspaceEvent) error {
	ce.events = append(ce.events, event)
	return nil
}

func crmActor() *models.UserInfo {
	return &models.UserInfo{
		UserID:        "u-1",
		Name:          "Maria Souza",
		Role:          models.RoleManager,
		WorkspaceSlug: "acme",
	}
}

func taskPipelineColumns() []byte {
	return []byte(`[{"id":"todo","label":"A Fazer"},{"id":"doing","label":"Em Andamento"},{"id":"done","label":"Entregue"}]`)
}

func TestValidateStatusAcceptsKnownColumn(t *testing.T) {
	pipeline := &models.Pipeline{
		ID: "p-1",
		Columns: models.PipelineColumns{
			{ID: "todo", Label: "A Fazer"},
			{ID: "done", Label: "Entregue"},
		},
	}

	assert.NoError(t, ValidateStatus(pipeline, "todo"))
	assert.NoError(t, ValidateStatus(pipeline, "done"))
}

func TestValidateStatusRejectsUnknownColumn(t *testing.T) {
	pipeline := &models.Pipeline{
		ID:      "p-1",
		Columns: models.PipelineColumns{{ID: "todo"}},
	}

	err := ValidateStatus(pipeline, "archived")
	require.Error(t, err)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))

	err = ValidateStatus(pipeline, "")
	require.Error(t, err)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
}

func TestValidateColumnDeletion(t *testing.T) {
	pipeline := &models.Pipeline{
		ID:      "p-1",
		Columns: models.PipelineColumns{{ID: "todo"}, {ID: "done"}},
	}

	assert.NoError(t, ValidateColumnDeletion(pipeline, "done", 0))

	err := ValidateColumnDeletion(pipeline, "done", 3)
	require.Error(t, err)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))

	err = ValidateColumnDeletion(pipeline, "missing", 0)
	require.Error(t, err)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestMoveTaskPersistsValidatedTransition(t *testing.T) {
	db, mock := newMockDB(t)
	sink := &capturedEvents{}
	cmd := NewCommands(db, audit.NewRecorder(nil), sink)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "pipeline_id", "title", "status", "version"}).
			AddRow("t-1", "acme", "p-1", "Fechamento mensal", "todo", int64(2)))
	mock.ExpectQuery("SELECT \\* FROM `pipelines`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "kind", "name", "columns", "version"}).
			AddRow("p-1", "acme", "tasks", "Obrigações", taskPipelineColumns(), int64(1)))
	mock.ExpectExec("UPDATE `tasks` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `audit_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	task, err := cmd.MoveTask(crmActor(), "t-1", "done", 2)

	require.NoError(t, err)
	assert.Equal(t, "done", task.Status)
	assert.Equal(t, int64(3), task.Version)
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, sink.events, 1)
	assert.Equal(t, "task_moved", sink.events[0].EventType)
	assert.Equal(t, "acme", sink.events[0].WorkspaceSlug)
}

func TestMoveTaskRollsBackWhenAuditWriteFails(t *testing.T) {
	db, mock := newMockDB(t)
	sink := &capturedEvents{}
	cmd := NewCommands(db, audit.NewRecorder(nil), sink)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "pipeline_id", "title", "status", "version"}).
			AddRow("t-1", "acme", "p-1", "Fechamento mensal", "todo", int64(2)))
	mock.ExpectQuery("SELECT \\* FROM `pipelines`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "kind", "name", "columns", "version"}).
			AddRow("p-1", "acme", "tasks", "Obrigações", taskPipelineColumns(), int64(1)))
	mock.ExpectExec("UPDATE `tasks` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `audit_logs`").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := cmd.MoveTask(crmActor(), "t-1", "done", 2)

	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, sink.events, "a command that failed to audit must not emit events")
}

func TestMoveTaskRejectsStaleVersion(t *testing.T) {
	db, mock := newMockDB(t)
	sink := &capturedEvents{}
	cmd := NewCommands(db, audit.NewRecorder(nil), sink)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "pipeline_id", "title", "status", "version"}).
			AddRow("t-1", "acme", "p-1", "Fechamento mensal", "todo", int64(5)))
	mock.ExpectQuery("SELECT \\* FROM `pipelines`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "kind", "name", "columns", "version"}).
			AddRow("p-1", "acme", "tasks", "Obrigações", taskPipelineColumns(), int64(1)))
	mock.ExpectRollback()

	_, err := cmd.MoveTask(crmActor(), "t-1", "done", 2)

	require.Error(t, err)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Empty(t, sink.events, "rejected command must not emit events")
}

func TestMoveTaskRejectsUnknownStatusWithoutWriting(t *testing.T) {
	db, mock := newMockDB(t)
	cmd := NewCommands(db, audit.NewRecorder(nil), &capturedEvents{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "pipeline_id", "title", "status", "version"}).
			AddRow("t-1", "acme", "p-1", "Fechamento mensal", "todo", int64(1)))
	mock.ExpectQuery("SELECT \\* FROM `pipelines`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "kind", "name", "columns", "version"}).
			AddRow("p-1", "acme", "tasks", "Obrigações", taskPipelineColumns(), int64(1)))
	mock.ExpectRollback()

	_, err := cmd.MoveTask(crmActor(), "t-1", "archived", 0)

	require.Error(t, err)
	assert.Equal(t, utils.KindValidation, utils.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePipelineColumnRejectsOccupiedColumn(t *testing.T) {
	db, mock := newMockDB(t)
	cmd := NewCommands(db, audit.NewRecorder(nil), &capturedEvents{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `pipelines`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "kind", "name", "columns", "version"}).
			AddRow("p-1", "acme", "tasks", "Obrigações", taskPipelineColumns(), int64(1)))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectRollback()

	_, err := cmd.DeletePipelineColumn(crmActor(), "p-1", "doing")

	require.Error(t, err)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePipelineColumnRemovesEmptyColumn(t *testing.T) {
	db, mock := newMockDB(t)
	cmd := NewCommands(db, audit.NewRecorder(nil), &capturedEvents{})

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `pipelines`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "kind", "name", "columns", "version"}).
			AddRow("p-1", "acme", "tasks", "Obrigações", taskPipelineColumns(), int64(1)))
	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `tasks`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectExec("UPDATE `pipelines` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO `audit_logs`").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	pipeline, err := cmd.DeletePipelineColumn(crmActor(), "p-1", "doing")

	require.NoError(t, err)
	require.Len(t, pipeline.Columns, 2)
	assert.False(t, pipeline.Columns.ContainsColumn("doing"))
	assert.Equal(t, int64(2), pipeline.Version)
	require.NoError(t, mock.ExpectationsWereMet())
}
