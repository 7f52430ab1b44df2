package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/contabilflow/backend/shared/audit"
	"github.com/contabilflow/backend/shared/middleware"
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

func adminContext(c *gin.Context) {
	c.Set("user_id", "u-1")
	c.Set("name", "Maria Souza")
	c.Set("email", "maria@acme.com.br")
	c.Set("workspace_slug", "acme")
	c.Set("role", "ADMIN")
}

func TestLoginSucceedsWhenLastLoginWriteFails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("JWT_SECRET", "test-secret")

	am, err := middleware.NewAuthMiddleware(nil)
	require.NoError(t, err)

	db, mock := newMockDB(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("senha12345"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "name", "email", "role", "password_hash"}).
			AddRow("u-1", "acme", "Maria Souza", "maria@acme.com.br", "ADMIN", string(hash)))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	router := gin.New()
	router.POST("/auth/login", handleLogin(db, am))

	w := httptest.NewRecorder()
	body := `{"workspace_slug":"acme","email":"maria@acme.com.br","password":"senha12345"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUserRecordsRoleEscalation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	db, mock := newMockDB(t)
	recorder := audit.NewRecorder(nil)

	mock.ExpectQuery("SELECT \\* FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "workspace_slug", "name", "email", "role"}).
			AddRow("u-2", "acme", "João Lima", "joao@acme.com.br", "USER"))
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	router := gin.New()
	router.PUT("/users/:id", func(c *gin.Context) {
		adminContext(c)
		handleUpdateUser(db, recorder)(c)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/users/u-2", strings.NewReader(`{"role":"MANAGER"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())

	entries, err := recorder.Recent("acme")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUserUpdated, entries[0].Action)
	assert.Equal(t, "u-2", entries[0].TargetID)
	assert.Equal(t, "u-1", entries[0].ActorID)
	assert.Contains(t, entries[0].Details, "role changed from USER to MANAGER")
}
