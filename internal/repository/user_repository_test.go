package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-clinic/clinic-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func userRows(id, number, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "role", "student_number", "email", "password_hash", "name", "surname", "password_changed", "created_at", "updated_at"}).
		AddRow(id, string(models.RoleStudent), number, email, "hash", "Thandi", "Nkosi", false, now, now)
}

func TestFindByIdentifierMatchesStudentNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, role, student_number, email, password_hash, name, surname, password_changed, created_at, updated_at FROM users WHERE student_number = $1 OR email = $1 LIMIT 1")).
		WithArgs("202412345").
		WillReturnRows(userRows("u1", "202412345", "202412345@ump.ac.za"))

	user, err := repo.FindByIdentifier(context.Background(), "202412345")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	require.NotNil(t, user.StudentNumber)
	assert.Equal(t, "202412345", *user.StudentNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByIdentifierNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE student_number").
		WithArgs("nobody").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByIdentifier(context.Background(), "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestFindOnboardingStateMissingProfileStub(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"password_changed", "profile_complete"}).AddRow(true, false)
	mock.ExpectQuery("SELECT u.password_changed, COALESCE").
		WithArgs("u1").
		WillReturnRows(rows)

	state, err := repo.FindOnboardingState(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, state.PasswordChanged)
	assert.False(t, state.ProfileComplete)
	assert.Equal(t, models.StageProfilePending, state.Stage())
}

func TestUpdatePasswordFlipsFlag(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2, password_changed = TRUE, updated_at = $3 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePassword(context.Background(), "u1", "newhash", time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureSeedStaffIdempotent(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.EnsureSeedStaff(context.Background(), &models.User{
		Role:         models.RoleStaff,
		Email:        "admin@ump.ac.za",
		PasswordHash: "hash",
		Name:         "Clinic",
		Surname:      "Admin",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListStudentsWithSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .* FROM users WHERE role = 'student' AND").
		WithArgs("%nkosi%").
		WillReturnRows(userRows("u1", "202412345", "202412345@ump.ac.za"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE role = 'student' AND")).
		WithArgs("%nkosi%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	users, total, err := repo.ListStudents(context.Background(), models.UserFilter{Search: "Nkosi", Page: 1, PageSize: 50})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
