package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-clinic/clinic-api/internal/models"
)

// EnrollmentRepository provides database access for creating student
// accounts, one at a time or in bulk.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository creates a new instance of EnrollmentRepository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// The conflict clause names no target so a duplicate student number and a
// derived email colliding with any existing account are both tolerated.
const insertStudentQuery = `INSERT INTO users (id, role, student_number, email, password_hash, name, surname, password_changed, created_at, updated_at)
    VALUES ($1, 'student', $2, $3, $4, $5, $6, FALSE, $7, $7)
    ON CONFLICT DO NOTHING
    RETURNING id`

const insertProfileStubQuery = `INSERT INTO profiles (user_id, id_number, profile_complete)
    VALUES ($1, $2, FALSE)
    ON CONFLICT (user_id) DO NOTHING`

// CreateBatch inserts the rows in one transaction. Rows colliding with an
// existing account, on student number or email, are left untouched and
// counted as skipped. Any database failure rolls back the whole batch.
func (r *EnrollmentRepository) CreateBatch(ctx context.Context, rows []models.EnrollmentRow, passwordHash, emailDomain string) (created, skipped int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin enrollment transaction: %w", err)
	}

	now := time.Now().UTC()
	for _, row := range rows {
		email := fmt.Sprintf("%s@%s", row.StudentNumber, emailDomain)

		var userID string
		insertErr := tx.QueryRowxContext(ctx, insertStudentQuery,
			uuid.NewString(), row.StudentNumber, email, passwordHash, row.Name, row.Surname, now,
		).Scan(&userID)
		if insertErr != nil {
			if insertErr == sql.ErrNoRows {
				skipped++
				continue
			}
			tx.Rollback()
			return 0, 0, fmt.Errorf("insert student %s: %w", row.StudentNumber, insertErr)
		}

		if _, insertErr := tx.ExecContext(ctx, insertProfileStubQuery, userID, row.IDNumber); insertErr != nil {
			tx.Rollback()
			return 0, 0, fmt.Errorf("insert profile stub for %s: %w", row.StudentNumber, insertErr)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit enrollment transaction: %w", err)
	}
	return created, skipped, nil
}

// CreateStudent inserts a single student account with its profile stub.
// A duplicate student number or email surfaces as a unique violation for the
// caller to map.
func (r *EnrollmentRepository) CreateStudent(ctx context.Context, row models.EnrollmentRow, passwordHash, emailDomain string) (string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin student transaction: %w", err)
	}

	now := time.Now().UTC()
	email := fmt.Sprintf("%s@%s", row.StudentNumber, emailDomain)
	userID := uuid.NewString()

	const query = `INSERT INTO users (id, role, student_number, email, password_hash, name, surname, password_changed, created_at, updated_at)
        VALUES ($1, 'student', $2, $3, $4, $5, $6, FALSE, $7, $7)`
	if _, err := tx.ExecContext(ctx, query, userID, row.StudentNumber, email, passwordHash, row.Name, row.Surname, now); err != nil {
		tx.Rollback()
		if IsUniqueViolation(err) {
			return "", err
		}
		return "", fmt.Errorf("insert student: %w", err)
	}

	if _, err := tx.ExecContext(ctx, insertProfileStubQuery, userID, row.IDNumber); err != nil {
		tx.Rollback()
		return "", fmt.Errorf("insert profile stub: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit student transaction: %w", err)
	}
	return userID, nil
}
