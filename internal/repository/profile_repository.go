package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/campus-clinic/clinic-api/internal/models"
)

// ProfileRepository provides database access for student profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

const profileColumns = `user_id, id_number, date_of_birth, citizenship, disability, gender, marital_status, cellphone_number, email, profile_complete`

// FindByUserID returns the profile row for an account, stub or complete.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE user_id = $1`, profileColumns)
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

// Replace upserts the profile wholesale, marking it complete.
func (r *ProfileRepository) Replace(ctx context.Context, profile *models.Profile) error {
	const query = `INSERT INTO profiles (user_id, id_number, date_of_birth, citizenship, disability, gender, marital_status, cellphone_number, email, profile_complete)
        VALUES (:user_id, :id_number, :date_of_birth, :citizenship, :disability, :gender, :marital_status, :cellphone_number, :email, :profile_complete)
        ON CONFLICT (user_id) DO UPDATE SET
            id_number = EXCLUDED.id_number,
            date_of_birth = EXCLUDED.date_of_birth,
            citizenship = EXCLUDED.citizenship,
            disability = EXCLUDED.disability,
            gender = EXCLUDED.gender,
            marital_status = EXCLUDED.marital_status,
            cellphone_number = EXCLUDED.cellphone_number,
            email = EXCLUDED.email,
            profile_complete = EXCLUDED.profile_complete`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}
