package models

import "time"

// UserRole represents the two account roles the clinic recognises.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleStaff   UserRole = "staff"
)

// User represents an account stored in the users table. Students carry a
// student number; staff accounts leave it null.
type User struct {
	ID              string    `db:"id" json:"id"`
	Role            UserRole  `db:"role" json:"role"`
	StudentNumber   *string   `db:"student_number" json:"student_number,omitempty"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	Name            string    `db:"name" json:"name"`
	Surname         string    `db:"surname" json:"surname"`
	PasswordChanged bool      `db:"password_changed" json:"password_changed"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// OnboardingStage orders the mandatory steps a fresh student account walks
// through before reaching normal access.
type OnboardingStage int

const (
	StagePasswordPending OnboardingStage = iota
	StageProfilePending
	StageActive
)

// OnboardingState is the per-request snapshot the lifecycle gate evaluates.
type OnboardingState struct {
	PasswordChanged bool `db:"password_changed"`
	ProfileComplete bool `db:"profile_complete"`
}

// Stage derives the account's current onboarding stage.
func (s OnboardingState) Stage() OnboardingStage {
	if !s.PasswordChanged {
		return StagePasswordPending
	}
	if !s.ProfileComplete {
		return StageProfilePending
	}
	return StageActive
}

// UserFilter captures filtering criteria for listing student accounts.
type UserFilter struct {
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
