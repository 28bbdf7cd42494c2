package models

// Profile stores a student's personal details, created as a stub next to the
// account and replaced wholesale when the student completes onboarding.
type Profile struct {
	UserID          string  `db:"user_id" json:"user_id"`
	IDNumber        *string `db:"id_number" json:"id_number,omitempty"`
	DateOfBirth     *string `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Citizenship     *string `db:"citizenship" json:"citizenship,omitempty"`
	Disability      *string `db:"disability" json:"disability,omitempty"`
	Gender          *string `db:"gender" json:"gender,omitempty"`
	MaritalStatus   *string `db:"marital_status" json:"marital_status,omitempty"`
	CellphoneNumber *string `db:"cellphone_number" json:"cellphone_number,omitempty"`
	Email           *string `db:"email" json:"email,omitempty"`
	ProfileComplete bool    `db:"profile_complete" json:"profile_complete"`
}

// CompleteProfileRequest is the payload a student submits to finish
// onboarding. The replacement is wholesale: every field is required except
// disability.
type CompleteProfileRequest struct {
	IDNumber        string `json:"id_number" validate:"required"`
	DateOfBirth     string `json:"date_of_birth" validate:"required,datetime=2006-01-02"`
	Citizenship     string `json:"citizenship" validate:"required"`
	Disability      string `json:"disability"`
	Gender          string `json:"gender" validate:"required,oneof=Male Female Other"`
	MaritalStatus   string `json:"marital_status" validate:"required,oneof=Single Married Other"`
	CellphoneNumber string `json:"cellphone_number" validate:"required,min=10"`
}

// StudentDetail joins an account with its profile for the staff view.
type StudentDetail struct {
	User
	Profile Profile `json:"profile"`
}
