package models

// EnrollmentRow is one parsed line of a bulk-import spreadsheet.
type EnrollmentRow struct {
	Row           int    `json:"row"`
	StudentNumber string `json:"student_number"`
	Name          string `json:"name"`
	Surname       string `json:"surname"`
	IDNumber      string `json:"id_number"`
}

// Complete reports whether every required field is present.
func (r EnrollmentRow) Complete() bool {
	return r.StudentNumber != "" && r.Name != "" && r.Surname != "" && r.IDNumber != ""
}

// EnrollmentReport summarises a batch import. Duplicate student numbers are
// ignored idempotently and counted as skipped, neither success nor error.
type EnrollmentReport struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// AddStudentRequest is the staff single-add payload.
type AddStudentRequest struct {
	StudentNumber string `json:"student_number" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Surname       string `json:"surname" validate:"required"`
	IDNumber      string `json:"id_number" validate:"required"`
}

// StudentDashboard composes the student landing view.
type StudentDashboard struct {
	Appointments        []UpcomingAppointment `json:"appointments"`
	RecentVisits        []VisitDetail         `json:"recent_visits"`
	ActivePrescriptions []ActivePrescription  `json:"active_prescriptions"`
}

// StaffDashboard composes the staff landing view.
type StaffDashboard struct {
	PendingAppointments []AppointmentDetail `json:"pending_appointments"`
}
