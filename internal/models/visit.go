package models

import "time"

// Visit is one clinical consultation. The clinician reference survives as
// null if the staff account is later removed.
type Visit struct {
	ID          string    `db:"id" json:"id"`
	StudentID   string    `db:"student_id" json:"student_id"`
	ClinicianID *string   `db:"clinician_id" json:"clinician_id,omitempty"`
	Date        time.Time `db:"date" json:"date"`
	Diagnosis   string    `db:"diagnosis" json:"diagnosis"`
	Notes       string    `db:"notes" json:"notes"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Prescription belongs to exactly one visit; at most one is written per
// visit, and it dies with the visit. The duration is optional; without one
// the prescription has no active window.
type Prescription struct {
	ID           string `db:"id" json:"id"`
	VisitID      string `db:"visit_id" json:"visit_id"`
	Medication   string `db:"medication" json:"medication"`
	Dosage       string `db:"dosage" json:"dosage"`
	Instructions string `db:"instructions" json:"instructions"`
	DurationDays *int   `db:"duration_days" json:"duration_days,omitempty"`
}

// VisitDetail is the history row: visit joined with its optional
// prescription and the clinician's name. PrescriptionStatus is derived on
// every read, never stored.
type VisitDetail struct {
	Visit
	Medication         *string `db:"medication" json:"medication,omitempty"`
	Dosage             *string `db:"dosage" json:"dosage,omitempty"`
	Instructions       *string `db:"instructions" json:"instructions,omitempty"`
	DurationDays       *int    `db:"duration_days" json:"duration_days,omitempty"`
	ClinicianName      *string `db:"clinician_name" json:"clinician_name,omitempty"`
	ClinicianSurname   *string `db:"clinician_surname" json:"clinician_surname,omitempty"`
	PrescriptionStatus string  `json:"prescription_status,omitempty"`
}

// ActivePrescription is the dashboard read-model: a prescription whose
// duration window, measured from the visit date, has not yet elapsed.
type ActivePrescription struct {
	Prescription
	VisitDate time.Time `db:"visit_date" json:"visit_date"`
	DaysLeft  int       `json:"days_left"`
}

// RecordVisitRequest is the staff payload for recording a consultation.
// Medication and dosage travel together or not at all.
type RecordVisitRequest struct {
	Date         string `json:"date" validate:"required"`
	Diagnosis    string `json:"diagnosis"`
	Notes        string `json:"notes"`
	Medication   string `json:"medication"`
	Dosage       string `json:"dosage"`
	Instructions string `json:"instructions"`
	DurationDays *int   `json:"duration_days"`
}
