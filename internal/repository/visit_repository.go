package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campus-clinic/clinic-api/internal/models"
)

// VisitRepository provides database access for clinical visits and their
// prescriptions.
type VisitRepository struct {
	db *sqlx.DB
}

// NewVisitRepository creates a new instance of VisitRepository.
func NewVisitRepository(db *sqlx.DB) *VisitRepository {
	return &VisitRepository{db: db}
}

// CreateWithPrescription writes the visit and, when provided, its
// prescription in a single transaction so a prescription can never exist
// without its visit.
func (r *VisitRepository) CreateWithPrescription(ctx context.Context, visit *models.Visit, prescription *models.Prescription) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin visit transaction: %w", err)
	}

	if visit.ID == "" {
		visit.ID = uuid.NewString()
	}
	if visit.CreatedAt.IsZero() {
		visit.CreatedAt = time.Now().UTC()
	}

	const visitQuery = `INSERT INTO visits (id, student_id, clinician_id, date, diagnosis, notes, created_at)
        VALUES (:id, :student_id, :clinician_id, :date, :diagnosis, :notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, visitQuery, visit); err != nil {
		tx.Rollback()
		return fmt.Errorf("insert visit: %w", err)
	}

	if prescription != nil {
		if prescription.ID == "" {
			prescription.ID = uuid.NewString()
		}
		prescription.VisitID = visit.ID

		const prescriptionQuery = `INSERT INTO prescriptions (id, visit_id, medication, dosage, instructions, duration_days)
            VALUES (:id, :visit_id, :medication, :dosage, :instructions, :duration_days)`
		if _, err := tx.NamedExecContext(ctx, prescriptionQuery, prescription); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert prescription: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit visit transaction: %w", err)
	}
	return nil
}

const visitDetailColumns = `v.id, v.student_id, v.clinician_id, v.date, v.diagnosis, v.notes, v.created_at,
        p.medication, p.dosage, p.instructions, p.duration_days,
        u.name AS clinician_name, u.surname AS clinician_surname`

// HistoryByStudent returns the student's full visit history, newest first,
// each row carrying its prescription when one was written.
func (r *VisitRepository) HistoryByStudent(ctx context.Context, studentID string) ([]models.VisitDetail, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM visits v
        LEFT JOIN prescriptions p ON p.visit_id = v.id
        LEFT JOIN users u ON u.id = v.clinician_id
        WHERE v.student_id = $1
        ORDER BY v.date DESC, v.created_at DESC`, visitDetailColumns)
	var visits []models.VisitDetail
	if err := r.db.SelectContext(ctx, &visits, query, studentID); err != nil {
		return nil, fmt.Errorf("visit history: %w", err)
	}
	return visits, nil
}

// RecentByStudent returns the most recent visits, capped at limit.
func (r *VisitRepository) RecentByStudent(ctx context.Context, studentID string, limit int) ([]models.VisitDetail, error) {
	if limit <= 0 {
		limit = 2
	}
	query := fmt.Sprintf(`SELECT %s
        FROM visits v
        LEFT JOIN prescriptions p ON p.visit_id = v.id
        LEFT JOIN users u ON u.id = v.clinician_id
        WHERE v.student_id = $1
        ORDER BY v.date DESC, v.created_at DESC
        LIMIT %d`, visitDetailColumns, limit)
	var visits []models.VisitDetail
	if err := r.db.SelectContext(ctx, &visits, query, studentID); err != nil {
		return nil, fmt.Errorf("recent visits: %w", err)
	}
	return visits, nil
}

// PrescriptionsByStudent returns every prescription with the visit date the
// duration window is measured from. Callers derive the active window; it is
// never stored.
func (r *VisitRepository) PrescriptionsByStudent(ctx context.Context, studentID string) ([]models.ActivePrescription, error) {
	const query = `SELECT p.id, p.visit_id, p.medication, p.dosage, p.instructions, p.duration_days,
            v.date AS visit_date
        FROM prescriptions p
        JOIN visits v ON v.id = p.visit_id
        WHERE v.student_id = $1
        ORDER BY v.date DESC`
	var prescriptions []models.ActivePrescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, studentID); err != nil {
		return nil, fmt.Errorf("student prescriptions: %w", err)
	}
	return prescriptions, nil
}
