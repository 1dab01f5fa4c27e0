package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

type db interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the appointment book backed by PostgreSQL.
type Repository struct {
	db     db
	logger *logging.Logger
}

func NewRepository(db db, logger *logging.Logger) *Repository {
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{db: db, logger: logger}
}

const appointmentColumns = "id, patient_id, doctor_id, scheduled_at, type, status, COALESCE(notes, ''), created_at, updated_at"

// Create books an appointment after an advisory overlap check: the doctor
// must not hold another non-cancelled appointment within one hour of the
// requested start. The check and the insert are separate statements, so a
// concurrent booking can still slip through.
func (r *Repository) Create(ctx context.Context, req CreateRequest) (*Appointment, error) {
	var conflicts int
	checkQuery := `
		SELECT COUNT(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND status <> 'cancelled'
		  AND scheduled_at > $2::timestamptz - INTERVAL '1 hour'
		  AND scheduled_at < $2::timestamptz + INTERVAL '1 hour'`
	if err := r.db.QueryRow(ctx, checkQuery, req.DoctorID, req.ScheduledAt).Scan(&conflicts); err != nil {
		return nil, fmt.Errorf("appointments: overlap check: %w", err)
	}
	if conflicts > 0 {
		return nil, ErrTimeSlotTaken
	}

	insertQuery := `
		INSERT INTO appointments (id, patient_id, doctor_id, scheduled_at, type, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING ` + appointmentColumns
	row := r.db.QueryRow(ctx, insertQuery, uuid.New(), req.PatientID, req.DoctorID, req.ScheduledAt, req.Type, StatusScheduled, req.Notes)
	appt, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("appointments: create: %w", err)
	}
	return appt, nil
}

// GetByID fetches an appointment by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get by id: %w", err)
	}
	return appt, nil
}

// GetDetail fetches an appointment joined with patient and doctor identity,
// for notification dispatch.
func (r *Repository) GetDetail(ctx context.Context, id uuid.UUID) (*Detail, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.scheduled_at, a.type, a.status, COALESCE(a.notes, ''),
		       a.created_at, a.updated_at, p.name, p.phone, d.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.id = $1`
	var det Detail
	err := r.db.QueryRow(ctx, query, id).Scan(
		&det.ID, &det.PatientID, &det.DoctorID, &det.ScheduledAt, &det.Type, &det.Status, &det.Notes,
		&det.CreatedAt, &det.UpdatedAt, &det.PatientName, &det.PatientPhone, &det.DoctorName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: get detail: %w", err)
	}
	return &det, nil
}

// ListByDate returns all appointments on a calendar date, ordered by time.
func (r *Repository) ListByDate(ctx context.Context, day time.Time) ([]Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2
		ORDER BY scheduled_at`
	return r.list(ctx, query, start, start.AddDate(0, 0, 1))
}

// ListUpcoming returns non-cancelled appointments starting within the next
// N days.
func (r *Repository) ListUpcoming(ctx context.Context, days int) ([]Appointment, error) {
	now := time.Now()
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE scheduled_at >= $1 AND scheduled_at < $2 AND status <> 'cancelled'
		ORDER BY scheduled_at`
	return r.list(ctx, query, now, now.AddDate(0, 0, days))
}

// ListUpcomingForPatient returns a patient's future non-cancelled
// appointments, soonest first.
func (r *Repository) ListUpcomingForPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1 AND scheduled_at >= $2 AND status <> 'cancelled'
		ORDER BY scheduled_at`
	return r.list(ctx, query, patientID, time.Now())
}

// ListByPatient returns a patient's appointments, optionally filtered by
// status. Pass an empty status for all.
func (r *Repository) ListByPatient(ctx context.Context, patientID uuid.UUID, status Status) ([]Appointment, error) {
	if status == "" {
		query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE patient_id = $1 ORDER BY scheduled_at DESC`
		return r.list(ctx, query, patientID)
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE patient_id = $1 AND status = $2 ORDER BY scheduled_at DESC`
	return r.list(ctx, query, patientID, status)
}

// ScheduleForDoctor returns a doctor's non-cancelled appointments on a date.
func (r *Repository) ScheduleForDoctor(ctx context.Context, doctorID uuid.UUID, day time.Time) ([]Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND scheduled_at >= $2 AND scheduled_at < $3 AND status <> 'cancelled'
		ORDER BY scheduled_at`
	return r.list(ctx, query, doctorID, start, start.AddDate(0, 0, 1))
}

// ListRemindable returns details for non-cancelled appointments starting in
// [from, to), the feed for reminder sends.
func (r *Repository) ListRemindable(ctx context.Context, from, to time.Time) ([]Detail, error) {
	query := `
		SELECT a.id, a.patient_id, a.doctor_id, a.scheduled_at, a.type, a.status, COALESCE(a.notes, ''),
		       a.created_at, a.updated_at, p.name, p.phone, d.name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.scheduled_at >= $1 AND a.scheduled_at < $2 AND a.status <> 'cancelled'
		ORDER BY a.scheduled_at`
	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("appointments: list remindable: %w", err)
	}
	defer rows.Close()

	var out []Detail
	for rows.Next() {
		var det Detail
		if err := rows.Scan(
			&det.ID, &det.PatientID, &det.DoctorID, &det.ScheduledAt, &det.Type, &det.Status, &det.Notes,
			&det.CreatedAt, &det.UpdatedAt, &det.PatientName, &det.PatientPhone, &det.DoctorName,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan remindable: %w", err)
		}
		out = append(out, det)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: list remindable rows: %w", err)
	}
	return out, nil
}

// UpdateStatus transitions an appointment to a new status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (*Appointment, error) {
	query := `
		UPDATE appointments SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, status))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: update status: %w", err)
	}
	return appt, nil
}

// UpdateDatetime moves an appointment to a new start time.
func (r *Repository) UpdateDatetime(ctx context.Context, id uuid.UUID, scheduledAt time.Time) (*Appointment, error) {
	query := `
		UPDATE appointments SET scheduled_at = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	appt, err := scanAppointment(r.db.QueryRow(ctx, query, id, scheduledAt))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("appointments: update datetime: %w", err)
	}
	return appt, nil
}

// Statistics counts appointments by status.
func (r *Repository) Statistics(ctx context.Context) (*Statistics, error) {
	query := `SELECT status, COUNT(*) FROM appointments GROUP BY status`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("appointments: statistics: %w", err)
	}
	defer rows.Close()

	stats := &Statistics{ByStatus: map[Status]int{}}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("appointments: scan statistics: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: statistics rows: %w", err)
	}
	return stats, nil
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: query: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ScheduledAt, &a.Type, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
