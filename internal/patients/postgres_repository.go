package patients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// db is the subset of pgxpool.Pool the repository needs. Narrowing it keeps
// the repository testable against a mock pool.
type db interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the patient directory backed by PostgreSQL.
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

const patientColumns = "id, name, phone, COALESCE(email, ''), birth_date, COALESCE(address, ''), created_at, updated_at"

// UpsertByPhone creates the patient on first contact or refreshes name/email
// on repeat contact. Empty name/email never overwrite stored values.
func (r *Repository) UpsertByPhone(ctx context.Context, name, phone, email string) (*Patient, error) {
	if strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("patients: upsert: phone is required")
	}
	query := `
		INSERT INTO patients (id, name, phone, email)
		VALUES ($1, $2, $3, NULLIF($4, ''))
		ON CONFLICT (phone) DO UPDATE SET
			name = COALESCE(NULLIF(EXCLUDED.name, ''), patients.name),
			email = COALESCE(EXCLUDED.email, patients.email),
			updated_at = NOW()
		RETURNING ` + patientColumns
	row := r.db.QueryRow(ctx, query, uuid.New(), name, phone, email)
	patient, err := scanPatient(row)
	if err != nil {
		return nil, fmt.Errorf("patients: upsert by phone: %w", err)
	}
	return patient, nil
}

// GetByPhone finds a patient by phone. Matching is suffix-tolerant: the
// stored number and the query are compared on their trailing digits, so
// "+15551234567" matches "5551234567".
func (r *Repository) GetByPhone(ctx context.Context, phone string) (*Patient, error) {
	digits := trailingDigits(phone, 10)
	if digits == "" {
		return nil, ErrNotFound
	}
	query := `
		SELECT ` + patientColumns + `
		FROM patients
		WHERE regexp_replace(phone, '[^0-9]', '', 'g') LIKE '%' || $1
		ORDER BY updated_at DESC
		LIMIT 1`
	row := r.db.QueryRow(ctx, query, digits)
	patient, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patients: get by phone: %w", err)
	}
	return patient, nil
}

// GetByID fetches a patient by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	row := r.db.QueryRow(ctx, query, id)
	patient, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("patients: get by id: %w", err)
	}
	return patient, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.BirthDate, &p.Address, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// trailingDigits strips non-digits and keeps at most the last n digits.
func trailingDigits(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) > n {
		digits = digits[len(digits)-n:]
	}
	return digits
}
