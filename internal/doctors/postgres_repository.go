package doctors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicdesk/clinic-secretary/pkg/logging"
)

// ErrNotFound indicates no doctor matched the lookup.
var ErrNotFound = errors.New("doctors: doctor not found")

type db interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository is the doctor roster backed by PostgreSQL.
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

const doctorColumns = "id, name, COALESCE(email, ''), COALESCE(phone, ''), specialty, license_number, created_at, updated_at"

// Create inserts a doctor. Used by seeding and admin flows.
func (r *Repository) Create(ctx context.Context, name, email, phone, specialty, licenseNumber string) (*Doctor, error) {
	query := `
		INSERT INTO doctors (id, name, email, phone, specialty, license_number)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, $6)
		RETURNING ` + doctorColumns
	row := r.db.QueryRow(ctx, query, uuid.New(), name, email, phone, specialty, licenseNumber)
	doctor, err := scanDoctor(row)
	if err != nil {
		return nil, fmt.Errorf("doctors: create: %w", err)
	}
	return doctor, nil
}

// GetByID fetches a doctor by id.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("doctors: get by id: %w", err)
	}
	return doctor, nil
}

// GetBySpecialty returns the first doctor practicing a specialty,
// case-insensitively.
func (r *Repository) GetBySpecialty(ctx context.Context, specialty string) (*Doctor, error) {
	query := `
		SELECT ` + doctorColumns + `
		FROM doctors
		WHERE LOWER(specialty) = LOWER($1)
		ORDER BY name
		LIMIT 1`
	doctor, err := scanDoctor(r.db.QueryRow(ctx, query, specialty))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("doctors: get by specialty: %w", err)
	}
	return doctor, nil
}

// First returns any doctor on the roster. Used as a scheduling fallback when
// no specialty was requested or the requested one has no doctor.
func (r *Repository) First(ctx context.Context) (*Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY name LIMIT 1`
	doctor, err := scanDoctor(r.db.QueryRow(ctx, query))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("doctors: first: %w", err)
	}
	return doctor, nil
}

// List returns all doctors ordered by name.
func (r *Repository) List(ctx context.Context) ([]Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY name`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("doctors: list: %w", err)
	}
	defer rows.Close()

	var out []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Specialty, &d.LicenseNumber, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("doctors: scan: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("doctors: list rows: %w", err)
	}
	return out, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.Specialty, &d.LicenseNumber, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
