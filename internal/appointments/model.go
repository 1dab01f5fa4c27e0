package appointments

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// ParseStatus validates a status string from an API caller.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusConfirmed:
		return StatusConfirmed, nil
	case StatusCompleted:
		return StatusCompleted, nil
	case StatusCancelled:
		return StatusCancelled, nil
	case StatusNoShow:
		return StatusNoShow, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// Appointment links a patient and a doctor at a point in time. Slots are one
// hour long by convention; only the start is stored.
type Appointment struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Type        string    `json:"type"`
	Status      Status    `json:"status"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateRequest carries the fields needed to book an appointment.
type CreateRequest struct {
	PatientID   uuid.UUID
	DoctorID    uuid.UUID
	ScheduledAt time.Time
	Type        string
	Notes       string
}

// Detail is an appointment joined with the names and phone needed to send
// notifications about it.
type Detail struct {
	Appointment
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone"`
	DoctorName   string `json:"doctor_name"`
}

// Statistics aggregates appointment counts by status.
type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}
