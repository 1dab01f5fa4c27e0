package patients

import (
	"time"

	"github.com/google/uuid"
)

// Patient is a person known to the clinic. Patients are created implicitly
// the first time they book and are matched by phone number on repeat contact.
type Patient struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	Email     string     `json:"email,omitempty"`
	BirthDate *time.Time `json:"birth_date,omitempty"`
	Address   string     `json:"address,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
