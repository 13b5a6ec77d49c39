package notification

import (
	"time"

	"github.com/google/uuid"
)

// Notification maps to the notifications table. Each notification belongs
// to a doctor; rows referencing an appointment are deleted with it.
type Notification struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	Message       string     `db:"message" json:"message"`
	Read          bool       `db:"read" json:"read"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}
