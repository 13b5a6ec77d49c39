package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

// Status is the appointment lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Occupying reports whether an appointment in this status holds its slot.
// Cancelled and completed appointments free the slot.
func (s Status) Occupying() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Appointment maps to the appointments table. The slot time is stored as
// minutes since midnight; the calendar date carries no time component.
// Name fields are filled by list queries and are not columns.
type Appointment struct {
	ID        uuid.UUID           `db:"id"`
	PatientID uuid.UUID           `db:"patient_id"`
	DoctorID  uuid.UUID           `db:"doctor_id"`
	ClinicID  *uuid.UUID          `db:"clinic_id"`
	Date      time.Time           `db:"date"`
	Time      timeofday.TimeOfDay `db:"time_minutes"`
	Reason    string              `db:"reason"`
	Status    Status              `db:"status"`
	CreatedAt time.Time           `db:"created_at"`
	UpdatedAt time.Time           `db:"updated_at"`

	PatientName string `db:"-"`
	DoctorName  string `db:"-"`
	ClinicName  string `db:"-"`
}

// View is the wire shape of an appointment. Field names follow the
// contract the existing frontend relies on (fecha, hora, motivo, estado).
type View struct {
	ID          uuid.UUID           `json:"id"`
	PatientID   uuid.UUID           `json:"paciente_id"`
	PatientName string              `json:"paciente_nombre,omitempty"`
	DoctorID    uuid.UUID           `json:"medico_id"`
	DoctorName  string              `json:"medico_nombre,omitempty"`
	ClinicID    *uuid.UUID          `json:"clinica_id,omitempty"`
	ClinicName  string              `json:"clinica_nombre,omitempty"`
	Date        string              `json:"fecha"`
	Time        timeofday.TimeOfDay `json:"hora"`
	Reason      string              `json:"motivo"`
	Status      Status              `json:"estado"`
	CreatedAt   time.Time           `json:"created_at"`
}

// View returns the wire representation of the appointment.
func (a *Appointment) View() View {
	return View{
		ID:          a.ID,
		PatientID:   a.PatientID,
		PatientName: a.PatientName,
		DoctorID:    a.DoctorID,
		DoctorName:  a.DoctorName,
		ClinicID:    a.ClinicID,
		ClinicName:  a.ClinicName,
		Date:        a.Date.Format(timeofday.DateLayout),
		Time:        a.Time,
		Reason:      a.Reason,
		Status:      a.Status,
		CreatedAt:   a.CreatedAt,
	}
}

// Views converts a list of appointments to their wire shape.
func Views(appts []*Appointment) []View {
	views := make([]View, 0, len(appts))
	for _, a := range appts {
		views = append(views, a.View())
	}
	return views
}
