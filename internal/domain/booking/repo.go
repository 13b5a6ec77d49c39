package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// OccupiedTimes returns the start times held by occupying appointments
	// for the doctor on the given date, in chronological order.
	OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeofday.TimeOfDay, error)
	// ExistsOccupying reports whether an occupying appointment holds the
	// (doctor, date, time) slot.
	ExistsOccupying(ctx context.Context, doctorID uuid.UUID, date time.Time, t timeofday.TimeOfDay) (bool, error)
	// CountActiveByPatient counts the patient's occupying appointments.
	CountActiveByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error)
	// ListDoctorsWithAppointmentsOn returns the doctors holding occupying
	// appointments on the given date, with their counts.
	ListDoctorsWithAppointmentsOn(ctx context.Context, date time.Time) (map[uuid.UUID]int, error)
}
