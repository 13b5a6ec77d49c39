package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinicbook/clinicbook/internal/domain/booking"
)

var (
	ErrNotFound = errors.New("notification not found")
	ErrNotOwner = errors.New("notification belongs to another doctor")
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AppointmentBooked creates the new-booking notification for the assigned
// doctor. It satisfies the booking coordinator's post-commit hook.
func (s *Service) AppointmentBooked(ctx context.Context, appt *booking.Appointment, patientName string) error {
	n := &Notification{
		DoctorID:      appt.DoctorID,
		AppointmentID: &appt.ID,
		Message: fmt.Sprintf("Tienes una nueva cita con %s el %s a las %s",
			patientName, appt.View().Date, appt.Time),
	}
	return s.repo.Create(ctx, n)
}

// Remind creates a free-form notification for a doctor, used by the
// reminder job.
func (s *Service) Remind(ctx context.Context, doctorID uuid.UUID, message string) error {
	return s.repo.Create(ctx, &Notification{DoctorID: doctorID, Message: message})
}

// ListForDoctor returns the doctor's notifications, unread first, newest
// first within each group.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Notification, int, error) {
	return s.repo.ListByDoctor(ctx, doctorID, limit, offset)
}

// MarkRead marks a notification as read. Only the owning doctor may do so.
func (s *Service) MarkRead(ctx context.Context, callerID, id uuid.UUID) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	if n.DoctorID != callerID {
		return ErrNotOwner
	}
	return s.repo.MarkRead(ctx, id)
}
