package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicbook/clinicbook/internal/domain/clinic"
	"github.com/clinicbook/clinicbook/internal/domain/directory"
	"github.com/clinicbook/clinicbook/internal/platform/db"
	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

// Directory resolves user accounts for role checks.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*directory.User, error)
}

// ClinicDirectory resolves clinics and doctor working hours.
type ClinicDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*clinic.Clinic, error)
	ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]*clinic.WeeklySchedule, error)
	HoursFor(ctx context.Context, doctorID uuid.UUID, date time.Time) (open, close timeofday.TimeOfDay, ok bool, err error)
}

// Notifier is invoked after a booking transaction commits. Failures are
// logged and never undo the booking.
type Notifier interface {
	AppointmentBooked(ctx context.Context, appt *Appointment, patientName string) error
}

// Service coordinates slot listing, booking and appointment lifecycle.
type Service struct {
	appts     AppointmentRepository
	users     Directory
	clinics   ClinicDirectory
	notifier  Notifier
	logger    zerolog.Logger
	slotEvery time.Duration
	maxActive int
	runInTx   func(ctx context.Context, fn func(ctx context.Context) error) error
}

// Config carries the booking policy knobs.
type Config struct {
	// SlotEvery is the slot granularity.
	SlotEvery time.Duration
	// MaxActive caps a patient's occupying appointments. Zero disables
	// the cap.
	MaxActive int
}

func NewService(pool *pgxpool.Pool, appts AppointmentRepository, users Directory, clinics ClinicDirectory, notifier Notifier, logger zerolog.Logger, cfg Config) *Service {
	if cfg.SlotEvery <= 0 {
		cfg.SlotEvery = 30 * time.Minute
	}
	return &Service{
		appts:     appts,
		users:     users,
		clinics:   clinics,
		notifier:  notifier,
		logger:    logger,
		slotEvery: cfg.SlotEvery,
		maxActive: cfg.MaxActive,
		runInTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
	}
}

// ListAvailableForClinic returns the free slots at a clinic on a date.
// The clinic must exist and carry operating hours; a clinic closed on the
// date's weekday has no slots.
func (s *Service) ListAvailableForClinic(ctx context.Context, clinicID uuid.UUID, date time.Time) ([]timeofday.TimeOfDay, error) {
	cl, err := s.clinics.Get(ctx, clinicID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			return nil, fmt.Errorf("%w: clinic %s", ErrNotFound, clinicID)
		}
		return nil, err
	}
	if !cl.HasHours() {
		return nil, ErrNoHours
	}
	if len(cl.Weekdays) > 0 && !cl.OpenOn(date.Weekday()) {
		return []timeofday.TimeOfDay{}, nil
	}
	slots := GenerateSlots(cl.OpenTime, cl.CloseTime, s.slotEvery)
	if cl.DoctorID == nil {
		return slots, nil
	}
	occupied, err := s.appts.OccupiedTimes(ctx, *cl.DoctorID, date)
	if err != nil {
		return nil, err
	}
	return AvailableSlots(slots, occupied), nil
}

// ListAvailableForDoctor returns the doctor's free slots on a date based
// on their weekly schedule.
func (s *Service) ListAvailableForDoctor(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeofday.TimeOfDay, error) {
	doctor, err := s.resolveDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	rows, err := s.clinics.ListSchedules(ctx, doctor.ID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNoHours
	}
	open, close, ok, err := s.clinics.HoursFor(ctx, doctor.ID, date)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []timeofday.TimeOfDay{}, nil
	}
	slots := GenerateSlots(&open, &close, s.slotEvery)
	occupied, err := s.appts.OccupiedTimes(ctx, doctor.ID, date)
	if err != nil {
		return nil, err
	}
	return AvailableSlots(slots, occupied), nil
}

func (s *Service) resolveCaller(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: caller %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("resolving caller: %w", err)
	}
	return u, nil
}

func (s *Service) resolveDoctor(ctx context.Context, id uuid.UUID) (*directory.User, error) {
	u, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, id)
		}
		return nil, err
	}
	if !u.IsDoctor() {
		return nil, fmt.Errorf("%w: doctor %s", ErrNotFound, id)
	}
	return u, nil
}

// BookingRequest carries the raw booking input. Date and time stay as
// strings so that format errors surface as validation failures here
// rather than at the transport layer.
type BookingRequest struct {
	ClinicID *uuid.UUID
	DoctorID *uuid.UUID
	Date     string
	Time     string
	Reason   string
}

// Book creates a pending appointment for the calling patient. The
// preconditions run in a fixed order, each with a distinct failure: role,
// quota, field presence, format, resolution, slot availability. The slot
// existence check and the insert share one transaction; the partial
// unique index on occupying appointments is authoritative and a
// constraint violation surfaces as ErrSlotTaken.
func (s *Service) Book(ctx context.Context, callerID uuid.UUID, req BookingRequest) (*Appointment, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.IsPatient() {
		return nil, fmt.Errorf("%w: only patients can book appointments", ErrForbidden)
	}

	if s.maxActive > 0 {
		active, err := s.appts.CountActiveByPatient(ctx, caller.ID)
		if err != nil {
			return nil, err
		}
		if active >= s.maxActive {
			return nil, ErrQuotaExceeded
		}
	}

	if req.Date == "" || req.Time == "" || req.Reason == "" || req.ClinicID == nil {
		return nil, fmt.Errorf("%w: fecha, hora, motivo and clinica_id are required", ErrInvalid)
	}

	date, err := timeofday.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: fecha must be YYYY-MM-DD", ErrInvalid)
	}
	slot, err := timeofday.Parse(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: hora must be HH:MM", ErrInvalid)
	}

	cl, err := s.clinics.Get(ctx, *req.ClinicID)
	if err != nil {
		if errors.Is(err, clinic.ErrNotFound) {
			return nil, fmt.Errorf("%w: clinic %s", ErrNotFound, *req.ClinicID)
		}
		return nil, err
	}
	doctorID := req.DoctorID
	if doctorID == nil {
		doctorID = cl.DoctorID
	}
	if doctorID == nil {
		return nil, fmt.Errorf("%w: clinic has no responsible doctor and no medico_id was given", ErrInvalid)
	}
	doctor, err := s.resolveDoctor(ctx, *doctorID)
	if err != nil {
		return nil, err
	}

	appt := &Appointment{
		PatientID: caller.ID,
		DoctorID:  doctor.ID,
		ClinicID:  &cl.ID,
		Date:      date,
		Time:      slot,
		Reason:    req.Reason,
		Status:    StatusPending,
	}
	err = s.runInTx(ctx, func(ctx context.Context) error {
		taken, err := s.appts.ExistsOccupying(ctx, appt.DoctorID, appt.Date, appt.Time)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		return s.appts.Create(ctx, appt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrSlotTaken
		}
		return nil, err
	}

	appt.PatientName = caller.FullName
	appt.DoctorName = doctor.FullName
	appt.ClinicName = cl.Name

	if s.notifier != nil {
		if err := s.notifier.AppointmentBooked(ctx, appt, caller.FullName); err != nil {
			s.logger.Warn().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("booking notification failed")
		}
	}
	return appt, nil
}

// Cancel flips an appointment to cancelled. Only the appointment's
// patient or its assigned doctor may cancel, and only from a non-terminal
// status. The row is kept for audit history; the occupying-status filter
// frees the slot.
func (s *Service) Cancel(ctx context.Context, callerID, apptID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, callerID, apptID, StatusCancelled, func(appt *Appointment, caller *directory.User) error {
		if caller.ID != appt.PatientID && caller.ID != appt.DoctorID {
			return fmt.Errorf("%w: appointment belongs to another patient and doctor", ErrForbidden)
		}
		return nil
	})
}

// Confirm moves a pending appointment to confirmed. Only the assigned
// doctor may confirm.
func (s *Service) Confirm(ctx context.Context, callerID, apptID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, callerID, apptID, StatusConfirmed, requireAssignedDoctor)
}

// Complete marks an appointment as completed. Only the assigned doctor
// may complete.
func (s *Service) Complete(ctx context.Context, callerID, apptID uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, callerID, apptID, StatusCompleted, requireAssignedDoctor)
}

func requireAssignedDoctor(appt *Appointment, caller *directory.User) error {
	if !caller.IsDoctor() || caller.ID != appt.DoctorID {
		return fmt.Errorf("%w: only the assigned doctor may do this", ErrForbidden)
	}
	return nil
}

func (s *Service) transition(ctx context.Context, callerID, apptID uuid.UUID, to Status, authorize func(*Appointment, *directory.User) error) (*Appointment, error) {
	appt, err := s.appts.GetByID(ctx, apptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: appointment %s", ErrNotFound, apptID)
		}
		return nil, err
	}
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if err := authorize(appt, caller); err != nil {
		return nil, err
	}
	if !CanTransition(appt.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrBadTransition, appt.Status, to)
	}
	if err := s.appts.UpdateStatus(ctx, apptID, to); err != nil {
		return nil, err
	}
	appt.Status = to
	return appt, nil
}

// ListForCaller returns the caller's appointments, scoped by role:
// patients see their own bookings, doctors their assigned ones.
func (s *Service) ListForCaller(ctx context.Context, callerID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	caller, err := s.resolveCaller(ctx, callerID)
	if err != nil {
		return nil, 0, err
	}
	if caller.IsDoctor() {
		return s.appts.ListByDoctor(ctx, caller.ID, limit, offset)
	}
	return s.appts.ListByPatient(ctx, caller.ID, limit, offset)
}
