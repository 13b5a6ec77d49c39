package clinic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/clinicbook/internal/domain/directory"
	"github.com/clinicbook/clinicbook/internal/platform/db"
	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

var (
	ErrNotFound         = errors.New("clinic not found")
	ErrScheduleNotFound = errors.New("schedule not found")
	ErrUnknownCaller    = errors.New("caller account not found")
	ErrNotOwner         = errors.New("caller does not own this clinic")
	ErrOnlyDoctors      = errors.New("only doctors can manage clinics and schedules")
	ErrDoctorHasClinic  = errors.New("doctor already has a clinic")
	ErrScheduleExists   = errors.New("doctor already has a schedule for that weekday")
)

// Directory resolves user accounts for ownership and role checks.
type Directory interface {
	Get(ctx context.Context, id uuid.UUID) (*directory.User, error)
}

type Service struct {
	clinics   ClinicRepository
	schedules ScheduleRepository
	users     Directory
	runInTx   func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewService(pool *pgxpool.Pool, clinics ClinicRepository, schedules ScheduleRepository, users Directory) *Service {
	return &Service{
		clinics:   clinics,
		schedules: schedules,
		users:     users,
		runInTx: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return db.WithTx(ctx, pool, fn)
		},
	}
}

func (s *Service) requireDoctor(ctx context.Context, callerID uuid.UUID) (*directory.User, error) {
	caller, err := s.users.Get(ctx, callerID)
	if err != nil {
		if errors.Is(err, directory.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownCaller, callerID)
		}
		return nil, fmt.Errorf("resolving caller: %w", err)
	}
	if !caller.IsDoctor() {
		return nil, ErrOnlyDoctors
	}
	return caller, nil
}

func validateHours(c *Clinic) error {
	if (c.OpenTime == nil) != (c.CloseTime == nil) {
		return fmt.Errorf("open_time and close_time must be set together")
	}
	if c.HasHours() && !c.OpenTime.Before(*c.CloseTime) {
		return fmt.Errorf("open_time must be before close_time")
	}
	for _, d := range c.Weekdays {
		if d < 0 || d > 6 {
			return fmt.Errorf("weekday %d out of range", d)
		}
	}
	return nil
}

// Create registers a clinic owned by the calling doctor and derives the
// doctor's weekly schedule rows from the clinic hours. The clinic insert
// and the schedule rows commit in one transaction.
func (s *Service) Create(ctx context.Context, callerID uuid.UUID, c *Clinic) error {
	caller, err := s.requireDoctor(ctx, callerID)
	if err != nil {
		return err
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := validateHours(c); err != nil {
		return err
	}
	c.DoctorID = &caller.ID

	err = s.runInTx(ctx, func(ctx context.Context) error {
		if err := s.clinics.Create(ctx, c); err != nil {
			return err
		}
		return s.syncSchedules(ctx, c)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDoctorHasClinic
		}
		return err
	}
	return nil
}

// syncSchedules replaces the owning doctor's clinic-derived schedule rows
// with one row per attended weekday carrying the clinic hours.
func (s *Service) syncSchedules(ctx context.Context, c *Clinic) error {
	if c.DoctorID == nil {
		return nil
	}
	if err := s.schedules.DeleteByClinic(ctx, c.ID); err != nil {
		return err
	}
	if !c.HasHours() {
		return nil
	}
	for _, d := range c.Weekdays {
		ws := &WeeklySchedule{
			DoctorID:  *c.DoctorID,
			ClinicID:  &c.ID,
			Weekday:   d,
			OpenTime:  *c.OpenTime,
			CloseTime: *c.CloseTime,
		}
		if err := s.schedules.Create(ctx, ws); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	c, err := s.clinics.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

// GetByDoctor returns the clinic the doctor is responsible for.
func (s *Service) GetByDoctor(ctx context.Context, doctorID uuid.UUID) (*Clinic, error) {
	c, err := s.clinics.GetByDoctor(ctx, doctorID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	return s.clinics.List(ctx, limit, offset)
}

// Update modifies a clinic owned by the caller and re-derives the weekly
// schedule rows from the new hours.
func (s *Service) Update(ctx context.Context, callerID, id uuid.UUID, upd *Clinic) (*Clinic, error) {
	if _, err := s.requireDoctor(ctx, callerID); err != nil {
		return nil, err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.DoctorID == nil || *existing.DoctorID != callerID {
		return nil, ErrNotOwner
	}

	existing.Name = upd.Name
	existing.Address = upd.Address
	existing.Phone = upd.Phone
	existing.OpenTime = upd.OpenTime
	existing.CloseTime = upd.CloseTime
	existing.Weekdays = upd.Weekdays
	if existing.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := validateHours(existing); err != nil {
		return nil, err
	}

	err = s.runInTx(ctx, func(ctx context.Context) error {
		if err := s.clinics.Update(ctx, existing); err != nil {
			return err
		}
		return s.syncSchedules(ctx, existing)
	})
	if err != nil {
		return nil, err
	}
	return existing, nil
}

// Delete removes a clinic owned by the caller. Schedule rows derived from
// the clinic go with it through the foreign key cascade.
func (s *Service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.requireDoctor(ctx, callerID); err != nil {
		return err
	}
	existing, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.DoctorID == nil || *existing.DoctorID != callerID {
		return ErrNotOwner
	}
	return s.clinics.Delete(ctx, id)
}

// -- Weekly schedules --

// CreateSchedule adds a standalone weekly schedule row for the calling
// doctor. Rows created this way carry no clinic reference and survive
// clinic hour changes.
func (s *Service) CreateSchedule(ctx context.Context, callerID uuid.UUID, ws *WeeklySchedule) error {
	caller, err := s.requireDoctor(ctx, callerID)
	if err != nil {
		return err
	}
	ws.DoctorID = caller.ID
	ws.ClinicID = nil
	if ws.Weekday < 0 || ws.Weekday > 6 {
		return fmt.Errorf("weekday %d out of range", ws.Weekday)
	}
	if !ws.OpenTime.Before(ws.CloseTime) {
		return fmt.Errorf("open_time must be before close_time")
	}
	if err := s.schedules.Create(ctx, ws); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrScheduleExists
		}
		return err
	}
	return nil
}

func (s *Service) ListSchedules(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error) {
	return s.schedules.ListByDoctor(ctx, doctorID)
}

func (s *Service) UpdateSchedule(ctx context.Context, callerID, id uuid.UUID, open, close timeofday.TimeOfDay) (*WeeklySchedule, error) {
	if _, err := s.requireDoctor(ctx, callerID); err != nil {
		return nil, err
	}
	ws, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if ws.DoctorID != callerID {
		return nil, ErrNotOwner
	}
	if !open.Before(close) {
		return nil, fmt.Errorf("open_time must be before close_time")
	}
	ws.OpenTime = open
	ws.CloseTime = close
	if err := s.schedules.Update(ctx, ws); err != nil {
		return nil, err
	}
	return ws, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, callerID, id uuid.UUID) error {
	if _, err := s.requireDoctor(ctx, callerID); err != nil {
		return err
	}
	ws, err := s.schedules.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrScheduleNotFound
		}
		return err
	}
	if ws.DoctorID != callerID {
		return ErrNotOwner
	}
	return s.schedules.Delete(ctx, id)
}

// HoursFor returns the doctor's working hours on the weekday of the given
// date. ok is false when the doctor has no schedule row for that weekday.
func (s *Service) HoursFor(ctx context.Context, doctorID uuid.UUID, date time.Time) (open, close timeofday.TimeOfDay, ok bool, err error) {
	ws, err := s.schedules.GetByDoctorAndWeekday(ctx, doctorID, date.Weekday())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, 0, false, nil
		}
		return 0, 0, false, err
	}
	return ws.OpenTime, ws.CloseTime, true, nil
}
