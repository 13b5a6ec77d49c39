package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ClinicRepository interface {
	Create(ctx context.Context, c *Clinic) error
	GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	GetByDoctor(ctx context.Context, doctorID uuid.UUID) (*Clinic, error)
	Update(ctx context.Context, c *Clinic) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*Clinic, int, error)
}

type ScheduleRepository interface {
	Create(ctx context.Context, ws *WeeklySchedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*WeeklySchedule, error)
	GetByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*WeeklySchedule, error)
	Update(ctx context.Context, ws *WeeklySchedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error)
	DeleteByClinic(ctx context.Context, clinicID uuid.UUID) error
}
