package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

// AppointmentSource exposes the occupying appointment counts the reminder
// job needs.
type AppointmentSource interface {
	ListDoctorsWithAppointmentsOn(ctx context.Context, date time.Time) (map[uuid.UUID]int, error)
}

// Reminder runs a scheduled job that notifies each doctor about their
// appointments for the next day.
type Reminder struct {
	svc    *Service
	appts  AppointmentSource
	cron   *cron.Cron
	spec   string
	logger zerolog.Logger
	now    func() time.Time
}

// NewReminder builds the reminder job with a cron spec such as
// "0 18 * * *". The job is not started until Start is called.
func NewReminder(svc *Service, appts AppointmentSource, spec string, logger zerolog.Logger) *Reminder {
	return &Reminder{
		svc:    svc,
		appts:  appts,
		cron:   cron.New(),
		spec:   spec,
		logger: logger,
		now:    time.Now,
	}
}

// Start schedules the job and starts the cron runner.
func (r *Reminder) Start() error {
	if _, err := r.cron.AddFunc(r.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := r.Run(ctx); err != nil {
			r.logger.Error().Err(err).Msg("reminder job failed")
		}
	}); err != nil {
		return fmt.Errorf("scheduling reminder job: %w", err)
	}
	r.cron.Start()
	r.logger.Info().Str("spec", r.spec).Msg("reminder job scheduled")
	return nil
}

// Stop stops the cron runner and waits for a running job to finish.
func (r *Reminder) Stop() {
	<-r.cron.Stop().Done()
}

// Run creates one reminder per doctor with appointments tomorrow.
func (r *Reminder) Run(ctx context.Context) error {
	tomorrow := r.now().UTC().Truncate(24*time.Hour).AddDate(0, 0, 1)
	counts, err := r.appts.ListDoctorsWithAppointmentsOn(ctx, tomorrow)
	if err != nil {
		return fmt.Errorf("listing appointments for %s: %w", tomorrow.Format(timeofday.DateLayout), err)
	}
	for doctorID, count := range counts {
		msg := fmt.Sprintf("Recordatorio: tienes %d citas programadas para el %s",
			count, tomorrow.Format(timeofday.DateLayout))
		if count == 1 {
			msg = fmt.Sprintf("Recordatorio: tienes 1 cita programada para el %s",
				tomorrow.Format(timeofday.DateLayout))
		}
		if err := r.svc.Remind(ctx, doctorID, msg); err != nil {
			r.logger.Error().Err(err).
				Str("doctor_id", doctorID.String()).
				Msg("creating reminder notification")
			continue
		}
	}
	return nil
}
