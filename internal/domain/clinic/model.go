package clinic

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

// Clinic maps to the clinics table. Opening hours and the responsible
// doctor are optional; a clinic without hours offers no bookable slots.
// A doctor can be responsible for at most one clinic.
type Clinic struct {
	ID        uuid.UUID            `db:"id" json:"id"`
	Name      string               `db:"name" json:"name"`
	Address   *string              `db:"address" json:"address,omitempty"`
	Phone     *string              `db:"phone" json:"phone,omitempty"`
	DoctorID  *uuid.UUID           `db:"doctor_id" json:"doctor_id,omitempty"`
	OpenTime  *timeofday.TimeOfDay `db:"open_minutes" json:"open_time,omitempty"`
	CloseTime *timeofday.TimeOfDay `db:"close_minutes" json:"close_time,omitempty"`
	Weekdays  []int32              `db:"weekdays" json:"weekdays,omitempty"`
	CreatedAt time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt time.Time            `db:"updated_at" json:"updated_at"`
}

// HasHours reports whether the clinic has both opening bounds set.
func (c *Clinic) HasHours() bool {
	return c.OpenTime != nil && c.CloseTime != nil
}

// OpenOn reports whether the clinic attends on the given weekday.
func (c *Clinic) OpenOn(day time.Weekday) bool {
	for _, d := range c.Weekdays {
		if time.Weekday(d) == day {
			return true
		}
	}
	return false
}

// WeeklySchedule maps to the weekly_schedules table: one row per doctor
// and weekday. The (doctor_id, weekday) pair is unique.
type WeeklySchedule struct {
	ID        uuid.UUID           `db:"id" json:"id"`
	DoctorID  uuid.UUID           `db:"doctor_id" json:"doctor_id"`
	ClinicID  *uuid.UUID          `db:"clinic_id" json:"clinic_id,omitempty"`
	Weekday   int32               `db:"weekday" json:"weekday"`
	OpenTime  timeofday.TimeOfDay `db:"open_minutes" json:"open_time"`
	CloseTime timeofday.TimeOfDay `db:"close_minutes" json:"close_time"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
	UpdatedAt time.Time           `db:"updated_at" json:"updated_at"`
}
