package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/clinicbook/internal/platform/db"
	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type appointmentRepoPG struct{ pool *pgxpool.Pool }

func NewAppointmentRepoPG(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepoPG{pool: pool}
}

func (r *appointmentRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, doctor_id, clinic_id, date, time_minutes, reason, status, created_at, updated_at`

func (r *appointmentRepoPG) scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ClinicID, &a.Date, &a.Time,
		&a.Reason, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	return &a, err
}

func (r *appointmentRepoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, clinic_id, date, time_minutes, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		a.ID, a.PatientID, a.DoctorID, a.ClinicID, a.Date, a.Time, a.Reason, a.Status).
		Scan(&a.CreatedAt, &a.UpdatedAt)
}

func (r *appointmentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return r.scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *appointmentRepoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	return err
}

func (r *appointmentRepoPG) OccupiedTimes(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]timeofday.TimeOfDay, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT time_minutes FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND status IN ('pending','confirmed')
		ORDER BY time_minutes`, doctorID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var times []timeofday.TimeOfDay
	for rows.Next() {
		var t timeofday.TimeOfDay
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *appointmentRepoPG) ExistsOccupying(ctx context.Context, doctorID uuid.UUID, date time.Time, t timeofday.TimeOfDay) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time_minutes = $3
			AND status IN ('pending','confirmed')
		)`, doctorID, date, t).Scan(&exists)
	return exists, err
}

func (r *appointmentRepoPG) CountActiveByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	var count int
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COUNT(*) FROM appointments
		WHERE patient_id = $1 AND status IN ('pending','confirmed')`, patientID).Scan(&count)
	return count, err
}

const apptJoinCols = `a.id, a.patient_id, a.doctor_id, a.clinic_id, a.date, a.time_minutes,
	a.reason, a.status, a.created_at, a.updated_at, p.full_name, d.full_name, COALESCE(c.name, '')`

func (r *appointmentRepoPG) scanJoined(rows pgx.Rows) (*Appointment, error) {
	var a Appointment
	err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.ClinicID, &a.Date, &a.Time,
		&a.Reason, &a.Status, &a.CreatedAt, &a.UpdatedAt,
		&a.PatientName, &a.DoctorName, &a.ClinicName)
	return &a, err
}

func (r *appointmentRepoPG) list(ctx context.Context, column string, id uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM appointments WHERE `+column+` = $1`, id).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptJoinCols+`
		FROM appointments a
		JOIN users p ON p.id = a.patient_id
		JOIN users d ON d.id = a.doctor_id
		LEFT JOIN clinics c ON c.id = a.clinic_id
		WHERE a.`+column+` = $1
		ORDER BY a.date DESC, a.time_minutes DESC
		LIMIT $2 OFFSET $3`, id, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Appointment
	for rows.Next() {
		a, err := r.scanJoined(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *appointmentRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "patient_id", patientID, limit, offset)
}

func (r *appointmentRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, "doctor_id", doctorID, limit, offset)
}

func (r *appointmentRepoPG) ListDoctorsWithAppointmentsOn(ctx context.Context, date time.Time) (map[uuid.UUID]int, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT doctor_id, COUNT(*) FROM appointments
		WHERE date = $1 AND status IN ('pending','confirmed')
		GROUP BY doctor_id`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var doctorID uuid.UUID
		var count int
		if err := rows.Scan(&doctorID, &count); err != nil {
			return nil, err
		}
		counts[doctorID] = count
	}
	return counts, rows.Err()
}
