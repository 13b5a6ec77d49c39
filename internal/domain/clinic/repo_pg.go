package clinic

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinicbook/clinicbook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Clinic Repository ===========

type clinicRepoPG struct{ pool *pgxpool.Pool }

func NewClinicRepoPG(pool *pgxpool.Pool) ClinicRepository { return &clinicRepoPG{pool: pool} }

func (r *clinicRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const clinicCols = `id, name, address, phone, doctor_id, open_minutes, close_minutes, weekdays, created_at, updated_at`

func (r *clinicRepoPG) scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	err := row.Scan(&c.ID, &c.Name, &c.Address, &c.Phone, &c.DoctorID,
		&c.OpenTime, &c.CloseTime, &c.Weekdays, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *clinicRepoPG) Create(ctx context.Context, c *Clinic) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO clinics (id, name, address, phone, doctor_id, open_minutes, close_minutes, weekdays)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.Name, c.Address, c.Phone, c.DoctorID, c.OpenTime, c.CloseTime, c.Weekdays)
	return err
}

func (r *clinicRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return r.scanClinic(r.conn(ctx).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
}

func (r *clinicRepoPG) GetByDoctor(ctx context.Context, doctorID uuid.UUID) (*Clinic, error) {
	return r.scanClinic(r.conn(ctx).QueryRow(ctx, `SELECT `+clinicCols+` FROM clinics WHERE doctor_id = $1`, doctorID))
}

func (r *clinicRepoPG) Update(ctx context.Context, c *Clinic) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE clinics SET name=$2, address=$3, phone=$4, doctor_id=$5,
			open_minutes=$6, close_minutes=$7, weekdays=$8, updated_at=NOW()
		WHERE id = $1`,
		c.ID, c.Name, c.Address, c.Phone, c.DoctorID, c.OpenTime, c.CloseTime, c.Weekdays)
	return err
}

func (r *clinicRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM clinics WHERE id = $1`, id)
	return err
}

func (r *clinicRepoPG) List(ctx context.Context, limit, offset int) ([]*Clinic, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM clinics`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+clinicCols+` FROM clinics ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Clinic
	for rows.Next() {
		c, err := r.scanClinic(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, nil
}

// =========== Weekly Schedule Repository ===========

type scheduleRepoPG struct{ pool *pgxpool.Pool }

func NewScheduleRepoPG(pool *pgxpool.Pool) ScheduleRepository { return &scheduleRepoPG{pool: pool} }

func (r *scheduleRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const scheduleCols = `id, doctor_id, clinic_id, weekday, open_minutes, close_minutes, created_at, updated_at`

func (r *scheduleRepoPG) scanSchedule(row pgx.Row) (*WeeklySchedule, error) {
	var ws WeeklySchedule
	err := row.Scan(&ws.ID, &ws.DoctorID, &ws.ClinicID, &ws.Weekday,
		&ws.OpenTime, &ws.CloseTime, &ws.CreatedAt, &ws.UpdatedAt)
	return &ws, err
}

func (r *scheduleRepoPG) Create(ctx context.Context, ws *WeeklySchedule) error {
	if ws.ID == uuid.Nil {
		ws.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO weekly_schedules (id, doctor_id, clinic_id, weekday, open_minutes, close_minutes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		ws.ID, ws.DoctorID, ws.ClinicID, ws.Weekday, ws.OpenTime, ws.CloseTime)
	return err
}

func (r *scheduleRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*WeeklySchedule, error) {
	return r.scanSchedule(r.conn(ctx).QueryRow(ctx, `SELECT `+scheduleCols+` FROM weekly_schedules WHERE id = $1`, id))
}

func (r *scheduleRepoPG) GetByDoctorAndWeekday(ctx context.Context, doctorID uuid.UUID, weekday time.Weekday) (*WeeklySchedule, error) {
	return r.scanSchedule(r.conn(ctx).QueryRow(ctx, `
		SELECT `+scheduleCols+` FROM weekly_schedules
		WHERE doctor_id = $1 AND weekday = $2`, doctorID, int32(weekday)))
}

func (r *scheduleRepoPG) Update(ctx context.Context, ws *WeeklySchedule) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE weekly_schedules SET open_minutes=$2, close_minutes=$3, updated_at=NOW()
		WHERE id = $1`,
		ws.ID, ws.OpenTime, ws.CloseTime)
	return err
}

func (r *scheduleRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM weekly_schedules WHERE id = $1`, id)
	return err
}

func (r *scheduleRepoPG) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+scheduleCols+` FROM weekly_schedules
		WHERE doctor_id = $1 ORDER BY weekday`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*WeeklySchedule
	for rows.Next() {
		ws, err := r.scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ws)
	}
	return items, nil
}

func (r *scheduleRepoPG) DeleteByClinic(ctx context.Context, clinicID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM weekly_schedules WHERE clinic_id = $1`, clinicID)
	return err
}
