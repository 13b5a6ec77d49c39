package clinic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/clinicbook/clinicbook/internal/domain/directory"
	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

// -- Mock Repositories --

type mockClinicRepo struct {
	clinics map[uuid.UUID]*Clinic
}

func newMockClinicRepo() *mockClinicRepo {
	return &mockClinicRepo{clinics: make(map[uuid.UUID]*Clinic)}
}

func (m *mockClinicRepo) Create(_ context.Context, c *Clinic) error {
	if c.DoctorID != nil {
		for _, existing := range m.clinics {
			if existing.DoctorID != nil && *existing.DoctorID == *c.DoctorID {
				return &pgconn.PgError{Code: "23505"}
			}
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) GetByID(_ context.Context, id uuid.UUID) (*Clinic, error) {
	c, ok := m.clinics[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockClinicRepo) GetByDoctor(_ context.Context, doctorID uuid.UUID) (*Clinic, error) {
	for _, c := range m.clinics {
		if c.DoctorID != nil && *c.DoctorID == doctorID {
			return c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockClinicRepo) Update(_ context.Context, c *Clinic) error {
	m.clinics[c.ID] = c
	return nil
}

func (m *mockClinicRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.clinics, id)
	return nil
}

func (m *mockClinicRepo) List(_ context.Context, limit, offset int) ([]*Clinic, int, error) {
	var result []*Clinic
	for _, c := range m.clinics {
		result = append(result, c)
	}
	return result, len(result), nil
}

type mockScheduleRepo struct {
	schedules map[uuid.UUID]*WeeklySchedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[uuid.UUID]*WeeklySchedule)}
}

func (m *mockScheduleRepo) Create(_ context.Context, ws *WeeklySchedule) error {
	for _, existing := range m.schedules {
		if existing.DoctorID == ws.DoctorID && existing.Weekday == ws.Weekday {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	if ws.ID == uuid.Nil {
		ws.ID = uuid.New()
	}
	m.schedules[ws.ID] = ws
	return nil
}

func (m *mockScheduleRepo) GetByID(_ context.Context, id uuid.UUID) (*WeeklySchedule, error) {
	ws, ok := m.schedules[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return ws, nil
}

func (m *mockScheduleRepo) GetByDoctorAndWeekday(_ context.Context, doctorID uuid.UUID, weekday time.Weekday) (*WeeklySchedule, error) {
	for _, ws := range m.schedules {
		if ws.DoctorID == doctorID && ws.Weekday == int32(weekday) {
			return ws, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockScheduleRepo) Update(_ context.Context, ws *WeeklySchedule) error {
	m.schedules[ws.ID] = ws
	return nil
}

func (m *mockScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.schedules, id)
	return nil
}

func (m *mockScheduleRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*WeeklySchedule, error) {
	var result []*WeeklySchedule
	for _, ws := range m.schedules {
		if ws.DoctorID == doctorID {
			result = append(result, ws)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) DeleteByClinic(_ context.Context, clinicID uuid.UUID) error {
	for id, ws := range m.schedules {
		if ws.ClinicID != nil && *ws.ClinicID == clinicID {
			delete(m.schedules, id)
		}
	}
	return nil
}

type mockDirectory struct {
	users map[uuid.UUID]*directory.User
}

func (m *mockDirectory) Get(_ context.Context, id uuid.UUID) (*directory.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, directory.ErrNotFound
	}
	return u, nil
}

type fixture struct {
	svc       *Service
	clinics   *mockClinicRepo
	schedules *mockScheduleRepo
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newFixture() *fixture {
	clinics := newMockClinicRepo()
	schedules := newMockScheduleRepo()
	dir := &mockDirectory{users: make(map[uuid.UUID]*directory.User)}

	doctorID := uuid.New()
	patientID := uuid.New()
	dir.users[doctorID] = &directory.User{ID: doctorID, Role: directory.RoleDoctor, FullName: "Dr. Ruiz"}
	dir.users[patientID] = &directory.User{ID: patientID, Role: directory.RolePatient, FullName: "Ana Suarez"}

	svc := NewService(nil, clinics, schedules, dir)
	svc.runInTx = func(ctx context.Context, fn func(ctx context.Context) error) error {
		return fn(ctx)
	}
	return &fixture{svc: svc, clinics: clinics, schedules: schedules, doctorID: doctorID, patientID: patientID}
}

func tod(t *testing.T, s string) timeofday.TimeOfDay {
	t.Helper()
	v, err := timeofday.Parse(s)
	if err != nil {
		t.Fatalf("parsing %q: %v", s, err)
	}
	return v
}

func todPtr(t *testing.T, s string) *timeofday.TimeOfDay {
	v := tod(t, s)
	return &v
}

// -- Tests --

func TestCreateClinic_DerivesSchedules(t *testing.T) {
	f := newFixture()

	cl := &Clinic{
		Name:      "Centro Medico Norte",
		OpenTime:  todPtr(t, "09:00"),
		CloseTime: todPtr(t, "17:00"),
		Weekdays:  []int32{1, 2, 3, 4, 5},
	}
	if err := f.svc.Create(context.Background(), f.doctorID, cl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cl.DoctorID == nil || *cl.DoctorID != f.doctorID {
		t.Error("expected clinic to be owned by the calling doctor")
	}

	rows, err := f.svc.ListSchedules(context.Background(), f.doctorID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 schedule rows, got %d", len(rows))
	}
	for _, ws := range rows {
		if ws.OpenTime != tod(t, "09:00") || ws.CloseTime != tod(t, "17:00") {
			t.Errorf("weekday %d: unexpected hours %s-%s", ws.Weekday, ws.OpenTime, ws.CloseTime)
		}
	}
}

func TestCreateClinic_WithoutHours(t *testing.T) {
	f := newFixture()

	cl := &Clinic{Name: "Centro Medico Norte"}
	if err := f.svc.Create(context.Background(), f.doctorID, cl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rows, _ := f.svc.ListSchedules(context.Background(), f.doctorID)
	if len(rows) != 0 {
		t.Errorf("expected no schedule rows for a clinic without hours, got %d", len(rows))
	}
}

func TestCreateClinic_PatientForbidden(t *testing.T) {
	f := newFixture()

	cl := &Clinic{Name: "Centro Medico Norte"}
	if err := f.svc.Create(context.Background(), f.patientID, cl); err != ErrOnlyDoctors {
		t.Errorf("expected ErrOnlyDoctors, got %v", err)
	}
}

func TestCreateClinic_UnknownCaller(t *testing.T) {
	f := newFixture()

	err := f.svc.Create(context.Background(), uuid.New(), &Clinic{Name: "Centro Medico Norte"})
	if !errors.Is(err, ErrUnknownCaller) {
		t.Errorf("expected ErrUnknownCaller, got %v", err)
	}
}

func TestCreateClinic_OnePerDoctor(t *testing.T) {
	f := newFixture()

	if err := f.svc.Create(context.Background(), f.doctorID, &Clinic{Name: "First"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := f.svc.Create(context.Background(), f.doctorID, &Clinic{Name: "Second"})
	if err != ErrDoctorHasClinic {
		t.Errorf("expected ErrDoctorHasClinic, got %v", err)
	}
}

func TestCreateClinic_InvalidHours(t *testing.T) {
	f := newFixture()

	cases := []struct {
		name string
		cl   Clinic
	}{
		{"open without close", Clinic{Name: "C", OpenTime: todPtr(t, "09:00")}},
		{"open after close", Clinic{Name: "C", OpenTime: todPtr(t, "17:00"), CloseTime: todPtr(t, "09:00")}},
		{"open equals close", Clinic{Name: "C", OpenTime: todPtr(t, "09:00"), CloseTime: todPtr(t, "09:00")}},
		{"weekday out of range", Clinic{Name: "C", OpenTime: todPtr(t, "09:00"), CloseTime: todPtr(t, "17:00"), Weekdays: []int32{7}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cl := tc.cl
			if err := f.svc.Create(context.Background(), f.doctorID, &cl); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestUpdateClinic_ResyncsSchedules(t *testing.T) {
	f := newFixture()

	cl := &Clinic{
		Name:      "Centro Medico Norte",
		OpenTime:  todPtr(t, "09:00"),
		CloseTime: todPtr(t, "17:00"),
		Weekdays:  []int32{1, 2, 3},
	}
	if err := f.svc.Create(context.Background(), f.doctorID, cl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	upd := &Clinic{
		Name:      "Centro Medico Norte",
		OpenTime:  todPtr(t, "10:00"),
		CloseTime: todPtr(t, "14:00"),
		Weekdays:  []int32{1, 5},
	}
	if _, err := f.svc.Update(context.Background(), f.doctorID, cl.ID, upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows, _ := f.svc.ListSchedules(context.Background(), f.doctorID)
	if len(rows) != 2 {
		t.Fatalf("expected 2 schedule rows after update, got %d", len(rows))
	}
	for _, ws := range rows {
		if ws.OpenTime != tod(t, "10:00") {
			t.Errorf("expected resynced hours, got %s", ws.OpenTime)
		}
	}
}

func TestUpdateClinic_NotOwner(t *testing.T) {
	f := newFixture()

	cl := &Clinic{Name: "Centro Medico Norte"}
	if err := f.svc.Create(context.Background(), f.doctorID, cl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherDoctor := uuid.New()
	f.svc.users.(*mockDirectory).users[otherDoctor] = &directory.User{ID: otherDoctor, Role: directory.RoleDoctor}

	_, err := f.svc.Update(context.Background(), otherDoctor, cl.ID, &Clinic{Name: "Taken Over"})
	if err != ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}
}

func TestDeleteClinic(t *testing.T) {
	f := newFixture()

	cl := &Clinic{Name: "Centro Medico Norte"}
	if err := f.svc.Create(context.Background(), f.doctorID, cl); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.Delete(context.Background(), f.doctorID, cl.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Get(context.Background(), cl.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreateSchedule_DuplicateWeekday(t *testing.T) {
	f := newFixture()

	ws := &WeeklySchedule{Weekday: 2, OpenTime: tod(t, "09:00"), CloseTime: tod(t, "13:00")}
	if err := f.svc.CreateSchedule(context.Background(), f.doctorID, ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	dup := &WeeklySchedule{Weekday: 2, OpenTime: tod(t, "14:00"), CloseTime: tod(t, "18:00")}
	if err := f.svc.CreateSchedule(context.Background(), f.doctorID, dup); err != ErrScheduleExists {
		t.Errorf("expected ErrScheduleExists, got %v", err)
	}
}

func TestUpdateSchedule_Ownership(t *testing.T) {
	f := newFixture()

	ws := &WeeklySchedule{Weekday: 2, OpenTime: tod(t, "09:00"), CloseTime: tod(t, "13:00")}
	if err := f.svc.CreateSchedule(context.Background(), f.doctorID, ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	otherDoctor := uuid.New()
	f.svc.users.(*mockDirectory).users[otherDoctor] = &directory.User{ID: otherDoctor, Role: directory.RoleDoctor}

	if _, err := f.svc.UpdateSchedule(context.Background(), otherDoctor, ws.ID, tod(t, "10:00"), tod(t, "12:00")); err != ErrNotOwner {
		t.Errorf("expected ErrNotOwner, got %v", err)
	}

	updated, err := f.svc.UpdateSchedule(context.Background(), f.doctorID, ws.ID, tod(t, "10:00"), tod(t, "12:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.OpenTime != tod(t, "10:00") {
		t.Errorf("expected updated open time, got %s", updated.OpenTime)
	}
}

func TestHoursFor(t *testing.T) {
	f := newFixture()

	ws := &WeeklySchedule{Weekday: int32(time.Tuesday), OpenTime: tod(t, "09:00"), CloseTime: tod(t, "13:00")}
	if err := f.svc.CreateSchedule(context.Background(), f.doctorID, ws); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tuesday := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC) // a Tuesday
	open, close, ok, err := f.svc.HoursFor(context.Background(), f.doctorID, tuesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected hours for Tuesday")
	}
	if open != tod(t, "09:00") || close != tod(t, "13:00") {
		t.Errorf("unexpected hours %s-%s", open, close)
	}

	wednesday := tuesday.AddDate(0, 0, 1)
	_, _, ok, err = f.svc.HoursFor(context.Background(), f.doctorID, wednesday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected no hours for Wednesday")
	}
}
