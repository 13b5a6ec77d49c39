package directory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// -- Mock Repositories --

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return ErrEmailTaken
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) Update(_ context.Context, u *User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) ListDoctors(_ context.Context, specialty string, limit, offset int) ([]*User, int, error) {
	var result []*User
	for _, u := range m.users {
		if u.Role != RoleDoctor {
			continue
		}
		if specialty != "" && (u.Specialty == nil || *u.Specialty != specialty) {
			continue
		}
		result = append(result, u)
	}
	return result, len(result), nil
}

type mockLicenseRepo struct {
	records map[string]*LicenseRecord
}

func newMockLicenseRepo() *mockLicenseRepo {
	return &mockLicenseRepo{records: make(map[string]*LicenseRecord)}
}

func (m *mockLicenseRepo) Get(_ context.Context, license string) (*LicenseRecord, error) {
	rec, ok := m.records[license]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return rec, nil
}

func newTestService() (*Service, *mockUserRepo, *mockLicenseRepo) {
	users := newMockUserRepo()
	licenses := newMockLicenseRepo()
	return NewService(users, licenses), users, licenses
}

func strPtr(s string) *string { return &s }

// -- Tests --

func TestRegister_Patient(t *testing.T) {
	svc, _, _ := newTestService()

	u := &User{Email: "Ana@Example.com", FullName: "Ana Suarez", Role: RolePatient}
	if err := svc.Register(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "ana@example.com" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
}

func TestRegister_PatientDropsRegistryFields(t *testing.T) {
	svc, _, _ := newTestService()

	u := &User{
		Email:     "ana@example.com",
		FullName:  "Ana Suarez",
		Role:      RolePatient,
		Specialty: strPtr("cardiology"),
		License:   strPtr("MED-1"),
	}
	if err := svc.Register(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Specialty != nil || u.License != nil {
		t.Error("expected specialty and license to be cleared for patients")
	}
}

func TestRegister_InvalidInput(t *testing.T) {
	svc, _, _ := newTestService()

	cases := []struct {
		name string
		user User
	}{
		{"missing email", User{FullName: "Ana", Role: RolePatient}},
		{"malformed email", User{Email: "nope", FullName: "Ana", Role: RolePatient}},
		{"missing name", User{Email: "a@b.com", Role: RolePatient}},
		{"bad role", User{Email: "a@b.com", FullName: "Ana", Role: "admin"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := tc.user
			if err := svc.Register(context.Background(), &u); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRegister_DoctorNeedsLicense(t *testing.T) {
	svc, _, _ := newTestService()

	u := &User{Email: "doc@example.com", FullName: "Dr. Ruiz", Role: RoleDoctor}
	if err := svc.Register(context.Background(), u); err == nil {
		t.Error("expected error for doctor without license")
	}
}

func TestRegister_DoctorLicenseNotInRegistry(t *testing.T) {
	svc, _, _ := newTestService()

	u := &User{Email: "doc@example.com", FullName: "Dr. Ruiz", Role: RoleDoctor, License: strPtr("MED-404")}
	err := svc.Register(context.Background(), u)
	if err != ErrLicenseInvalid {
		t.Errorf("expected ErrLicenseInvalid, got %v", err)
	}
}

func TestRegister_DoctorInactiveLicense(t *testing.T) {
	svc, _, licenses := newTestService()
	licenses.records["MED-99"] = &LicenseRecord{License: "MED-99", HolderName: "Dr. Ruiz", Active: false}

	u := &User{Email: "doc@example.com", FullName: "Dr. Ruiz", Role: RoleDoctor, License: strPtr("MED-99")}
	err := svc.Register(context.Background(), u)
	if err != ErrLicenseInvalid {
		t.Errorf("expected ErrLicenseInvalid, got %v", err)
	}
}

func TestRegister_DoctorValidLicense(t *testing.T) {
	svc, _, licenses := newTestService()
	licenses.records["MED-99"] = &LicenseRecord{License: "MED-99", HolderName: "Dr. Ruiz", Active: true}

	u := &User{
		Email:     "doc@example.com",
		FullName:  "Dr. Ruiz",
		Role:      RoleDoctor,
		Specialty: strPtr("cardiology"),
		License:   strPtr("MED-99"),
	}
	if err := svc.Register(context.Background(), u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()

	first := &User{Email: "ana@example.com", FullName: "Ana Suarez", Role: RolePatient}
	if err := svc.Register(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := &User{Email: "ANA@example.com", FullName: "Otra Ana", Role: RolePatient}
	if err := svc.Register(context.Background(), second); err != ErrEmailTaken {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, users, _ := newTestService()
	id := uuid.New()
	users.users[id] = &User{ID: id, Email: "ana@example.com", FullName: "Ana Suarez", Role: RolePatient}

	u, err := svc.UpdateProfile(context.Background(), id, id, "Ana Torres", strPtr("cardiology"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.FullName != "Ana Torres" {
		t.Errorf("expected renamed user, got %q", u.FullName)
	}
	if u.Specialty != nil {
		t.Error("expected specialty change to be ignored for patients")
	}
}

func TestUpdateProfile_DoctorSpecialty(t *testing.T) {
	svc, users, _ := newTestService()
	id := uuid.New()
	users.users[id] = &User{ID: id, Email: "doc@example.com", FullName: "Dr. Ruiz", Role: RoleDoctor}

	u, err := svc.UpdateProfile(context.Background(), id, id, "", strPtr("dermatology"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.FullName != "Dr. Ruiz" {
		t.Errorf("expected name unchanged on empty input, got %q", u.FullName)
	}
	if u.Specialty == nil || *u.Specialty != "dermatology" {
		t.Errorf("expected specialty updated, got %v", u.Specialty)
	}
}

func TestUpdateProfile_OtherAccountForbidden(t *testing.T) {
	svc, users, _ := newTestService()
	id := uuid.New()
	users.users[id] = &User{ID: id, Email: "ana@example.com", FullName: "Ana Suarez", Role: RolePatient}

	_, err := svc.UpdateProfile(context.Background(), uuid.New(), id, "Mallory", nil)
	if err != ErrForbidden {
		t.Errorf("expected ErrForbidden, got %v", err)
	}
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Get(context.Background(), uuid.New())
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListDoctors_FiltersBySpecialty(t *testing.T) {
	svc, users, _ := newTestService()
	users.users[uuid.New()] = &User{Role: RoleDoctor, Specialty: strPtr("cardiology")}
	users.users[uuid.New()] = &User{Role: RoleDoctor, Specialty: strPtr("dermatology")}
	users.users[uuid.New()] = &User{Role: RolePatient}

	all, total, err := svc.ListDoctors(context.Background(), "", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Errorf("expected 2 doctors, got %d", total)
	}

	cardio, total, err := svc.ListDoctors(context.Background(), "cardiology", 20, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || len(cardio) != 1 {
		t.Errorf("expected 1 cardiologist, got %d", total)
	}
}

func TestVerifyLicense(t *testing.T) {
	svc, _, licenses := newTestService()
	licenses.records["MED-10"] = &LicenseRecord{License: "MED-10", HolderName: "Dr. Vega", Active: true}

	rec, err := svc.VerifyLicense(context.Background(), "MED-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.HolderName != "Dr. Vega" {
		t.Errorf("unexpected holder: %s", rec.HolderName)
	}

	if _, err := svc.VerifyLicense(context.Background(), "MED-11"); err != ErrLicenseInvalid {
		t.Errorf("expected ErrLicenseInvalid, got %v", err)
	}
}
