package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already registered")
	ErrLicenseInvalid = errors.New("license is not registered or not active")
	ErrForbidden      = errors.New("cannot modify another user's account")
)

type Service struct {
	users    UserRepository
	licenses LicenseRepository
}

func NewService(users UserRepository, licenses LicenseRepository) *Service {
	return &Service{users: users, licenses: licenses}
}

// Register creates a new user account. Doctor accounts must present a
// license number that exists and is active in the professional registry.
func (s *Service) Register(ctx context.Context, u *User) error {
	u.Email = strings.TrimSpace(strings.ToLower(u.Email))
	u.FullName = strings.TrimSpace(u.FullName)

	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if u.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("role must be %q or %q", RolePatient, RoleDoctor)
	}

	if u.Role == RoleDoctor {
		if u.License == nil || *u.License == "" {
			return fmt.Errorf("doctors must provide a license number")
		}
		if err := s.checkLicense(ctx, *u.License); err != nil {
			return err
		}
	} else {
		// Patients never carry registry fields.
		u.Specialty = nil
		u.License = nil
	}

	// Friendly duplicate check; the unique index on email stays
	// authoritative for the race at insert time.
	if _, err := s.users.GetByEmail(ctx, u.Email); err == nil {
		return ErrEmailTaken
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("checking email: %w", err)
	}

	if err := s.users.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrEmailTaken
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// UpdateProfile changes a user's display fields. Users may only modify
// their own account; role, email and license are immutable here.
func (s *Service) UpdateProfile(ctx context.Context, callerID, id uuid.UUID, fullName string, specialty *string) (*User, error) {
	if callerID != id {
		return nil, ErrForbidden
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if fullName = strings.TrimSpace(fullName); fullName != "" {
		u.FullName = fullName
	}
	if specialty != nil && u.IsDoctor() {
		u.Specialty = specialty
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("updating user: %w", err)
	}
	return u, nil
}

func (s *Service) checkLicense(ctx context.Context, license string) error {
	rec, err := s.licenses.Get(ctx, license)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrLicenseInvalid
		}
		return fmt.Errorf("checking license: %w", err)
	}
	if !rec.Active {
		return ErrLicenseInvalid
	}
	return nil
}

// Get returns the user with the given ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

// ListDoctors returns doctor accounts, optionally filtered by specialty.
func (s *Service) ListDoctors(ctx context.Context, specialty string, limit, offset int) ([]*User, int, error) {
	return s.users.ListDoctors(ctx, specialty, limit, offset)
}

// VerifyLicense looks up a license number in the professional registry.
func (s *Service) VerifyLicense(ctx context.Context, license string) (*LicenseRecord, error) {
	rec, err := s.licenses.Get(ctx, license)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLicenseInvalid
		}
		return nil, err
	}
	return rec, nil
}
