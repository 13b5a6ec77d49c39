package directory

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of account the service knows about.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User maps to the users table. Doctors additionally carry a specialty
// and a license number verified against the professional registry.
type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      Role      `db:"role" json:"role"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	License   *string   `db:"license" json:"license,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IsDoctor reports whether the user holds the doctor role.
func (u *User) IsDoctor() bool { return u.Role == RoleDoctor }

// IsPatient reports whether the user holds the patient role.
func (u *User) IsPatient() bool { return u.Role == RolePatient }

// LicenseRecord maps to the license_registry table, the mock professional
// registry that doctor licenses are verified against.
type LicenseRecord struct {
	License    string    `db:"license" json:"license"`
	HolderName string    `db:"holder_name" json:"holder_name"`
	Active     bool      `db:"active" json:"active"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
