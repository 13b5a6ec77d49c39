package directory

import (
	"context"

	"github.com/google/uuid"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
	ListDoctors(ctx context.Context, specialty string, limit, offset int) ([]*User, int, error)
}

type LicenseRepository interface {
	Get(ctx context.Context, license string) (*LicenseRecord, error)
}
