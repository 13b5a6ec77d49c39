package booking

import "errors"

var (
	// ErrInvalid covers malformed or missing booking input. Callers wrap it
	// with detail via fmt.Errorf("%w: ...", ErrInvalid).
	ErrInvalid = errors.New("invalid request")

	// ErrNotFound covers unknown appointment, doctor and clinic IDs.
	ErrNotFound = errors.New("not found")

	// ErrForbidden covers role and ownership failures.
	ErrForbidden = errors.New("not allowed")

	// ErrSlotTaken means an occupying appointment already holds the
	// requested (doctor, date, time) slot.
	ErrSlotTaken = errors.New("slot already taken")

	// ErrQuotaExceeded means the patient reached the active appointment cap.
	ErrQuotaExceeded = errors.New("active appointment limit reached")

	// ErrNoHours means no operating hours are configured for the target.
	ErrNoHours = errors.New("no operating hours configured")

	// ErrBadTransition means the appointment status does not admit the
	// requested transition.
	ErrBadTransition = errors.New("invalid status transition")
)
