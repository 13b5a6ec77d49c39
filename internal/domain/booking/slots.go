package booking

import (
	"time"

	"github.com/clinicbook/clinicbook/pkg/timeofday"
)

// GenerateSlots returns the candidate appointment start times between open
// and close, stepping by every. Slots are half-open: a slot starting at
// close itself is never emitted. A missing bound means no hours are
// configured and yields an empty sequence rather than an error.
func GenerateSlots(open, close *timeofday.TimeOfDay, every time.Duration) []timeofday.TimeOfDay {
	if open == nil || close == nil || every <= 0 {
		return nil
	}
	var slots []timeofday.TimeOfDay
	for cur := *open; cur.Before(*close); cur = cur.Add(every) {
		slots = append(slots, cur)
	}
	return slots
}

// AvailableSlots removes occupied start times from the candidate slots,
// preserving order.
func AvailableSlots(slots, occupied []timeofday.TimeOfDay) []timeofday.TimeOfDay {
	taken := make(map[timeofday.TimeOfDay]bool, len(occupied))
	for _, t := range occupied {
		taken[t] = true
	}
	available := make([]timeofday.TimeOfDay, 0, len(slots))
	for _, s := range slots {
		if !taken[s] {
			available = append(available, s)
		}
	}
	return available
}
