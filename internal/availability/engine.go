// Package availability computes the candidate start times for a service on a
// date. It is pure: every call works from the snapshot it is handed and
// mutates nothing, so callers may invoke it concurrently. The result is
// advisory; admission re-checks under the store's write guard.
package availability

import (
	"github.com/sal186/rouze-booking-agent/internal/domain"
)

// SlotStepMinutes is the fixed candidate granularity, independent of service
// duration and buffer.
const SlotStepMinutes = 30

type Input struct {
	Hours           domain.DayHours
	DurationMinutes int
	BufferMinutes   int
	// MaxBookingsPerDay is the hard daily cap. It is evaluated once against
	// len(Confirmed), not per slot.
	MaxBookingsPerDay int
	// Confirmed must contain only status=confirmed bookings for the date.
	Confirmed []domain.Booking
	// Busy holds external busy intervals overlaid on top of the stored
	// bookings. They block candidates as-is, without buffer.
	Busy []domain.Interval
}

// ComputeSlots returns the valid start times in ascending order. A disabled
// day, an exhausted daily cap, or a duration that exceeds the open window all
// yield an empty result, never an error. Past times are not filtered here;
// that policy belongs to the caller.
func ComputeSlots(in Input) []domain.TimeOfDay {
	if !in.Hours.Enabled || in.DurationMinutes <= 0 {
		return nil
	}
	if len(in.Confirmed) >= in.MaxBookingsPerDay {
		return nil
	}

	var slots []domain.TimeOfDay
	for start := in.Hours.OpenTime; start.Add(in.DurationMinutes) <= in.Hours.CloseTime; start = start.Add(SlotStepMinutes) {
		candidate := domain.Interval{Start: start, End: start.Add(in.DurationMinutes)}
		if conflicts(candidate, in) {
			continue
		}
		slots = append(slots, start)
	}
	return slots
}

func conflicts(candidate domain.Interval, in Input) bool {
	for i := range in.Confirmed {
		if candidate.Overlaps(in.Confirmed[i].Occupied(in.BufferMinutes)) {
			return true
		}
	}
	for _, busy := range in.Busy {
		if candidate.Overlaps(busy) {
			return true
		}
	}
	return false
}

// FormatSlots renders start times as zero-padded HH:MM strings.
func FormatSlots(slots []domain.TimeOfDay) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.String()
	}
	return out
}
