package service

import "time"

// DefaultEventDuration is the assumed length of an open-ended event when
// deciding whether two time ranges collide.
const DefaultEventDuration = 2 * time.Hour

// effectiveEnd substitutes the default duration for a missing end time.
func effectiveEnd(start time.Time, end *time.Time) time.Time {
	if end != nil {
		return *end
	}
	return start.Add(DefaultEventDuration)
}

// Overlaps reports whether two half-open time ranges [start, end)
// intersect. Touching endpoints (one event ending exactly when another
// starts) do not count as a conflict. A nil end time is treated as
// start plus DefaultEventDuration.
func Overlaps(start1 time.Time, end1 *time.Time, start2 time.Time, end2 *time.Time) bool {
	return start1.Before(effectiveEnd(start2, end2)) && start2.Before(effectiveEnd(start1, end1))
}
