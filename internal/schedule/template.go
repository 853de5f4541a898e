package schedule

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultSlotMinutes is the slot duration used when a range request does not
// specify one.
const DefaultSlotMinutes = 30

// GenerateTemplateRange produces contiguous fixed-duration entries covering
// [startTime, endTime) on one weekday. A trailing interval shorter than the
// duration is discarded. Returns nil when the range is empty, inverted, or
// malformed. Generated entries default to available, not a break.
func GenerateTemplateRange(practitionerID uuid.UUID, dayOfWeek int, startTime, endTime string, durationMinutes int) []SlotTemplateEntry {
	if durationMinutes <= 0 {
		durationMinutes = DefaultSlotMinutes
	}

	start, err := parseClock(startTime)
	if err != nil {
		return nil
	}
	end, err := parseClock(endTime)
	if err != nil {
		return nil
	}
	if start >= end {
		return nil
	}

	var out []SlotTemplateEntry
	for cur := start; cur+durationMinutes <= end; cur += durationMinutes {
		out = append(out, SlotTemplateEntry{
			ID:             uuid.New(),
			PractitionerID: practitionerID,
			DayOfWeek:      dayOfWeek,
			StartTime:      formatClock(cur),
			EndTime:        formatClock(cur + durationMinutes),
			Available:      true,
		})
	}
	return out
}

// MergeTemplateRange folds freshly generated entries into an existing
// template. Existing entries on the same weekday whose interval overlaps
// [startTime, endTime) are dropped first, then the generated entries are
// appended. Re-applying the same range with the same duration therefore
// reproduces the same slot set.
func MergeTemplateRange(existing, generated []SlotTemplateEntry, dayOfWeek int, startTime, endTime string) []SlotTemplateEntry {
	newStart, err := parseClock(startTime)
	if err != nil {
		return existing
	}
	newEnd, err := parseClock(endTime)
	if err != nil {
		return existing
	}

	out := make([]SlotTemplateEntry, 0, len(existing)+len(generated))
	for _, e := range existing {
		if e.DayOfWeek == dayOfWeek && overlaps(e, newStart, newEnd) {
			continue
		}
		out = append(out, e)
	}
	return append(out, generated...)
}

func overlaps(e SlotTemplateEntry, newStart, newEnd int) bool {
	start, err := parseClock(e.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(e.EndTime)
	if err != nil {
		return false
	}
	return end > newStart && start < newEnd
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
