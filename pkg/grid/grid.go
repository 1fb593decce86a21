// Package grid derives the scheduling grid for a schedule: the ordered day
// sequence, the ordered time-of-day sequence, and the slot keys identifying
// each cell. Every client derives the identical grid from the schedule's
// fields alone; keys are never stored.
package grid

import (
	"fmt"
	"strings"
	"time"

	"slotsync/pkg/calendar"
	"slotsync/pkg/model"
)

// TimeLayout is the zero-padded 24-hour time-of-day format used in slot keys.
const TimeLayout = "15:04"

const keySeparator = "_"

// Cell is one grid cell with its derived aggregate.
type Cell struct {
	Key       string          `json:"key"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Aggregate model.Aggregate `json:"aggregate"`
}

// Key builds the slot key for a (day, time-of-day) cell: "2006-01-02_15:04".
// Both components are zero-padded, so lexicographic key order matches
// chronological order.
func Key(day time.Time, timeOfDay string) string {
	return calendar.FormatDate(day) + keySeparator + timeOfDay
}

// ParseKey splits a slot key back into its day and time-of-day components,
// validating both. The round trip through Key is exact.
func ParseKey(key string) (time.Time, string, error) {
	datePart, timePart, ok := strings.Cut(key, keySeparator)
	if !ok {
		return time.Time{}, "", fmt.Errorf("malformed slot key: %q", key)
	}

	day, err := calendar.ParseDate(datePart)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed slot key date: %q", key)
	}

	tod, err := time.Parse(TimeLayout, timePart)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("malformed slot key time: %q", key)
	}
	if tod.Format(TimeLayout) != timePart {
		// Reject non-canonical forms like "9:00"; keys must be zero-padded.
		return time.Time{}, "", fmt.Errorf("slot key time not zero-padded: %q", key)
	}

	return day, timePart, nil
}

// Times returns the ordered time-of-day sequence for one day of the
// schedule. Slot starts advance in raw minutes from the day-start time,
// stepping by the slot duration; a slot is included only when the full
// duration fits before the day-end time. Durations that do not divide 60 or
// that cross an hour boundary are therefore generated correctly.
func Times(sc *model.Schedule) ([]string, error) {
	start, err := minutesOfDay(sc.DayStartTime)
	if err != nil {
		return nil, err
	}
	end, err := minutesOfDay(sc.DayEndTime)
	if err != nil {
		return nil, err
	}
	if sc.SlotDuration <= 0 {
		return nil, fmt.Errorf("slot duration must be positive, got %d", sc.SlotDuration)
	}

	var times []string
	for m := start; m+sc.SlotDuration <= end; m += sc.SlotDuration {
		times = append(times, fmt.Sprintf("%02d:%02d", m/60, m%60))
	}
	return times, nil
}

// Days returns the ordered day sequence of the schedule's inclusive date
// range.
func Days(sc *model.Schedule) ([]time.Time, error) {
	start, err := calendar.ParseDate(sc.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", sc.StartDate, err)
	}
	end, err := calendar.ParseDate(sc.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", sc.EndDate, err)
	}
	return calendar.DaysBetween(start, end)
}

// Cells returns every grid cell in order (day-major, then time), each
// annotated with its aggregate from the schedule's availability map.
func Cells(sc *model.Schedule) ([]Cell, error) {
	days, err := Days(sc)
	if err != nil {
		return nil, err
	}
	times, err := Times(sc)
	if err != nil {
		return nil, err
	}

	cells := make([]Cell, 0, len(days)*len(times))
	for _, day := range days {
		for _, tod := range times {
			key := Key(day, tod)
			cells = append(cells, Cell{
				Key:       key,
				Date:      calendar.FormatDate(day),
				Time:      tod,
				Aggregate: model.AggregateSlot(sc.Availability, key),
			})
		}
	}
	return cells, nil
}

// Contains reports whether key names a cell of the schedule's grid. Used at
// the toggle boundary so writes can never land outside the grid.
func Contains(sc *model.Schedule, key string) (bool, error) {
	day, tod, err := ParseKey(key)
	if err != nil {
		return false, err
	}

	days, err := Days(sc)
	if err != nil {
		return false, err
	}
	times, err := Times(sc)
	if err != nil {
		return false, err
	}

	dayOK := false
	for _, d := range days {
		if calendar.IsSameDay(d, day) {
			dayOK = true
			break
		}
	}
	if !dayOK {
		return false, nil
	}

	for _, t := range times {
		if t == tod {
			return true, nil
		}
	}
	return false, nil
}

func minutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse(TimeLayout, hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time of day %q: %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
