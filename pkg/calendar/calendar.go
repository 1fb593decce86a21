// Package calendar provides pure date arithmetic over calendar days.
// All functions operate in the process-local timezone; cross-timezone
// normalization is deliberately out of scope, so the same wall-clock day is
// assumed for every participant.
package calendar

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRange is returned when a range's end precedes its start. Upstream
// validation is expected to prevent this on user input; seeing it from an
// internal call indicates a programming error.
var ErrInvalidRange = errors.New("calendar: end date before start date")

// DateLayout is the ISO day format used for persistence and slot keys.
// Its lexicographic order matches chronological order.
const DateLayout = "2006-01-02"

var months = [...]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

var days = [...]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DaysBetween returns every calendar day from start to end inclusive, in
// ascending order. Time-of-day components on the inputs are ignored.
func DaysBetween(start, end time.Time) ([]time.Time, error) {
	start = Truncate(start)
	end = Truncate(end)
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s .. %s", ErrInvalidRange, FormatDate(end), FormatDate(start))
	}

	var result []time.Time
	for d := start; !d.After(end); d = AddDays(d, 1) {
		result = append(result, d)
	}
	return result, nil
}

// AddDays shifts d by n calendar days. Negative n shifts backward.
func AddDays(d time.Time, n int) time.Time {
	return d.AddDate(0, 0, n)
}

// AddMonths shifts d by n calendar months. When the target month is shorter
// than d's day-of-month, the result clamps to the last day of the target
// month (Jan 31 + 1 month = Feb 29 or Feb 28) rather than rolling over into
// the following month.
func AddMonths(d time.Time, n int) time.Time {
	year, month, day := d.Date()
	first := time.Date(year, month, 1, 0, 0, 0, 0, d.Location()).AddDate(0, n, 0)
	if last := DaysInMonth(first); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, d.Location())
}

// DaysInMonth returns the number of days in d's month.
func DaysInMonth(d time.Time) int {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, d.Location()).Day()
}

func IsSameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Truncate drops the time-of-day component.
func Truncate(d time.Time) time.Time {
	year, month, day := d.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, d.Location())
}

// ParseDate parses an ISO "2006-01-02" day in the local timezone.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// FormatDate renders the ISO "2006-01-02" form of d.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// FormatShort renders "6/3" style month/day without zero padding.
func FormatShort(d time.Time) string {
	return fmt.Sprintf("%d/%d", int(d.Month()), d.Day())
}

// FormatDay renders "June 3". Locale-independent: the month names are fixed
// English strings, so the same input always produces the same output.
func FormatDay(d time.Time) string {
	return fmt.Sprintf("%s %d", months[d.Month()-1], d.Day())
}

// FormatFull renders "Monday, June 3".
func FormatFull(d time.Time) string {
	return fmt.Sprintf("%s, %s %d", days[d.Weekday()], months[d.Month()-1], d.Day())
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, d.Location())
}

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), DaysInMonth(d), 0, 0, 0, 0, d.Location())
}

// StartOfWeek returns the Sunday on or before d.
func StartOfWeek(d time.Time) time.Time {
	return AddDays(Truncate(d), -int(d.Weekday()))
}

// EndOfWeek returns the Saturday on or after d.
func EndOfWeek(d time.Time) time.Time {
	return AddDays(Truncate(d), 6-int(d.Weekday()))
}

// MonthGrid returns the weeks covering d's month, Sunday-first, each week
// exactly seven days. Leading and trailing days from adjacent months are
// included so every week is full; used for calendar-picker navigation.
func MonthGrid(d time.Time) [][]time.Time {
	start := StartOfWeek(StartOfMonth(d))
	end := EndOfWeek(EndOfMonth(d))

	var weeks [][]time.Time
	for cur := start; !cur.After(end); {
		week := make([]time.Time, 0, 7)
		for i := 0; i < 7; i++ {
			week = append(week, cur)
			cur = AddDays(cur, 1)
		}
		weeks = append(weeks, week)
	}
	return weeks
}
