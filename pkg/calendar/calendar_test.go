package calendar

import (
	"errors"
	"testing"
	"time"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		wantCount int
	}{
		{name: "single day", start: "2024-06-03", end: "2024-06-03", wantCount: 1},
		{name: "two days", start: "2024-06-03", end: "2024-06-04", wantCount: 2},
		{name: "week", start: "2024-06-03", end: "2024-06-09", wantCount: 7},
		{name: "month boundary", start: "2024-06-28", end: "2024-07-02", wantCount: 5},
		{name: "leap february", start: "2024-02-27", end: "2024-03-01", wantCount: 4},
		{name: "year boundary", start: "2023-12-30", end: "2024-01-02", wantCount: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start := mustDate(t, tt.start)
			end := mustDate(t, tt.end)

			got, err := DaysBetween(start, end)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Fatalf("expected %d days, got %d", tt.wantCount, len(got))
			}

			for i, d := range got {
				want := AddDays(start, i)
				if !IsSameDay(d, want) {
					t.Errorf("day %d: expected %s, got %s", i, FormatDate(want), FormatDate(d))
				}
			}
		})
	}
}

func TestDaysBetween_EndBeforeStart(t *testing.T) {
	_, err := DaysBetween(mustDate(t, "2024-06-04"), mustDate(t, "2024-06-03"))
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestDaysBetween_IgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2024, 6, 3, 23, 59, 0, 0, time.Local)
	end := time.Date(2024, 6, 4, 0, 1, 0, 0, time.Local)

	got, err := DaysBetween(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 days, got %d", len(got))
	}
}

func TestAddMonths_ClampsToShorterMonth(t *testing.T) {
	tests := []struct {
		name  string
		start string
		n     int
		want  string
	}{
		{name: "jan 31 to leap feb", start: "2024-01-31", n: 1, want: "2024-02-29"},
		{name: "jan 31 to non-leap feb", start: "2023-01-31", n: 1, want: "2023-02-28"},
		{name: "may 31 to june", start: "2024-05-31", n: 1, want: "2024-06-30"},
		{name: "no clamp needed", start: "2024-06-15", n: 1, want: "2024-07-15"},
		{name: "backward across year", start: "2024-01-15", n: -2, want: "2023-11-15"},
		{name: "backward with clamp", start: "2024-03-31", n: -1, want: "2024-02-29"},
		{name: "twelve months", start: "2024-02-29", n: 12, want: "2025-02-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddMonths(mustDate(t, tt.start), tt.n)
			if FormatDate(got) != tt.want {
				t.Errorf("AddMonths(%s, %d) = %s, want %s", tt.start, tt.n, FormatDate(got), tt.want)
			}
		})
	}
}

func TestAddDays_Negative(t *testing.T) {
	got := AddDays(mustDate(t, "2024-03-01"), -1)
	if FormatDate(got) != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", FormatDate(got))
	}
}

func TestFormatting_Stable(t *testing.T) {
	d := mustDate(t, "2024-06-03") // a Monday

	if got := FormatShort(d); got != "6/3" {
		t.Errorf("FormatShort = %q, want %q", got, "6/3")
	}
	if got := FormatDay(d); got != "June 3" {
		t.Errorf("FormatDay = %q, want %q", got, "June 3")
	}
	if got := FormatFull(d); got != "Monday, June 3" {
		t.Errorf("FormatFull = %q, want %q", got, "Monday, June 3")
	}

	// Referential stability: repeated calls produce identical output.
	if FormatFull(d) != FormatFull(d) {
		t.Error("FormatFull is not stable")
	}
}

func TestParseDate_RoundTrip(t *testing.T) {
	for _, s := range []string{"2024-06-03", "2024-12-31", "2023-01-01"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", s, err)
		}
		if got := FormatDate(d); got != s {
			t.Errorf("round trip of %q produced %q", s, got)
		}
	}

	if _, err := ParseDate("06/03/2024"); err == nil {
		t.Error("expected error for non-ISO input")
	}
}

func TestIsSameDay(t *testing.T) {
	morning := time.Date(2024, 6, 3, 8, 0, 0, 0, time.Local)
	evening := time.Date(2024, 6, 3, 22, 30, 0, 0, time.Local)
	nextDay := time.Date(2024, 6, 4, 0, 0, 0, 0, time.Local)

	if !IsSameDay(morning, evening) {
		t.Error("expected same day for different times of day")
	}
	if IsSameDay(evening, nextDay) {
		t.Error("expected different days")
	}
}

func TestWeekBoundaries(t *testing.T) {
	wednesday := mustDate(t, "2024-06-05")

	if got := StartOfWeek(wednesday); FormatDate(got) != "2024-06-02" {
		t.Errorf("StartOfWeek = %s, want 2024-06-02", FormatDate(got))
	}
	if got := EndOfWeek(wednesday); FormatDate(got) != "2024-06-08" {
		t.Errorf("EndOfWeek = %s, want 2024-06-08", FormatDate(got))
	}

	sunday := mustDate(t, "2024-06-02")
	if got := StartOfWeek(sunday); !IsSameDay(got, sunday) {
		t.Errorf("StartOfWeek of a Sunday should be itself, got %s", FormatDate(got))
	}
}

func TestMonthGrid(t *testing.T) {
	grid := MonthGrid(mustDate(t, "2024-06-15"))

	// June 2024 starts on a Saturday and ends on a Sunday: six weeks.
	if len(grid) != 6 {
		t.Fatalf("expected 6 weeks, got %d", len(grid))
	}
	for i, week := range grid {
		if len(week) != 7 {
			t.Fatalf("week %d has %d days", i, len(week))
		}
		if week[0].Weekday() != time.Sunday {
			t.Errorf("week %d does not start on Sunday", i)
		}
	}

	first := grid[0][0]
	if FormatDate(first) != "2024-05-26" {
		t.Errorf("grid starts at %s, want 2024-05-26", FormatDate(first))
	}
	last := grid[len(grid)-1][6]
	if FormatDate(last) != "2024-07-06" {
		t.Errorf("grid ends at %s, want 2024-07-06", FormatDate(last))
	}
}
