package dateutil

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		n        int
		expected time.Time
	}{
		{name: "simple", start: date(2024, 6, 1), n: 3, expected: date(2024, 6, 4)},
		{name: "month rollover", start: date(2024, 6, 28), n: 5, expected: date(2024, 7, 3)},
		{name: "year rollover", start: date(2024, 12, 30), n: 3, expected: date(2025, 1, 2)},
		{name: "leap year", start: date(2024, 2, 27), n: 3, expected: date(2024, 3, 1)},
		{name: "non leap year", start: date(2023, 2, 27), n: 3, expected: date(2023, 3, 2)},
		{name: "century non leap", start: date(1900, 2, 27), n: 2, expected: date(1900, 3, 1)},
		{name: "negative", start: date(2024, 3, 1), n: -1, expected: date(2024, 2, 29)},
		{name: "zero", start: date(2024, 6, 1), n: 0, expected: date(2024, 6, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AddDays(tt.start, tt.n)
			if !got.Equal(tt.expected) {
				t.Fatalf("AddDays(%v, %d) = %v, want %v", tt.start, tt.n, got, tt.expected)
			}
		})
	}
}

func TestAddDaysNormalizesTime(t *testing.T) {
	noisy := time.Date(2024, 6, 1, 23, 59, 58, 0, time.FixedZone("X", 3600))
	got := AddDays(noisy, 1)
	if !got.Equal(date(2024, 6, 2)) {
		t.Fatalf("expected normalized 2024-06-02, got %v", got)
	}
	if got.Hour() != 0 || got.Location() != time.UTC {
		t.Fatalf("expected midnight UTC, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		name     string
		a, b     time.Time
		expected int
	}{
		{name: "forward", a: date(2024, 6, 1), b: date(2024, 6, 4), expected: 3},
		{name: "backward", a: date(2024, 6, 4), b: date(2024, 6, 1), expected: -3},
		{name: "same day", a: date(2024, 6, 1), b: date(2024, 6, 1), expected: 0},
		{name: "across leap day", a: date(2024, 2, 28), b: date(2024, 3, 1), expected: 2},
		{name: "across year", a: date(2023, 12, 31), b: date(2024, 1, 2), expected: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.a, tt.b); got != tt.expected {
				t.Fatalf("DaysBetween(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.expected)
			}
		})
	}
}

func TestSeasonForDate(t *testing.T) {
	tests := []struct {
		month    time.Month
		expected Season
	}{
		{time.January, SeasonWinter},
		{time.February, SeasonWinter},
		{time.March, SeasonSpring},
		{time.May, SeasonSpring},
		{time.June, SeasonSummer},
		{time.August, SeasonSummer},
		{time.September, SeasonFall},
		{time.November, SeasonFall},
		{time.December, SeasonWinter},
	}

	for _, tt := range tests {
		got := SeasonForDate(date(2024, tt.month, 15))
		if got != tt.expected {
			t.Fatalf("month %v: expected %s, got %s", tt.month, tt.expected, got)
		}
	}
}

func TestNextSeason(t *testing.T) {
	order := []Season{SeasonSpring, SeasonSummer, SeasonFall, SeasonWinter, SeasonSpring}
	for i := 0; i < len(order)-1; i++ {
		if got := NextSeason(order[i]); got != order[i+1] {
			t.Fatalf("NextSeason(%s) = %s, want %s", order[i], got, order[i+1])
		}
	}
}
