package clock

import (
	"testing"
	"time"
)

func TestResolveLocation(t *testing.T) {
	tests := []struct {
		name     string
		zone     string
		expected *time.Location
	}{
		{
			name:     "empty name falls back to device zone",
			zone:     "",
			expected: time.Local,
		},
		{
			name:     "valid IANA zone",
			zone:     "America/New_York",
			expected: mustLoad(t, "America/New_York"),
		},
		{
			name:     "unknown zone fails closed to UTC",
			zone:     "Not/AZone",
			expected: time.UTC,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveLocation(tt.zone)
			if got.String() != tt.expected.String() {
				t.Errorf("ResolveLocation(%q) = %v, expected %v", tt.zone, got, tt.expected)
			}
		})
	}
}

func TestParseDateInLocation(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	got, err := ParseDateInLocation("2024-01-15", ny)
	if err != nil {
		t.Fatalf("ParseDateInLocation() error = %v", err)
	}

	// Local midnight in New York, not UTC. Parsing at UTC midnight
	// would render as 2024-01-14 for users west of UTC.
	if got.Hour() != 0 || got.Location() != ny {
		t.Errorf("expected local midnight in New York, got %v", got)
	}
	if FormatDate(got, ny) != "2024-01-15" {
		t.Errorf("round trip = %s, expected 2024-01-15", FormatDate(got, ny))
	}
}

func TestParseDateInLocation_Invalid(t *testing.T) {
	if _, err := ParseDateInLocation("15/01/2024", time.UTC); err == nil {
		t.Error("expected error for non-ISO date")
	}
}

func TestDaysBetween(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	tests := []struct {
		name     string
		from     time.Time
		until    time.Time
		loc      *time.Location
		expected int
	}{
		{
			name:     "thirty days",
			from:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			until:    time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: 30,
		},
		{
			name:     "same day ignores clock time",
			from:     time.Date(2024, 1, 15, 1, 0, 0, 0, time.UTC),
			until:    time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: 0,
		},
		{
			name:     "negative when until precedes from",
			from:     time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			until:    time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
			loc:      time.UTC,
			expected: -5,
		},
		{
			name: "spring-forward DST transition still counts whole days",
			// 2024-03-10 is the US spring-forward date; the day is 23
			// hours long in New York.
			from:     time.Date(2024, 3, 9, 0, 0, 0, 0, ny),
			until:    time.Date(2024, 3, 11, 0, 0, 0, 0, ny),
			loc:      ny,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DaysBetween(tt.from, tt.until, tt.loc); got != tt.expected {
				t.Errorf("DaysBetween() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestClockTimeTravel(t *testing.T) {
	base := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		days     int
		expected time.Time
	}{
		{name: "no offset", days: 0, expected: base},
		{name: "forward ten days", days: 10, expected: base.AddDate(0, 0, 10)},
		{name: "backward three days", days: -3, expected: base.AddDate(0, 0, -3)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFixed(base, tt.days)
			if got := c.Now(); !got.Equal(tt.expected) {
				t.Errorf("Now() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestClockZeroValueIsRealTime(t *testing.T) {
	var c Clock
	before := time.Now()
	got := c.Now()
	after := time.Now()

	if got.Before(before) || got.After(after) {
		t.Errorf("zero-value clock returned %v outside [%v, %v]", got, before, after)
	}
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("failed to load location %s: %v", name, err)
	}
	return loc
}
