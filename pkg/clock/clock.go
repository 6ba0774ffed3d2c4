package clock

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	// DateLayout is the storage format for bare calendar dates.
	DateLayout = "2006-01-02"
)

// Clock produces the engine's notion of "now". TravelDays shifts the
// current instant by whole days (positive or negative) so developer
// tooling and tests can simulate the passage of time without touching
// stored dates. The zero value is a real-time clock.
type Clock struct {
	// TravelDays offsets Now() by whole days. Must stay zero in
	// production builds; config validation enforces this.
	TravelDays int

	// nowFunc overrides the time source in tests.
	nowFunc func() time.Time
}

// New creates a clock with the given time-travel offset.
func New(travelDays int) Clock {
	return Clock{TravelDays: travelDays}
}

// NewFixed creates a clock pinned to a fixed instant, still honoring
// TravelDays. Used by tests.
func NewFixed(instant time.Time, travelDays int) Clock {
	return Clock{TravelDays: travelDays, nowFunc: func() time.Time { return instant }}
}

// Now returns the current instant shifted by the travel offset.
func (c Clock) Now() time.Time {
	now := time.Now()
	if c.nowFunc != nil {
		now = c.nowFunc()
	}
	if c.TravelDays != 0 {
		now = now.AddDate(0, 0, c.TravelDays)
	}
	return now
}

// ResolveLocation maps a profile's IANA zone name to a *time.Location.
// An empty name falls back to the device zone. An unknown name fails
// closed to UTC; timezone misconfiguration must never block the caller.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.Local
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		logrus.Warnf("unknown timezone %q, falling back to UTC: %v", name, err)
		return time.UTC
	}

	return loc
}

// ParseDateInLocation interprets a bare YYYY-MM-DD date at local
// midnight in loc, not UTC. Parsing at UTC midnight shifts the date
// back a day for users west of UTC.
func ParseDateInLocation(date string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, date, loc)
}

// FormatDate renders an instant as a YYYY-MM-DD date in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateLayout)
}

// StartOfDay truncates an instant to local midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// DaysBetween returns the number of whole local calendar days from
// from until until. The result is negative when until precedes from.
// Rounding absorbs the 23/25-hour days introduced by DST transitions.
func DaysBetween(from, until time.Time, loc *time.Location) int {
	a := StartOfDay(from, loc)
	b := StartOfDay(until, loc)
	return int(math.Round(b.Sub(a).Hours() / 24))
}
