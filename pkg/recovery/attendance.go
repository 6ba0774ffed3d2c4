package recovery

import (
	"sort"
	"time"

	"github.com/stillpath/recovery-engine/pkg/clock"
)

// ComputeAttendance derives the meeting-attendance snapshot. The streak
// is the maximal run of consecutive local calendar days, each with at
// least one meeting, ending today or yesterday. The yesterday grace day
// keeps the streak alive for a user who has not yet logged today's
// meeting.
func ComputeAttendance(profile Profile, meetings []Meeting, now time.Time) AttendanceSnapshot {
	snap := AttendanceSnapshot{TotalMeetings: len(meetings)}
	if len(meetings) == 0 {
		return snap
	}

	loc := clock.ResolveLocation(profile.Timezone)

	// Bucket meetings into unique local calendar days, newest first.
	// Two meetings on one day count once toward continuity.
	uniq := make(map[string]time.Time, len(meetings))
	for _, m := range meetings {
		day := clock.StartOfDay(m.AttendedAt, loc)
		uniq[day.Format(clock.DateLayout)] = day
	}

	days := make([]time.Time, 0, len(uniq))
	for _, d := range uniq {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })

	today := clock.StartOfDay(now, loc)
	ongoing := clock.DaysBetween(days[0], today, loc) <= 1

	longest, run := 1, 1
	current := 0
	if ongoing {
		current = 1
		snap.StreakStart = days[0]
	}

	for i := 0; i < len(days)-1; i++ {
		if clock.DaysBetween(days[i+1], days[i], loc) == 1 {
			run++
			if run > longest {
				longest = run
			}
			if ongoing {
				current++
				snap.StreakStart = days[i+1]
			}
		} else {
			run = 1
			ongoing = false
		}
	}

	snap.CurrentStreak = current
	snap.LongestStreak = longest
	return snap
}
