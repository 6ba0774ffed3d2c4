package recovery

import (
	"time"
)

// Profile is the read-only per-user input owned by the external profile
// store. SobrietyDate is the immutable journey anchor; it is never
// rewritten by a restart.
type Profile struct {
	ID           string `json:"id"`
	SobrietyDate string `json:"sobrietyDate,omitempty"` // YYYY-MM-DD, empty = not yet configured
	Timezone     string `json:"timezone,omitempty"`     // IANA zone name, empty = device zone
}

// HasSobrietyDate reports whether the journey anchor has been set.
func (p Profile) HasSobrietyDate() bool {
	return p.SobrietyDate != ""
}

// SlipUp records a relapse and the date the user resumes counting from.
// Only the slip-up with the latest RecoveryRestartDate affects the
// current streak.
type SlipUp struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"userId"`
	SlipUpDate          string    `json:"slipUpDate"`          // YYYY-MM-DD, informational
	RecoveryRestartDate string    `json:"recoveryRestartDate"` // YYYY-MM-DD, the new streak anchor
	Notes               string    `json:"notes,omitempty"`
	CreatedAt           time.Time `json:"createdAt"`
}

// Meeting is one attended meeting. Multiple meetings on the same local
// calendar day count once toward streak continuity.
type Meeting struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	MeetingName string    `json:"meetingName"`
	AttendedAt  time.Time `json:"attendedAt"`
	Location    string    `json:"location,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

// TaskCompletion is consumed as timeline input only; the task system
// owns the record.
type TaskCompletion struct {
	TaskID      string    `json:"taskId"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title,omitempty"`
	CompletedAt time.Time `json:"completedAt"`
}

// StreakSnapshot is the derived sobriety state, recomputed on demand
// and never persisted.
type StreakSnapshot struct {
	DaysSober    int       `json:"daysSober"`
	JourneyStart time.Time `json:"journeyStart"` // always profile.SobrietyDate
	StreakStart  time.Time `json:"streakStart"`  // latest restart, or JourneyStart
	HasSlipUps   bool      `json:"hasSlipUps"`
}

// AttendanceSnapshot is the derived meeting-attendance state.
type AttendanceSnapshot struct {
	CurrentStreak int       `json:"currentStreak"` // consecutive attendance days ending today or yesterday
	LongestStreak int       `json:"longestStreak"`
	TotalMeetings int       `json:"totalMeetings"`
	StreakStart   time.Time `json:"streakStart"` // zero when CurrentStreak == 0
}
