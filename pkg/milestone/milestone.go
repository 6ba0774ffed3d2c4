package milestone

import (
	"time"
)

// Kind categorizes a milestone record. One record may exist per
// (user, kind, value) triple.
type Kind string

const (
	// KindSobriety marks day-count milestones measured from the
	// current streak anchor.
	KindSobriety Kind = "sobriety"

	// KindMeetingCount marks total-attendance milestones (first
	// meeting, 5 meetings, ...).
	KindMeetingCount Kind = "meeting_count"

	// KindMeetingStreak marks consecutive-attendance-day milestones.
	KindMeetingStreak Kind = "meeting_streak"
)

// Record is a persisted achievement.
type Record struct {
	UserID     string    `json:"userId"`
	Kind       Kind      `json:"kind"`
	Value      int       `json:"value"` // threshold reached, e.g. 30 for "30 days"
	AchievedAt time.Time `json:"achievedAt"`
}

// Threshold defines one achievable value within a kind. Value is a day
// count for sobriety and meeting-streak kinds and a meeting count for
// the meeting-count kind.
type Threshold struct {
	Value int    `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

// Plan is the reconciler's output: records to create and records to
// remove. Both sets are disjoint by construction. The engine applies a
// plan against the store; the reconciler itself never writes.
type Plan struct {
	Insert []Record
	Delete []Record
}

// Empty reports whether the plan requires no store writes.
func (p Plan) Empty() bool {
	return len(p.Insert) == 0 && len(p.Delete) == 0
}
