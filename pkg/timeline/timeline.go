// Package timeline merges heterogeneous dated recovery events into a
// single display-ready sequence, most recent first.
package timeline

import (
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stillpath/recovery-engine/pkg/clock"
	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/recovery"
)

// Kind identifies the source of a timeline entry.
type Kind string

const (
	KindJourneyStart   Kind = "journey_start"
	KindSlipUp         Kind = "slip_up"
	KindMilestone      Kind = "milestone"
	KindTaskCompletion Kind = "task_completion"
	KindMeeting        Kind = "meeting"
)

// kindPriority breaks ties between entries on the same instant so the
// rendered order is stable across recomputation. Higher sorts first.
var kindPriority = map[Kind]int{
	KindMilestone:      4,
	KindSlipUp:         3,
	KindTaskCompletion: 2,
	KindMeeting:        1,
}

// Entry is one row of the composed timeline. Payload carries the
// source record for rendering.
type Entry struct {
	Date    time.Time   `json:"date"`
	Kind    Kind        `json:"kind"`
	Title   string      `json:"title"`
	Payload interface{} `json:"payload,omitempty"`
}

// Compose maps slip-ups, milestones, meetings, and task completions
// into one reverse-chronological sequence. The synthetic journey-began
// entry is pinned to the end of the list, never sorted, so it
// terminates the timeline even when other entries carry skewed or
// malformed timestamps. Input validity is the store layer's concern;
// Compose only maps and sorts.
func Compose(profile recovery.Profile, slipUps []recovery.SlipUp, milestones []milestone.Record, meetings []recovery.Meeting, tasks []recovery.TaskCompletion) []Entry {
	loc := clock.ResolveLocation(profile.Timezone)

	entries := make([]Entry, 0, len(slipUps)+len(milestones)+len(meetings)+len(tasks)+1)

	for _, s := range slipUps {
		date, err := clock.ParseDateInLocation(s.SlipUpDate, loc)
		if err != nil {
			logrus.Warnf("timeline: skipping slip-up %s with unparseable date %q", s.ID, s.SlipUpDate)
			continue
		}
		entries = append(entries, Entry{Date: date, Kind: KindSlipUp, Title: "Slip-up", Payload: s})
	}

	for _, m := range milestones {
		entries = append(entries, Entry{Date: m.AchievedAt, Kind: KindMilestone, Title: milestoneTitle(m), Payload: m})
	}

	for _, m := range meetings {
		entries = append(entries, Entry{Date: m.AttendedAt, Kind: KindMeeting, Title: m.MeetingName, Payload: m})
	}

	for _, t := range tasks {
		entries = append(entries, Entry{Date: t.CompletedAt, Kind: KindTaskCompletion, Title: t.Title, Payload: t})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return kindPriority[entries[i].Kind] > kindPriority[entries[j].Kind]
	})

	if profile.HasSobrietyDate() {
		start, err := clock.ParseDateInLocation(profile.SobrietyDate, loc)
		if err != nil {
			logrus.Warnf("timeline: unparseable sobriety date %q for user %s", profile.SobrietyDate, profile.ID)
		} else {
			entries = append(entries, Entry{Date: start, Kind: KindJourneyStart, Title: "Journey began"})
		}
	}

	return entries
}

func milestoneTitle(m milestone.Record) string {
	switch m.Kind {
	case milestone.KindMeetingCount:
		return "Meeting milestone"
	case milestone.KindMeetingStreak:
		return "Meeting streak milestone"
	default:
		return "Sobriety milestone"
	}
}
