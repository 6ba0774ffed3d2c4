package milestone

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Input feeds one reconciliation pass for a single user and kind.
type Input struct {
	UserID     string
	Kind       Kind
	Thresholds []Threshold

	// Progress is the user's current position on this kind's scale:
	// days since the streak anchor, total meetings attended, or the
	// attendance streak length.
	Progress int

	// Anchor is the start of the current era, normalized to local
	// midnight. Zero for era-less kinds (meeting counts).
	Anchor time.Time

	// ValidAnchors lists every era anchor still present in the event
	// log (journey start plus each surviving slip-up's restart date).
	// A record whose implied anchor matches one of these is a prior
	// era's history and is kept. Ignored when RequireKnownAnchor is
	// false.
	ValidAnchors []time.Time

	// RequireKnownAnchor deletes records whose implied anchor matches
	// neither Anchor nor any ValidAnchors entry: their era was erased
	// by a retroactive edit (a deleted slip-up). When false, unknown
	// eras are kept as history.
	RequireKnownAnchor bool

	// AchievedAt maps a newly crossed threshold value to the date it
	// was crossed.
	AchievedAt func(value int) time.Time

	// ImpliedAnchor recovers the era anchor a record was earned under
	// (the inverse of AchievedAt). Nil for era-less kinds.
	ImpliedAnchor func(rec Record) time.Time

	// Existing holds the persisted records for this user and kind.
	Existing []Record
}

// Reconcile computes the insert and delete sets for one user and kind.
// It is pure and idempotent: a second pass over the state produced by
// applying its plan yields an empty plan.
//
// A record is deleted when it belongs to the current era and its value
// exceeds the recomputed progress, or when the era it was earned under
// no longer exists in the event log. Records from prior eras that are
// still documented by their slip-up stay untouched; they remain in
// history as a record of past achievement. A threshold is inserted
// when crossed (value <= progress) and no surviving record covers it;
// a deleted stale record may be re-inserted in the same plan with its
// corrected achievement date.
func Reconcile(in Input) Plan {
	var plan Plan

	surviving := make(map[int]bool, len(in.Existing))
	for _, rec := range in.Existing {
		if rec.Kind != in.Kind {
			continue
		}

		if keep := in.shouldKeep(rec); keep {
			surviving[rec.Value] = true
			continue
		}
		plan.Delete = append(plan.Delete, rec)
	}

	for _, th := range in.Thresholds {
		if th.Value > in.Progress {
			continue
		}
		if surviving[th.Value] {
			continue
		}
		plan.Insert = append(plan.Insert, Record{
			UserID:     in.UserID,
			Kind:       in.Kind,
			Value:      th.Value,
			AchievedAt: in.AchievedAt(th.Value),
		})
	}

	return plan
}

func (in Input) shouldKeep(rec Record) bool {
	// Era-less kinds reconcile on progress alone.
	if in.ImpliedAnchor == nil {
		return rec.Value <= in.Progress
	}

	implied := in.ImpliedAnchor(rec)

	if implied.Equal(in.Anchor) {
		// Current era: valid while the threshold stays crossed.
		return rec.Value <= in.Progress
	}

	for _, anchor := range in.ValidAnchors {
		if implied.Equal(anchor) {
			logrus.Debugf("keeping prior-era %s milestone %d for user %s (era %s)",
				rec.Kind, rec.Value, rec.UserID, implied.Format("2006-01-02"))
			return true
		}
	}

	if in.RequireKnownAnchor {
		// The era this record was earned under was erased by a
		// retroactive edit.
		return false
	}
	return true
}
