package milestone

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Store is the slice of the persistence collaborator the applier
// needs. pkg/store provides implementations.
type Store interface {
	InsertMilestone(ctx context.Context, rec Record) error
	DeleteMilestone(ctx context.Context, userID string, kind Kind, value int) error
}

// ApplyResult reports which of a plan's writes succeeded.
type ApplyResult struct {
	Inserted []Record
	Deleted  []Record
	Failed   int
}

// Apply executes a plan against the store one record at a time. A
// failed write is logged with its context and skipped; milestones are
// an enrichment, so one bad write must never block the rest of the
// batch or the caller's primary computation.
func Apply(ctx context.Context, store Store, plan Plan) ApplyResult {
	var res ApplyResult

	// Deletes run first: a plan may retract a stale record and insert
	// its corrected replacement for the same (kind, value).
	for _, rec := range plan.Delete {
		if err := store.DeleteMilestone(ctx, rec.UserID, rec.Kind, rec.Value); err != nil {
			logrus.Errorf("failed to delete %s milestone %d for user %s: %v", rec.Kind, rec.Value, rec.UserID, err)
			res.Failed++
			continue
		}
		logrus.Infof("milestone retracted: user %s %s %d no longer reachable", rec.UserID, rec.Kind, rec.Value)
		res.Deleted = append(res.Deleted, rec)
	}

	for _, rec := range plan.Insert {
		if err := store.InsertMilestone(ctx, rec); err != nil {
			logrus.Errorf("failed to insert %s milestone %d for user %s: %v", rec.Kind, rec.Value, rec.UserID, err)
			res.Failed++
			continue
		}
		logrus.Infof("milestone reached: user %s %s %d (achieved %s)",
			rec.UserID, rec.Kind, rec.Value, rec.AchievedAt.Format("2006-01-02"))
		res.Inserted = append(res.Inserted, rec)
	}

	return res
}
