// Package engine is the host-facing facade over the streak, milestone,
// and timeline computations. Hosts call it with a consistent,
// already-fetched view of one user's records; concurrent recomputation
// for the same user must be serialized by the caller.
package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stillpath/recovery-engine/pkg/clock"
	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/recovery"
	"github.com/stillpath/recovery-engine/pkg/store"
	"github.com/stillpath/recovery-engine/pkg/timeline"
)

// Engine computes derived recovery state and owns milestone writes.
// All other records are written by their owning systems.
type Engine struct {
	store      store.Store
	clock      clock.Clock
	thresholds milestone.Config
	metrics    *Metrics
}

// Options configures optional engine collaborators. The zero value is
// valid: real-time clock, built-in threshold tables, no metrics.
type Options struct {
	Clock      clock.Clock
	Thresholds *milestone.Config
	Metrics    *Metrics
}

// New creates an engine over the given store.
func New(s store.Store, opts Options) *Engine {
	thresholds := milestone.Defaults()
	if opts.Thresholds != nil {
		thresholds = *opts.Thresholds
	}

	return &Engine{
		store:      s,
		clock:      opts.Clock,
		thresholds: thresholds,
		metrics:    opts.Metrics,
	}
}

// Snapshot computes the sobriety streak snapshot for a user. A nil
// snapshot with nil error means the profile has no sobriety date yet.
func (e *Engine) Snapshot(ctx context.Context, userID string) (*recovery.StreakSnapshot, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	slipUps, err := e.store.ListSlipUps(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list slip-ups for %s: %w", userID, err)
	}

	return recovery.ComputeStreak(*profile, slipUps, e.clock.Now()), nil
}

// Attendance computes the meeting-attendance snapshot for a user.
func (e *Engine) Attendance(ctx context.Context, userID string) (recovery.AttendanceSnapshot, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return recovery.AttendanceSnapshot{}, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	meetings, err := e.store.ListMeetings(ctx, userID)
	if err != nil {
		return recovery.AttendanceSnapshot{}, fmt.Errorf("failed to list meetings for %s: %w", userID, err)
	}

	return recovery.ComputeAttendance(*profile, meetings, e.clock.Now()), nil
}

// SlipUpInput is the host's request to log a relapse.
type SlipUpInput struct {
	UserID              string
	SlipUpDate          string // YYYY-MM-DD
	RecoveryRestartDate string // YYYY-MM-DD
	Notes               string
}

// LogSlipUp validates and persists a slip-up, then reconciles the
// user's milestones against the shortened streak. The restart date
// must not be in the future relative to the (possibly time-traveled)
// clock. Notifying sponsors is the caller's responsibility.
func (e *Engine) LogSlipUp(ctx context.Context, in SlipUpInput) (*recovery.SlipUp, error) {
	if in.UserID == "" {
		return nil, ErrMissingUserID
	}

	profile, err := e.store.GetProfile(ctx, in.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", in.UserID, err)
	}
	loc := clock.ResolveLocation(profile.Timezone)

	if _, err := clock.ParseDateInLocation(in.SlipUpDate, loc); err != nil {
		return nil, fmt.Errorf("slip-up date %q: %w", in.SlipUpDate, ErrInvalidDate)
	}

	restart, err := clock.ParseDateInLocation(in.RecoveryRestartDate, loc)
	if err != nil {
		return nil, fmt.Errorf("recovery restart date %q: %w", in.RecoveryRestartDate, ErrInvalidDate)
	}

	now := e.clock.Now()
	if restart.After(clock.StartOfDay(now, loc)) {
		return nil, fmt.Errorf("recovery restart date %s: %w", in.RecoveryRestartDate, ErrFutureDate)
	}

	rec := recovery.SlipUp{
		ID:                  uuid.NewString(),
		UserID:              in.UserID,
		SlipUpDate:          in.SlipUpDate,
		RecoveryRestartDate: in.RecoveryRestartDate,
		Notes:               in.Notes,
		CreatedAt:           now,
	}
	if err := e.store.InsertSlipUp(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert slip-up: %w", err)
	}

	logrus.Infof("slip-up logged for user %s, streak restarts at %s", in.UserID, in.RecoveryRestartDate)
	e.reconcileQuietly(ctx, in.UserID)
	return &rec, nil
}

// DeleteSlipUp removes a slip-up and reconciles milestones; deleting
// the most recent slip-up reverts the streak anchor, which can both
// re-earn earlier milestones and retract ones earned only under the
// deleted restart.
func (e *Engine) DeleteSlipUp(ctx context.Context, userID, id string) error {
	if err := e.store.DeleteSlipUp(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete slip-up %s: %w", id, err)
	}

	logrus.Infof("slip-up %s deleted for user %s", id, userID)
	e.reconcileQuietly(ctx, userID)
	return nil
}

// MeetingInput is the host's request to log an attended meeting.
type MeetingInput struct {
	UserID      string
	MeetingName string
	AttendedAt  time.Time
	Location    string
	Notes       string
}

// LogMeeting validates and persists a meeting attendance record, then
// reconciles meeting milestones.
func (e *Engine) LogMeeting(ctx context.Context, in MeetingInput) (*recovery.Meeting, error) {
	if in.UserID == "" {
		return nil, ErrMissingUserID
	}

	now := e.clock.Now()
	if in.AttendedAt.After(now) {
		return nil, fmt.Errorf("meeting time %s: %w", in.AttendedAt.Format(time.RFC3339), ErrFutureDate)
	}

	rec := recovery.Meeting{
		ID:          uuid.NewString(),
		UserID:      in.UserID,
		MeetingName: in.MeetingName,
		AttendedAt:  in.AttendedAt,
		Location:    in.Location,
		Notes:       in.Notes,
	}
	if err := e.store.InsertMeeting(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to insert meeting: %w", err)
	}

	e.reconcileQuietly(ctx, in.UserID)
	return &rec, nil
}

// DeleteMeeting removes a meeting record and reconciles meeting
// milestones against the recomputed attendance.
func (e *Engine) DeleteMeeting(ctx context.Context, userID, id string) error {
	if err := e.store.DeleteMeeting(ctx, userID, id); err != nil {
		return fmt.Errorf("failed to delete meeting %s: %w", id, err)
	}

	e.reconcileQuietly(ctx, userID)
	return nil
}

// ReconcileSummary reports one reconciliation pass across all kinds.
type ReconcileSummary struct {
	Inserted []milestone.Record
	Deleted  []milestone.Record
	Failures int
}

// reconcileQuietly runs reconciliation after a mutation. Milestones
// are an enrichment; a failed pass never fails the mutation that
// triggered it.
func (e *Engine) reconcileQuietly(ctx context.Context, userID string) {
	if _, err := e.Reconcile(ctx, userID); err != nil {
		logrus.Errorf("milestone reconciliation failed for user %s: %v", userID, err)
	}
}

// Reconcile recomputes the user's streaks and brings the persisted
// milestone set in line with them: thresholds newly crossed are
// inserted, and current-era records invalidated by a retroactive edit
// are deleted. Records from prior streak eras stay in history. A
// failed read for one kind skips that kind and continues; individual
// write failures are logged, counted, and skipped.
func (e *Engine) Reconcile(ctx context.Context, userID string) (ReconcileSummary, error) {
	var summary ReconcileSummary

	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return summary, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	if e.metrics != nil {
		e.metrics.ReconcileRuns.Inc()
	}

	loc := clock.ResolveLocation(profile.Timezone)
	now := e.clock.Now()

	e.reconcileSobriety(ctx, *profile, loc, now, &summary)
	e.reconcileMeetings(ctx, *profile, loc, now, &summary)

	return summary, nil
}

func (e *Engine) reconcileSobriety(ctx context.Context, profile recovery.Profile, loc *time.Location, now time.Time, summary *ReconcileSummary) {
	slipUps, err := e.store.ListSlipUps(ctx, profile.ID)
	if err != nil {
		logrus.Errorf("skipping sobriety reconciliation for %s: %v", profile.ID, err)
		return
	}

	snap := recovery.ComputeStreak(profile, slipUps, now)
	if snap == nil {
		return
	}

	progress := clock.DaysBetween(snap.StreakStart, now, loc)
	if progress < 0 {
		progress = 0
	}

	// Every anchor still documented in the event log: the journey
	// start plus each surviving slip-up's restart date. Records earned
	// under an anchor missing from this set lost their era to a
	// deleted slip-up and get retracted.
	anchors := []time.Time{snap.JourneyStart}
	for _, s := range slipUps {
		restart, err := clock.ParseDateInLocation(s.RecoveryRestartDate, loc)
		if err != nil {
			continue
		}
		anchors = append(anchors, restart)
	}

	e.reconcileKind(ctx, milestone.Input{
		UserID:             profile.ID,
		Kind:               milestone.KindSobriety,
		Thresholds:         e.thresholds.Sobriety,
		Progress:           progress,
		Anchor:             snap.StreakStart,
		ValidAnchors:       anchors,
		RequireKnownAnchor: true,
		AchievedAt:         func(v int) time.Time { return snap.StreakStart.AddDate(0, 0, v) },
		ImpliedAnchor: func(rec milestone.Record) time.Time {
			return clock.StartOfDay(rec.AchievedAt, loc).AddDate(0, 0, -rec.Value)
		},
	}, summary)
}

func (e *Engine) reconcileMeetings(ctx context.Context, profile recovery.Profile, loc *time.Location, now time.Time, summary *ReconcileSummary) {
	meetings, err := e.store.ListMeetings(ctx, profile.ID)
	if err != nil {
		logrus.Errorf("skipping meeting reconciliation for %s: %v", profile.ID, err)
		return
	}

	att := recovery.ComputeAttendance(profile, meetings, now)

	// Total-count milestones have no eras; a zero anchor reconciles
	// every record, so deleting meetings retracts count milestones the
	// remaining total no longer supports.
	sorted := append([]recovery.Meeting(nil), meetings...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].AttendedAt.Before(sorted[j].AttendedAt) })

	e.reconcileKind(ctx, milestone.Input{
		UserID:     profile.ID,
		Kind:       milestone.KindMeetingCount,
		Thresholds: e.thresholds.MeetingCount,
		Progress:   att.TotalMeetings,
		AchievedAt: func(n int) time.Time { return clock.StartOfDay(sorted[n-1].AttendedAt, loc) },
	}, summary)

	// Streak milestones reconcile only while a streak is running; a
	// broken streak's milestones stay in history like a prior sobriety
	// era's do.
	if att.CurrentStreak > 0 {
		e.reconcileKind(ctx, milestone.Input{
			UserID:     profile.ID,
			Kind:       milestone.KindMeetingStreak,
			Thresholds: e.thresholds.MeetingStreak,
			Progress:   att.CurrentStreak,
			Anchor:     att.StreakStart,
			AchievedAt: func(v int) time.Time { return att.StreakStart.AddDate(0, 0, v-1) },
			ImpliedAnchor: func(rec milestone.Record) time.Time {
				return clock.StartOfDay(rec.AchievedAt, loc).AddDate(0, 0, -(rec.Value - 1))
			},
		}, summary)
	}
}

func (e *Engine) reconcileKind(ctx context.Context, in milestone.Input, summary *ReconcileSummary) {
	existing, err := e.store.ListMilestones(ctx, in.UserID, in.Kind)
	if err != nil {
		logrus.Errorf("skipping %s reconciliation for %s: %v", in.Kind, in.UserID, err)
		return
	}
	in.Existing = existing

	plan := milestone.Reconcile(in)
	if plan.Empty() {
		return
	}

	res := milestone.Apply(ctx, e.store, plan)
	summary.Inserted = append(summary.Inserted, res.Inserted...)
	summary.Deleted = append(summary.Deleted, res.Deleted...)
	summary.Failures += res.Failed

	if e.metrics != nil {
		e.metrics.MilestonesInserted.WithLabelValues(string(in.Kind)).Add(float64(len(res.Inserted)))
		e.metrics.MilestonesDeleted.WithLabelValues(string(in.Kind)).Add(float64(len(res.Deleted)))
		e.metrics.MilestoneFailures.Add(float64(res.Failed))
	}
}

// Timeline composes the user's life events, most recent first, with
// the journey-began entry pinned to the end. A failed read of one
// enrichment source logs and composes without it.
func (e *Engine) Timeline(ctx context.Context, userID string) ([]timeline.Entry, error) {
	profile, err := e.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile for %s: %w", userID, err)
	}

	slipUps, err := e.store.ListSlipUps(ctx, userID)
	if err != nil {
		logrus.Warnf("timeline for %s composed without slip-ups: %v", userID, err)
	}

	meetings, err := e.store.ListMeetings(ctx, userID)
	if err != nil {
		logrus.Warnf("timeline for %s composed without meetings: %v", userID, err)
	}

	tasks, err := e.store.ListTaskCompletions(ctx, userID)
	if err != nil {
		logrus.Warnf("timeline for %s composed without task completions: %v", userID, err)
	}

	var milestones []milestone.Record
	for _, kind := range []milestone.Kind{milestone.KindSobriety, milestone.KindMeetingCount, milestone.KindMeetingStreak} {
		recs, err := e.store.ListMilestones(ctx, userID, kind)
		if err != nil {
			logrus.Warnf("timeline for %s composed without %s milestones: %v", userID, kind, err)
			continue
		}
		milestones = append(milestones, recs...)
	}

	return timeline.Compose(*profile, slipUps, milestones, meetings, tasks), nil
}
