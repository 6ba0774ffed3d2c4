// Package store defines the persistence collaborator contracts the
// engine computes against, plus in-memory and Redis implementations.
// Any key-value, document, or relational store satisfying these
// read/write shapes can back the engine.
package store

import (
	"context"
	"errors"

	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/recovery"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateMilestone indicates a milestone already exists for
	// the (user, kind, value) triple.
	ErrDuplicateMilestone = errors.New("milestone already exists")
)

// ProfileStore reads user profiles. Profiles are owned by the external
// profile system; the engine never writes them.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*recovery.Profile, error)
}

// SlipUpStore reads and writes slip-up events.
type SlipUpStore interface {
	ListSlipUps(ctx context.Context, userID string) ([]recovery.SlipUp, error)
	InsertSlipUp(ctx context.Context, rec recovery.SlipUp) error
	DeleteSlipUp(ctx context.Context, userID, id string) error
}

// MeetingStore reads and writes meeting attendance records.
type MeetingStore interface {
	ListMeetings(ctx context.Context, userID string) ([]recovery.Meeting, error)
	InsertMeeting(ctx context.Context, rec recovery.Meeting) error
	DeleteMeeting(ctx context.Context, userID, id string) error
}

// MilestoneStore reads and writes milestone records. The engine is the
// only writer; inserts and deletes always come from an applied
// reconciliation plan.
type MilestoneStore interface {
	ListMilestones(ctx context.Context, userID string, kind milestone.Kind) ([]milestone.Record, error)
	InsertMilestone(ctx context.Context, rec milestone.Record) error
	DeleteMilestone(ctx context.Context, userID string, kind milestone.Kind, value int) error
}

// TaskStore reads task completion events. Timeline input only.
type TaskStore interface {
	ListTaskCompletions(ctx context.Context, userID string) ([]recovery.TaskCompletion, error)
}

// Store is the full collaborator surface the engine is wired against.
type Store interface {
	ProfileStore
	SlipUpStore
	MeetingStore
	MilestoneStore
	TaskStore
}
