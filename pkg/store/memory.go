package store

import (
	"context"
	"sync"

	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/recovery"
)

// Memory is an in-process Store for tests and embedded hosts.
type Memory struct {
	mu         sync.RWMutex
	profiles   map[string]recovery.Profile
	slipUps    map[string][]recovery.SlipUp
	meetings   map[string][]recovery.Meeting
	milestones map[string][]milestone.Record
	tasks      map[string][]recovery.TaskCompletion
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		profiles:   make(map[string]recovery.Profile),
		slipUps:    make(map[string][]recovery.SlipUp),
		meetings:   make(map[string][]recovery.Meeting),
		milestones: make(map[string][]milestone.Record),
		tasks:      make(map[string][]recovery.TaskCompletion),
	}
}

// PutProfile seeds a profile. Profiles are owned by the external
// profile system, so this is a test/host helper rather than part of
// the Store contract.
func (m *Memory) PutProfile(p recovery.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[p.ID] = p
}

// PutTaskCompletion seeds a task completion event.
func (m *Memory) PutTaskCompletion(t recovery.TaskCompletion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[t.UserID] = append(m.tasks[t.UserID], t)
}

func (m *Memory) GetProfile(ctx context.Context, userID string) (*recovery.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) ListSlipUps(ctx context.Context, userID string) ([]recovery.SlipUp, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]recovery.SlipUp(nil), m.slipUps[userID]...), nil
}

func (m *Memory) InsertSlipUp(ctx context.Context, rec recovery.SlipUp) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slipUps[rec.UserID] = append(m.slipUps[rec.UserID], rec)
	return nil
}

func (m *Memory) DeleteSlipUp(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.slipUps[userID]
	for i := range recs {
		if recs[i].ID == id {
			m.slipUps[userID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListMeetings(ctx context.Context, userID string) ([]recovery.Meeting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]recovery.Meeting(nil), m.meetings[userID]...), nil
}

func (m *Memory) InsertMeeting(ctx context.Context, rec recovery.Meeting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.meetings[rec.UserID] = append(m.meetings[rec.UserID], rec)
	return nil
}

func (m *Memory) DeleteMeeting(ctx context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.meetings[userID]
	for i := range recs {
		if recs[i].ID == id {
			m.meetings[userID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListMilestones(ctx context.Context, userID string, kind milestone.Kind) ([]milestone.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []milestone.Record
	for _, rec := range m.milestones[userID] {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *Memory) InsertMilestone(ctx context.Context, rec milestone.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.milestones[rec.UserID] {
		if existing.Kind == rec.Kind && existing.Value == rec.Value {
			return ErrDuplicateMilestone
		}
	}
	m.milestones[rec.UserID] = append(m.milestones[rec.UserID], rec)
	return nil
}

func (m *Memory) DeleteMilestone(ctx context.Context, userID string, kind milestone.Kind, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.milestones[userID]
	for i := range recs {
		if recs[i].Kind == kind && recs[i].Value == value {
			m.milestones[userID] = append(recs[:i], recs[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) ListTaskCompletions(ctx context.Context, userID string) ([]recovery.TaskCompletion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]recovery.TaskCompletion(nil), m.tasks[userID]...), nil
}
