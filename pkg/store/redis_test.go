package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/recovery"
)

// setupTestRedis creates a miniredis-backed store for testing.
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisFromClient(client), mr
}

func TestRedisProfile(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	if _, err := r.GetProfile(ctx, "absent"); err != ErrNotFound {
		t.Errorf("GetProfile(absent) error = %v, expected ErrNotFound", err)
	}

	profile := recovery.Profile{ID: "user-1", SobrietyDate: "2024-01-15", Timezone: "America/New_York"}
	if err := r.SeedProfile(ctx, profile); err != nil {
		t.Fatalf("SeedProfile() error = %v", err)
	}

	got, err := r.GetProfile(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.SobrietyDate != "2024-01-15" || got.Timezone != "America/New_York" {
		t.Errorf("GetProfile() = %+v", got)
	}
}

func TestRedisSlipUps(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	recs, err := r.ListSlipUps(ctx, "user-1")
	if err != nil || len(recs) != 0 {
		t.Fatalf("ListSlipUps() = %v, %v, expected empty list for new user", recs, err)
	}

	rec := recovery.SlipUp{
		ID:                  "s1",
		UserID:              "user-1",
		SlipUpDate:          "2024-02-08",
		RecoveryRestartDate: "2024-02-10",
		CreatedAt:           time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC),
	}
	if err := r.InsertSlipUp(ctx, rec); err != nil {
		t.Fatalf("InsertSlipUp() error = %v", err)
	}

	recs, err = r.ListSlipUps(ctx, "user-1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListSlipUps() = %v, %v", recs, err)
	}
	if recs[0].RecoveryRestartDate != "2024-02-10" {
		t.Errorf("round trip lost restart date: %+v", recs[0])
	}

	if err := r.DeleteSlipUp(ctx, "user-1", "s1"); err != nil {
		t.Fatalf("DeleteSlipUp() error = %v", err)
	}
	if err := r.DeleteSlipUp(ctx, "user-1", "s1"); err != ErrNotFound {
		t.Errorf("second delete error = %v, expected ErrNotFound", err)
	}
}

func TestRedisMilestones(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	rec := milestone.Record{
		UserID:     "user-1",
		Kind:       milestone.KindSobriety,
		Value:      30,
		AchievedAt: time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := r.InsertMilestone(ctx, rec); err != nil {
		t.Fatalf("InsertMilestone() error = %v", err)
	}

	// At most one record per (user, kind, value).
	if err := r.InsertMilestone(ctx, rec); err != ErrDuplicateMilestone {
		t.Errorf("duplicate insert error = %v, expected ErrDuplicateMilestone", err)
	}

	other := rec
	other.Kind = milestone.KindMeetingCount
	if err := r.InsertMilestone(ctx, other); err != nil {
		t.Fatalf("same value under another kind must insert: %v", err)
	}

	recs, err := r.ListMilestones(ctx, "user-1", milestone.KindSobriety)
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListMilestones() = %v, %v, expected the sobriety record only", recs, err)
	}

	if err := r.DeleteMilestone(ctx, "user-1", milestone.KindSobriety, 30); err != nil {
		t.Fatalf("DeleteMilestone() error = %v", err)
	}
	if err := r.DeleteMilestone(ctx, "user-1", milestone.KindSobriety, 30); err != ErrNotFound {
		t.Errorf("second delete error = %v, expected ErrNotFound", err)
	}

	recs, _ = r.ListMilestones(ctx, "user-1", milestone.KindMeetingCount)
	if len(recs) != 1 {
		t.Errorf("meeting-count record must survive the sobriety delete")
	}
}

func TestRedisMeetings(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	rec := recovery.Meeting{
		ID:          "m1",
		UserID:      "user-1",
		MeetingName: "Evening Group",
		AttendedAt:  time.Date(2024, 2, 14, 19, 0, 0, 0, time.UTC),
	}
	if err := r.InsertMeeting(ctx, rec); err != nil {
		t.Fatalf("InsertMeeting() error = %v", err)
	}

	recs, err := r.ListMeetings(ctx, "user-1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListMeetings() = %v, %v", recs, err)
	}

	if err := r.DeleteMeeting(ctx, "user-1", "m1"); err != nil {
		t.Fatalf("DeleteMeeting() error = %v", err)
	}
	recs, _ = r.ListMeetings(ctx, "user-1")
	if len(recs) != 0 {
		t.Errorf("ListMeetings() after delete = %v", recs)
	}
}

func TestRedisTaskCompletions(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	recs, err := r.ListTaskCompletions(ctx, "user-1")
	if err != nil || len(recs) != 0 {
		t.Fatalf("ListTaskCompletions() = %v, %v", recs, err)
	}

	// Task completions are written by the task system; simulate its
	// document directly.
	mr.Set(taskKey("user-1"), `[{"taskId":"t1","userId":"user-1","completedAt":"2024-02-12T10:00:00Z"}]`)

	recs, err = r.ListTaskCompletions(ctx, "user-1")
	if err != nil || len(recs) != 1 {
		t.Fatalf("ListTaskCompletions() = %v, %v", recs, err)
	}
	if recs[0].TaskID != "t1" {
		t.Errorf("round trip lost task id: %+v", recs[0])
	}
}

func TestNewRedis_ConnectFailure(t *testing.T) {
	ctx := context.Background()
	_, err := NewRedis(ctx, RedisOptions{
		Addr:           "127.0.0.1:1",
		ConnectTimeout: 100 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("expected connection error")
	}
}
