package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/stillpath/recovery-engine/pkg/milestone"
	"github.com/stillpath/recovery-engine/pkg/recovery"
)

const (
	// keyPrefix namespaces all engine keys in Redis.
	keyPrefix = "recovery_engine:"
)

// RedisOptions configures the Redis-backed store connection.
type RedisOptions struct {
	Addr           string
	Password       string
	ConnectTimeout time.Duration // total time budget for the initial ping, 0 = 30s
}

// Redis is a Store keeping one JSON document per user per collection,
// the same per-user document layout the engine's hosts use for other
// cached state.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to Redis and verifies the connection with
// exponential backoff before returning the store.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           0,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = opts.ConnectTimeout
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 30 * time.Second
	}

	err := backoff.Retry(func() error {
		if err := client.Ping(ctx).Err(); err != nil {
			logrus.Warnf("Redis ping failed, retrying: %v", err)
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", opts.Addr, err)
	}

	logrus.Infof("connected to Redis at %s", opts.Addr)
	return &Redis{client: client}, nil
}

// NewRedisFromClient wraps an existing client. Used by tests and hosts
// that manage their own connection.
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Close releases the underlying connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

func profileKey(userID string) string   { return keyPrefix + "profile:" + userID }
func slipUpKey(userID string) string    { return keyPrefix + "slipups:" + userID }
func meetingKey(userID string) string   { return keyPrefix + "meetings:" + userID }
func milestoneKey(userID string) string { return keyPrefix + "milestones:" + userID }
func taskKey(userID string) string      { return keyPrefix + "tasks:" + userID }

// getDoc unmarshals the JSON document at key into out. Missing keys
// report ErrNotFound.
func (r *Redis) getDoc(ctx context.Context, key string, out interface{}) error {
	data, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get %s: %w", key, err)
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (r *Redis) setDoc(ctx context.Context, key string, doc interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// SeedProfile writes a profile document. Profiles are owned by the
// external profile system; this helper exists for hosts that mirror
// them into Redis and for tests.
func (r *Redis) SeedProfile(ctx context.Context, p recovery.Profile) error {
	return r.setDoc(ctx, profileKey(p.ID), p)
}

func (r *Redis) GetProfile(ctx context.Context, userID string) (*recovery.Profile, error) {
	var p recovery.Profile
	if err := r.getDoc(ctx, profileKey(userID), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Redis) ListSlipUps(ctx context.Context, userID string) ([]recovery.SlipUp, error) {
	var recs []recovery.SlipUp
	if err := r.getDoc(ctx, slipUpKey(userID), &recs); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return recs, nil
}

func (r *Redis) InsertSlipUp(ctx context.Context, rec recovery.SlipUp) error {
	recs, err := r.ListSlipUps(ctx, rec.UserID)
	if err != nil {
		return err
	}
	return r.setDoc(ctx, slipUpKey(rec.UserID), append(recs, rec))
}

func (r *Redis) DeleteSlipUp(ctx context.Context, userID, id string) error {
	recs, err := r.ListSlipUps(ctx, userID)
	if err != nil {
		return err
	}

	for i := range recs {
		if recs[i].ID == id {
			return r.setDoc(ctx, slipUpKey(userID), append(recs[:i], recs[i+1:]...))
		}
	}
	return ErrNotFound
}

func (r *Redis) ListMeetings(ctx context.Context, userID string) ([]recovery.Meeting, error) {
	var recs []recovery.Meeting
	if err := r.getDoc(ctx, meetingKey(userID), &recs); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return recs, nil
}

func (r *Redis) InsertMeeting(ctx context.Context, rec recovery.Meeting) error {
	recs, err := r.ListMeetings(ctx, rec.UserID)
	if err != nil {
		return err
	}
	return r.setDoc(ctx, meetingKey(rec.UserID), append(recs, rec))
}

func (r *Redis) DeleteMeeting(ctx context.Context, userID, id string) error {
	recs, err := r.ListMeetings(ctx, userID)
	if err != nil {
		return err
	}

	for i := range recs {
		if recs[i].ID == id {
			return r.setDoc(ctx, meetingKey(userID), append(recs[:i], recs[i+1:]...))
		}
	}
	return ErrNotFound
}

func (r *Redis) listAllMilestones(ctx context.Context, userID string) ([]milestone.Record, error) {
	var recs []milestone.Record
	if err := r.getDoc(ctx, milestoneKey(userID), &recs); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return recs, nil
}

func (r *Redis) ListMilestones(ctx context.Context, userID string, kind milestone.Kind) ([]milestone.Record, error) {
	recs, err := r.listAllMilestones(ctx, userID)
	if err != nil {
		return nil, err
	}

	var out []milestone.Record
	for _, rec := range recs {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *Redis) InsertMilestone(ctx context.Context, rec milestone.Record) error {
	recs, err := r.listAllMilestones(ctx, rec.UserID)
	if err != nil {
		return err
	}

	for _, existing := range recs {
		if existing.Kind == rec.Kind && existing.Value == rec.Value {
			return ErrDuplicateMilestone
		}
	}
	return r.setDoc(ctx, milestoneKey(rec.UserID), append(recs, rec))
}

func (r *Redis) DeleteMilestone(ctx context.Context, userID string, kind milestone.Kind, value int) error {
	recs, err := r.listAllMilestones(ctx, userID)
	if err != nil {
		return err
	}

	for i := range recs {
		if recs[i].Kind == kind && recs[i].Value == value {
			return r.setDoc(ctx, milestoneKey(userID), append(recs[:i], recs[i+1:]...))
		}
	}
	return ErrNotFound
}

func (r *Redis) ListTaskCompletions(ctx context.Context, userID string) ([]recovery.TaskCompletion, error) {
	var recs []recovery.TaskCompletion
	if err := r.getDoc(ctx, taskKey(userID), &recs); err != nil {
		if err == ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return recs, nil
}
