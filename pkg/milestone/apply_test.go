package milestone

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeStore records writes and fails on demand.
type fakeStore struct {
	inserted []Record
	deleted  []Record
	failOn   map[string]bool
}

func key(kind Kind, value int) string {
	return fmt.Sprintf("%s:%d", kind, value)
}

func (f *fakeStore) InsertMilestone(ctx context.Context, rec Record) error {
	if f.failOn[key(rec.Kind, rec.Value)] {
		return errors.New("store unavailable")
	}
	f.inserted = append(f.inserted, rec)
	return nil
}

func (f *fakeStore) DeleteMilestone(ctx context.Context, userID string, kind Kind, value int) error {
	if f.failOn[key(kind, value)] {
		return errors.New("store unavailable")
	}
	f.deleted = append(f.deleted, Record{UserID: userID, Kind: kind, Value: value})
	return nil
}

func TestApply(t *testing.T) {
	store := &fakeStore{}
	plan := Plan{
		Insert: []Record{
			sobrietyRecord(1, "2024-01-16"),
			sobrietyRecord(7, "2024-01-22"),
		},
		Delete: []Record{
			sobrietyRecord(30, "2024-02-14"),
		},
	}

	res := Apply(context.Background(), store, plan)

	if len(res.Inserted) != 2 || len(res.Deleted) != 1 || res.Failed != 0 {
		t.Errorf("result = %+v, expected 2 inserts, 1 delete, 0 failures", res)
	}
	if len(store.inserted) != 2 || len(store.deleted) != 1 {
		t.Errorf("store saw %d inserts and %d deletes", len(store.inserted), len(store.deleted))
	}
}

func TestApply_SkipsFailedWrites(t *testing.T) {
	// One failed write must never block the rest of the batch.
	store := &fakeStore{failOn: map[string]bool{key(KindSobriety, 7): true}}
	plan := Plan{
		Insert: []Record{
			sobrietyRecord(1, "2024-01-16"),
			sobrietyRecord(7, "2024-01-22"),
			sobrietyRecord(30, "2024-02-14"),
		},
	}

	res := Apply(context.Background(), store, plan)

	if res.Failed != 1 {
		t.Errorf("Failed = %d, expected 1", res.Failed)
	}
	if len(res.Inserted) != 2 {
		t.Errorf("Inserted = %v, expected the two surviving records", res.Inserted)
	}
	for _, rec := range res.Inserted {
		if rec.Value == 7 {
			t.Error("failed record reported as inserted")
		}
	}
}

func TestApply_DeletesBeforeInserts(t *testing.T) {
	// A stale record and its corrected replacement share a value; the
	// delete must land first or the insert hits the uniqueness rule.
	var order []string
	store := &orderedStore{order: &order}

	plan := Plan{
		Insert: []Record{sobrietyRecord(7, "2024-02-08")},
		Delete: []Record{sobrietyRecord(7, "2024-02-12")},
	}

	Apply(context.Background(), store, plan)

	if len(order) != 2 || order[0] != "delete" || order[1] != "insert" {
		t.Errorf("write order = %v, expected [delete insert]", order)
	}
}

type orderedStore struct {
	order *[]string
}

func (o *orderedStore) InsertMilestone(ctx context.Context, rec Record) error {
	*o.order = append(*o.order, "insert")
	return nil
}

func (o *orderedStore) DeleteMilestone(ctx context.Context, userID string, kind Kind, value int) error {
	*o.order = append(*o.order, "delete")
	return nil
}
