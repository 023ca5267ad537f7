package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestDLQ_RecordAndReplaySucceeds(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDLQStorage()
	q := NewDeadLetterQueue(store, nil)

	replayed := 0
	q.RegisterReplay("getBlockInscriptions", func(ctx context.Context, payload json.RawMessage) error {
		var height uint64
		if err := json.Unmarshal(payload, &height); err != nil {
			return err
		}
		if height != 840000 {
			t.Errorf("payload height = %d, want 840000", height)
		}
		replayed++
		return nil
	})

	if err := q.Record(ctx, "getBlockInscriptions", uint64(840000), errors.New("provider down")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if depth, _ := q.Depth(ctx); depth != 1 {
		t.Fatalf("depth = %d, want 1", depth)
	}

	if err := q.Sweep(ctx, 10, 3); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if replayed != 1 {
		t.Fatalf("replayed %d times, want 1", replayed)
	}

	// The entry is no longer pending, so a second sweep must not rerun it.
	if err := q.Sweep(ctx, 10, 3); err != nil {
		t.Fatalf("second Sweep failed: %v", err)
	}
	if replayed != 1 {
		t.Fatalf("succeeded entry was replayed again")
	}
}

func TestDLQ_FailedReplayExhaustsAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryDLQStorage()
	q := NewDeadLetterQueue(store, nil)

	attempts := 0
	q.RegisterReplay("storeResource", func(ctx context.Context, payload json.RawMessage) error {
		attempts++
		return errors.New("still broken")
	})

	if err := q.Record(ctx, "storeResource", map[string]string{"id": "abc"}, errors.New("duplicate key")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	// Entry stays pending until maxAttempts, then goes failed.
	for i := 0; i < 5; i++ {
		if err := q.Sweep(ctx, 10, 3); err != nil {
			t.Fatalf("Sweep failed: %v", err)
		}
	}
	if attempts != 3 {
		t.Fatalf("replay attempted %d times, want exactly maxAttempts = 3", attempts)
	}
}

func TestDLQ_UnregisteredOperationStaysPending(t *testing.T) {
	ctx := context.Background()
	q := NewDeadLetterQueue(NewMemoryDLQStorage(), nil)

	if err := q.Record(ctx, "unknown-op", nil, errors.New("boom")); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := q.Sweep(ctx, 10, 3); err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}

	pending, err := q.storage.ListPending(ctx, 10)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].Attempts != 0 {
		t.Fatalf("entry without a handler should remain pending and untouched, got %+v", pending)
	}
}
