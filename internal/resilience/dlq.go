package resilience

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DLQStatus is the lifecycle state of a dead-lettered operation.
type DLQStatus string

const (
	DLQPending   DLQStatus = "pending"
	DLQRetrying  DLQStatus = "retrying"
	DLQSucceeded DLQStatus = "succeeded"
	DLQFailed    DLQStatus = "failed"
)

// DLQEntry records an operation that failed beyond recovery.
type DLQEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Operation string          `json:"operation"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Attempts  int             `json:"attempts"`
	Status    DLQStatus       `json:"status"`
}

// DLQStorage is the persistence interface for dead-lettered entries. The
// in-memory implementation is the default; a Postgres one lives in
// infra/storage/postgres.
type DLQStorage interface {
	Insert(ctx context.Context, e DLQEntry) error
	ListPending(ctx context.Context, limit int) ([]DLQEntry, error)
	UpdateStatus(ctx context.Context, id string, status DLQStatus, attempts int) error
	Count(ctx context.Context) (int64, error)
}

// DeadLetterQueue records unrecoverable failures and optionally replays them.
type DeadLetterQueue struct {
	storage DLQStorage
	log     *slog.Logger

	mu       sync.RWMutex
	handlers map[string]ReplayFunc
}

// ReplayFunc re-executes a dead-lettered operation from its payload.
type ReplayFunc func(ctx context.Context, payload json.RawMessage) error

// NewDeadLetterQueue creates a DLQ over the given storage.
func NewDeadLetterQueue(storage DLQStorage, log *slog.Logger) *DeadLetterQueue {
	if storage == nil {
		storage = NewMemoryDLQStorage()
	}
	if log == nil {
		log = slog.Default()
	}
	return &DeadLetterQueue{
		storage:  storage,
		log:      log.With("component", "dlq"),
		handlers: make(map[string]ReplayFunc),
	}
}

// Record persists a failed operation with a fresh entry ID.
func (q *DeadLetterQueue) Record(ctx context.Context, operation string, payload any, opErr error) error {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("null")
	}
	entry := DLQEntry{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Operation: operation,
		Payload:   data,
		Error:     opErr.Error(),
		Status:    DLQPending,
	}
	if err := q.storage.Insert(ctx, entry); err != nil {
		return err
	}
	q.log.Warn("Recorded dead-lettered operation", "operation", operation, "id", entry.ID, "error", opErr)
	return nil
}

// RegisterReplay makes an operation replayable by the sweep loop.
func (q *DeadLetterQueue) RegisterReplay(operation string, fn ReplayFunc) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[operation] = fn
}

// Sweep retries pending entries whose operation has a registered replay
// handler. Each entry moves pending -> retrying -> succeeded|failed.
func (q *DeadLetterQueue) Sweep(ctx context.Context, limit, maxAttempts int) error {
	entries, err := q.storage.ListPending(ctx, limit)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		q.mu.RLock()
		replay, ok := q.handlers[entry.Operation]
		q.mu.RUnlock()
		if !ok {
			continue
		}

		attempts := entry.Attempts + 1
		if err := q.storage.UpdateStatus(ctx, entry.ID, DLQRetrying, attempts); err != nil {
			return err
		}

		status := DLQSucceeded
		if err := replay(ctx, entry.Payload); err != nil {
			status = DLQPending
			if attempts >= maxAttempts {
				status = DLQFailed
			}
			q.log.Warn("DLQ replay failed", "operation", entry.Operation, "id", entry.ID,
				"attempts", attempts, "error", err)
		} else {
			q.log.Info("DLQ replay succeeded", "operation", entry.Operation, "id", entry.ID)
		}
		if err := q.storage.UpdateStatus(ctx, entry.ID, status, attempts); err != nil {
			return err
		}
	}
	return nil
}

// RunSweeper runs Sweep on a ticker until the context ends.
func (q *DeadLetterQueue) RunSweeper(ctx context.Context, interval time.Duration, limit, maxAttempts int) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := q.Sweep(ctx, limit, maxAttempts); err != nil {
				q.log.Error("DLQ sweep failed", "error", err)
			}
		}
	}
}

// Depth returns the number of stored entries.
func (q *DeadLetterQueue) Depth(ctx context.Context) (int64, error) {
	return q.storage.Count(ctx)
}

// MemoryDLQStorage keeps entries in process memory.
type MemoryDLQStorage struct {
	mu      sync.Mutex
	entries map[string]*DLQEntry
	order   []string
}

// NewMemoryDLQStorage creates an empty in-memory DLQ store.
func NewMemoryDLQStorage() *MemoryDLQStorage {
	return &MemoryDLQStorage{entries: make(map[string]*DLQEntry)}
}

func (m *MemoryDLQStorage) Insert(ctx context.Context, e DLQEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := e
	m.entries[e.ID] = &copied
	m.order = append(m.order, e.ID)
	return nil
}

func (m *MemoryDLQStorage) ListPending(ctx context.Context, limit int) ([]DLQEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []DLQEntry
	for _, id := range m.order {
		if e := m.entries[id]; e.Status == DLQPending {
			out = append(out, *e)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (m *MemoryDLQStorage) UpdateStatus(ctx context.Context, id string, status DLQStatus, attempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[id]; ok {
		e.Status = status
		e.Attempts = attempts
	}
	return nil
}

func (m *MemoryDLQStorage) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.entries)), nil
}
