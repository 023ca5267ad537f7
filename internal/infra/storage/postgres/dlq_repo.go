package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ordinalsplus/indexer-go/internal/resilience"
)

// DLQRepo implements resilience.DLQStorage on PostgreSQL.
type DLQRepo struct {
	db *DB
}

// NewDLQRepo creates a Postgres-backed DLQ store.
func NewDLQRepo(db *DB) *DLQRepo {
	return &DLQRepo{db: db}
}

type dlqRow struct {
	ID        string    `db:"id"`
	Timestamp time.Time `db:"recorded_at"`
	Operation string    `db:"operation"`
	Payload   []byte    `db:"payload"`
	Error     string    `db:"error"`
	Attempts  int       `db:"attempts"`
	Status    string    `db:"status"`
}

// Insert writes a DLQ entry; repeated inserts of the same ID are no-ops.
func (r *DLQRepo) Insert(ctx context.Context, e resilience.DLQEntry) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dlq_entries (id, recorded_at, operation, payload, error, attempts, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Timestamp, e.Operation, []byte(e.Payload), e.Error, e.Attempts, string(e.Status),
	)
	if err != nil {
		return fmt.Errorf("insert dlq entry: %w", err)
	}
	return nil
}

// ListPending returns the oldest pending entries first.
func (r *DLQRepo) ListPending(ctx context.Context, limit int) ([]resilience.DLQEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []dlqRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, recorded_at, operation, payload, error, attempts, status
		FROM dlq_entries
		WHERE status = $1
		ORDER BY recorded_at ASC
		LIMIT $2`,
		string(resilience.DLQPending), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list pending dlq entries: %w", err)
	}

	out := make([]resilience.DLQEntry, len(rows))
	for i, row := range rows {
		out[i] = resilience.DLQEntry{
			ID:        row.ID,
			Timestamp: row.Timestamp,
			Operation: row.Operation,
			Payload:   row.Payload,
			Error:     row.Error,
			Attempts:  row.Attempts,
			Status:    resilience.DLQStatus(row.Status),
		}
	}
	return out, nil
}

// UpdateStatus moves an entry through its lifecycle.
func (r *DLQRepo) UpdateStatus(ctx context.Context, id string, status resilience.DLQStatus, attempts int) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE dlq_entries SET status = $2, attempts = $3 WHERE id = $1`,
		id, string(status), attempts,
	)
	if err != nil {
		return fmt.Errorf("update dlq entry %s: %w", id, err)
	}
	return nil
}

// Count returns the total number of entries.
func (r *DLQRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM dlq_entries`); err != nil {
		return 0, fmt.Errorf("count dlq entries: %w", err)
	}
	return n, nil
}

var _ resilience.DLQStorage = (*DLQRepo)(nil)
