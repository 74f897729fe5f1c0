package audit

import (
	"context"
	"database/sql"
	"strings"
	"sync"
)

// SQLEmitter appends events to the audit_log table. Rows are never updated
// or deleted.
type SQLEmitter struct{ db *sql.DB }

func NewSQLEmitter(db *sql.DB) *SQLEmitter { return &SQLEmitter{db: db} }

func (r *SQLEmitter) Emit(ctx context.Context, e Event) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, typ, scope_key, config_version, input_checksum, warnings, details, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Type, e.ScopeKey, e.ConfigVersion, e.InputChecksum,
		strings.Join(e.Warnings, "\n"), e.Details, e.CreatedAt)
	return err
}

// MemoryEmitter collects events in memory, for tests and offline runs.
type MemoryEmitter struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEmitter() *MemoryEmitter { return &MemoryEmitter{} }

func (m *MemoryEmitter) Emit(_ context.Context, e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryEmitter) Events() []Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Event, len(m.events))
	copy(out, m.events)
	return out
}
