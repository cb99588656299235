package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"reshelf/internal/services"
)

// FileName is the database file inside the state directory.
const FileName = "history.db"

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Store is the SQLite-backed move journal.
type Store struct {
	db   *sql.DB
	path string
}

// Batch is one organizer run.
type Batch struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	SourceRoot string     `json:"source_root"`
	DryRun     bool       `json:"dry_run"`
	Policy     string     `json:"policy"`
	// Moves and Failures are filled by RecentBatches.
	Moves    int `json:"moves"`
	Failures int `json:"failures"`
}

// Entry is the journal row for one primary file.
type Entry struct {
	ID          int64     `json:"id"`
	BatchID     string    `json:"batch_id"`
	Source      string    `json:"source"`
	Destination string    `json:"destination"`
	Action      string    `json:"action"`
	Kind        string    `json:"kind"`
	Title       string    `json:"title"`
	Success     bool      `json:"success"`
	Rollback    bool      `json:"rollback"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Open creates dir if needed and opens (or initializes) the journal in it.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "history", "ensure state dir", dir, err)
	}
	dbPath := filepath.Join(dir, FileName)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginBatch opens a new batch with a fresh UUID.
func (s *Store) BeginBatch(ctx context.Context, sourceRoot string, dryRun bool, policy string) (Batch, error) {
	batch := Batch{
		ID:         uuid.NewString(),
		StartedAt:  time.Now().UTC(),
		SourceRoot: sourceRoot,
		DryRun:     dryRun,
		Policy:     policy,
	}
	err := s.exec(ctx,
		"INSERT INTO batches (id, started_at, source_root, dry_run, policy) VALUES (?, ?, ?, ?, ?)",
		batch.ID, formatTime(batch.StartedAt), batch.SourceRoot, boolToInt(batch.DryRun), batch.Policy,
	)
	if err != nil {
		return Batch{}, fmt.Errorf("insert batch: %w", err)
	}
	return batch, nil
}

// Record appends entry to its batch. CreatedAt defaults to now.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	if strings.TrimSpace(entry.BatchID) == "" {
		return services.Wrap(services.ErrValidation, "history", "record", "batch id is required", nil)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	err := s.exec(ctx,
		`INSERT INTO moves (batch_id, source, destination, action, kind, title, success, rollback, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.BatchID, entry.Source, entry.Destination, entry.Action, entry.Kind, entry.Title,
		boolToInt(entry.Success), boolToInt(entry.Rollback), entry.Error, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert move: %w", err)
	}
	return nil
}

// FinishBatch stamps the batch end time.
func (s *Store) FinishBatch(ctx context.Context, batchID string) error {
	if err := s.exec(ctx, "UPDATE batches SET finished_at = ? WHERE id = ?", formatTime(time.Now().UTC()), batchID); err != nil {
		return fmt.Errorf("finish batch: %w", err)
	}
	return nil
}

// RecentBatches returns up to limit batches, newest first, with move counts.
func (s *Store) RecentBatches(ctx context.Context, limit int) ([]Batch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.started_at, b.finished_at, b.source_root, b.dry_run, b.policy,
		       COUNT(m.id), COALESCE(SUM(CASE WHEN m.success = 0 THEN 1 ELSE 0 END), 0)
		FROM batches b
		LEFT JOIN moves m ON m.batch_id = b.id
		GROUP BY b.id
		ORDER BY b.started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	var batches []Batch
	for rows.Next() {
		var (
			b          Batch
			startedRaw string
			finished   sql.NullString
			dryRun     int
		)
		if err := rows.Scan(&b.ID, &startedRaw, &finished, &b.SourceRoot, &dryRun, &b.Policy, &b.Moves, &b.Failures); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		b.StartedAt, _ = parseTime(startedRaw)
		if finished.Valid {
			if t, err := parseTime(finished.String); err == nil {
				b.FinishedAt = &t
			}
		}
		b.DryRun = dryRun != 0
		batches = append(batches, b)
	}
	return batches, rows.Err()
}

// ResolveBatchID expands a unique ID prefix (as printed in logs) to the full
// batch ID.
func (s *Store) ResolveBatchID(ctx context.Context, prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", services.Wrap(services.ErrValidation, "history", "resolve batch", "batch id is required", nil)
	}
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM batches WHERE id LIKE ? || '%' LIMIT 2", prefix)
	if err != nil {
		return "", fmt.Errorf("query batch ids: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan batch id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", services.Wrap(services.ErrNotFound, "history", "resolve batch", "no batch matches "+prefix, nil)
	case 1:
		return ids[0], nil
	default:
		return "", services.Wrap(services.ErrValidation, "history", "resolve batch", "ambiguous batch id "+prefix, nil)
	}
}

// Moves returns the entries of a batch in insertion order.
func (s *Store) Moves(ctx context.Context, batchID string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, batch_id, source, destination, action, kind, title, success, rollback, error, created_at
		FROM moves WHERE batch_id = ? ORDER BY id`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query moves: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			success, rollback int
			createdRaw        string
		)
		if err := rows.Scan(&e.ID, &e.BatchID, &e.Source, &e.Destination, &e.Action, &e.Kind, &e.Title,
			&success, &rollback, &e.Error, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan move: %w", err)
		}
		e.Success = success != 0
		e.Rollback = rollback != 0
		e.CreatedAt, _ = parseTime(createdRaw)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
