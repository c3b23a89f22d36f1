package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ephemerear/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS recordings (
		id TEXT PRIMARY KEY,
		logicalName TEXT NOT NULL,
		sourcePath TEXT NOT NULL,
		transcriptPath TEXT NOT NULL,
		engine TEXT NOT NULL,
		chunks INTEGER NOT NULL,
		followUp INTEGER NOT NULL DEFAULT 0,
		createdAt REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS recordings_createdAt ON recordings(createdAt);
`

// Entry is one transcribed recording.
type Entry struct {
	ID             string
	LogicalName    string
	SourcePath     string
	TranscriptPath string
	Engine         domain.Engine
	Chunks         int
	FollowUp       bool
	CreatedAt      time.Time
}

// Store is the SQLite history of recordings that produced a transcript.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores an outcome that wrote a transcript. Skipped recordings are
// ignored.
func (s *Store) Record(ctx context.Context, outcome *domain.Outcome) error {
	if outcome == nil || outcome.Recording == nil || outcome.State == domain.StateSkipped {
		return nil
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO recordings (id, logicalName, sourcePath, transcriptPath, engine, chunks, followUp, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		uuid.NewString(),
		outcome.Recording.LogicalName,
		outcome.Recording.Path,
		outcome.TranscriptPath,
		string(outcome.Engine),
		outcome.Chunks,
		outcome.State == domain.StateFollowUpDispatched,
		unixFromTime(s.now()),
	)
	if err != nil {
		return fmt.Errorf("insert recording: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, errors.New("limit must be positive")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, logicalName, sourcePath, transcriptPath, engine, chunks, followUp, createdAt
		FROM recordings
		ORDER BY createdAt DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recordings: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var engine string
		var createdAt float64
		if err := rows.Scan(&e.ID, &e.LogicalName, &e.SourcePath, &e.TranscriptPath,
			&engine, &e.Chunks, &e.FollowUp, &createdAt); err != nil {
			return nil, fmt.Errorf("scan recording: %w", err)
		}
		e.Engine = domain.Engine(engine)
		e.CreatedAt = timeFromUnix(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
