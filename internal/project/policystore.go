package project

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/piwi3910/CrateStack/internal/rl"
)

// PolicyStore keeps a value table and the training episode log in SQLite.
// Hashes are stored as their int64 bit pattern.
type PolicyStore struct {
	db *sql.DB
}

// OpenPolicyStore opens or creates the database and ensures the schema.
func OpenPolicyStore(path string) (*PolicyStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create policy directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open policy store: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}
	schema := `CREATE TABLE IF NOT EXISTS q_values (
        state INTEGER NOT NULL,
        action INTEGER NOT NULL,
        value REAL NOT NULL,
        PRIMARY KEY(state, action)
    );
    CREATE TABLE IF NOT EXISTS episodes (
        episode INTEGER NOT NULL,
        reward REAL NOT NULL,
        fill_rate REAL NOT NULL,
        placed INTEGER NOT NULL,
        epsilon REAL NOT NULL
    );`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create policy schema: %w", err)
	}
	return &PolicyStore{db: db}, nil
}

// SaveTable replaces the stored table with t in one transaction.
func (s *PolicyStore) SaveTable(ctx context.Context, t *rl.ValueTable) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin policy save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM q_values`); err != nil {
		return fmt.Errorf("failed to clear q_values: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO q_values (state, action, value) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var insertErr error
	t.Each(func(k rl.Key, v float64) {
		if insertErr != nil {
			return
		}
		_, insertErr = stmt.ExecContext(ctx, int64(k.State), int64(k.Action), v)
	})
	if insertErr != nil {
		return fmt.Errorf("failed to insert q_value: %w", insertErr)
	}
	return tx.Commit()
}

// LoadTable reads the stored table. An empty store yields an empty table.
func (s *PolicyStore) LoadTable(ctx context.Context) (*rl.ValueTable, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, action, value FROM q_values`)
	if err != nil {
		return nil, fmt.Errorf("failed to query q_values: %w", err)
	}
	defer func() { _ = rows.Close() }()

	t := rl.NewValueTable()
	for rows.Next() {
		var state, action int64
		var v float64
		if err := rows.Scan(&state, &action, &v); err != nil {
			return nil, err
		}
		t.Set(rl.Key{State: uint64(state), Action: uint64(action)}, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// RecordEpisode appends one training episode.
func (s *PolicyStore) RecordEpisode(ctx context.Context, ep rl.Episode) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO episodes (episode, reward, fill_rate, placed, epsilon)
        VALUES (?, ?, ?, ?, ?)`, ep.Number, ep.Reward, ep.FillRate, ep.Placed, ep.Epsilon)
	return err
}

// Episodes returns the episode log in insertion order.
func (s *PolicyStore) Episodes(ctx context.Context) ([]rl.Episode, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT episode, reward, fill_rate, placed, epsilon
        FROM episodes ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var res []rl.Episode
	for rows.Next() {
		var ep rl.Episode
		if err := rows.Scan(&ep.Number, &ep.Reward, &ep.FillRate, &ep.Placed, &ep.Epsilon); err != nil {
			return nil, err
		}
		res = append(res, ep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *PolicyStore) Close() error { return s.db.Close() }

var _ rl.EpisodeLog = (*PolicyStore)(nil)
