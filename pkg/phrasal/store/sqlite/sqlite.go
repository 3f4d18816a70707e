// Package sqlite persists phrase tables in a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	_ "modernc.org/sqlite"

	"github.com/cognicore/phrasal/pkg/phrasal/store"
)

// sqliteStore implements store.Store using SQLite.
type sqliteStore struct {
	db *sql.DB
}

// Open opens (creating if needed) a phrase-table database with WAL
// mode enabled.
func Open(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteStore{db: db}, nil
}

// Close closes the database connection.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS alignments (
	rank INTEGER PRIMARY KEY,
	phrases TEXT NOT NULL,
	lex_weights TEXT NOT NULL,
	probs TEXT NOT NULL,
	freq INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS phrase_index (
	lang INTEGER NOT NULL,
	phrase TEXT NOT NULL,
	rank INTEGER NOT NULL,
	PRIMARY KEY(lang, phrase, rank),
	FOREIGN KEY(rank) REFERENCES alignments(rank) ON DELETE CASCADE
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// Put inserts one alignment and indexes its phrases per language.
func (s *sqliteStore) Put(ctx context.Context, a store.Alignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	phrases, err := json.Marshal(a.Phrases)
	if err != nil {
		return err
	}
	probs, err := json.Marshal(a.Probs)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO alignments (rank, phrases, lex_weights, probs, freq) VALUES (?, ?, ?, ?, ?)`,
		a.Rank, string(phrases), a.LexWeights, string(probs), a.Freq); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO phrase_index (lang, phrase, rank) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for lang, phrase := range a.Phrases {
		if phrase == "" {
			continue
		}
		if _, err := stmt.ExecContext(ctx, lang, phrase, a.Rank); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Top returns up to limit alignments by ascending rank, which is
// descending frequency order.
func (s *sqliteStore) Top(ctx context.Context, limit int) ([]store.Alignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rank, phrases, lex_weights, probs, freq FROM alignments ORDER BY rank LIMIT ?`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlignments(rows)
}

// LookupPhrase returns every alignment whose phrase in the given
// language column matches exactly, by ascending rank.
func (s *sqliteStore) LookupPhrase(ctx context.Context, lang int, phrase string) ([]store.Alignment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.rank, a.phrases, a.lex_weights, a.probs, a.freq
FROM alignments a JOIN phrase_index p ON p.rank = a.rank
WHERE p.lang = ? AND p.phrase = ?
ORDER BY a.rank`, lang, phrase)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAlignments(rows)
}

// Count returns the number of stored alignments.
func (s *sqliteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM alignments`).Scan(&n)
	return n, err
}

func scanAlignments(rows *sql.Rows) ([]store.Alignment, error) {
	var out []store.Alignment
	for rows.Next() {
		var a store.Alignment
		var phrases, probs string
		if err := rows.Scan(&a.Rank, &phrases, &a.LexWeights, &probs, &a.Freq); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(phrases), &a.Phrases); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(probs), &a.Probs); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
