package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/tagger/pkg/tagger/internalerr"
	"github.com/cognicore/tagger/pkg/tagger/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// schema if needed.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", internalerr.ErrStoreUnavailable, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS vocab_terms (
	vocabulary TEXT NOT NULL,
	phrase TEXT NOT NULL,
	score REAL NOT NULL,
	type TEXT NOT NULL DEFAULT 'unknown',
	PRIMARY KEY(vocabulary, phrase)
);

CREATE TABLE IF NOT EXISTS vocab_variants (
	vocabulary TEXT NOT NULL,
	phrase TEXT NOT NULL,
	variant TEXT NOT NULL,
	UNIQUE(vocabulary, phrase, variant),
	FOREIGN KEY(vocabulary, phrase) REFERENCES vocab_terms(vocabulary, phrase) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_annotations (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	doc_id TEXT NOT NULL,
	region TEXT NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset INTEGER NOT NULL,
	score REAL NOT NULL,
	text TEXT NOT NULL,
	type TEXT NOT NULL,
	PRIMARY KEY(run_id, seq),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`

	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertTerm inserts a term or merges it into the stored one. A repeated
// phrase keeps the higher score (and its type) and the union of variants.
func (s *sqliteStore) UpsertTerm(ctx context.Context, vocabulary string, t store.Term) error {
	if strings.TrimSpace(vocabulary) == "" || strings.TrimSpace(t.Phrase) == "" {
		return internalerr.ErrInvalidInput
	}
	typ := t.Type
	if typ == "" {
		typ = "unknown"
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO vocab_terms (vocabulary, phrase, score, type) VALUES (?, ?, ?, ?)
ON CONFLICT(vocabulary, phrase) DO UPDATE SET score=excluded.score, type=excluded.type
WHERE excluded.score > vocab_terms.score;
`, vocabulary, t.Phrase, t.Score, typ); err != nil {
		return err
	}

	variants := uniqueStrings(t.Variants)
	if len(variants) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO vocab_variants (vocabulary, phrase, variant) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, v := range variants {
			if _, err := stmt.ExecContext(ctx, vocabulary, t.Phrase, v); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteVocabulary removes a vocabulary with its variants.
// foreign_keys is a per-connection pragma, so variants are not left to the
// cascade.
func (s *sqliteStore) DeleteVocabulary(ctx context.Context, vocabulary string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM vocab_variants WHERE vocabulary=?`, vocabulary); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM vocab_terms WHERE vocabulary=?`, vocabulary); err != nil {
		return err
	}
	return tx.Commit()
}

// Vocabularies lists the stored vocabulary names
func (s *sqliteStore) Vocabularies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT vocabulary FROM vocab_terms ORDER BY vocabulary`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Terms loads all terms of a vocabulary ordered by phrase
func (s *sqliteStore) Terms(ctx context.Context, vocabulary string) ([]store.Term, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT phrase, score, type FROM vocab_terms WHERE vocabulary=? ORDER BY phrase
`, vocabulary)
	if err != nil {
		return nil, err
	}

	var terms []store.Term
	index := make(map[string]int)
	for rows.Next() {
		var t store.Term
		if err := rows.Scan(&t.Phrase, &t.Score, &t.Type); err != nil {
			rows.Close()
			return nil, err
		}
		index[t.Phrase] = len(terms)
		terms = append(terms, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	vrows, err := s.db.QueryContext(ctx, `
SELECT phrase, variant FROM vocab_variants WHERE vocabulary=? ORDER BY phrase, variant
`, vocabulary)
	if err != nil {
		return nil, err
	}
	defer vrows.Close()

	for vrows.Next() {
		var phrase, variant string
		if err := vrows.Scan(&phrase, &variant); err != nil {
			return nil, err
		}
		if i, ok := index[phrase]; ok {
			terms[i].Variants = append(terms[i].Variants, variant)
		}
	}
	return terms, vrows.Err()
}

// SaveRun stores a run and its annotations in one transaction
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return internalerr.ErrInvalidInput
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO runs (id, created_at) VALUES (?, ?)`,
		r.ID, r.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s: %w", r.ID, internalerr.ErrDuplicate)
	}

	if len(r.Annotations) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
INSERT INTO run_annotations (run_id, seq, doc_id, region, start_offset, end_offset, score, text, type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for i, a := range r.Annotations {
			if _, err := stmt.ExecContext(ctx, r.ID, i, a.DocID, a.Region, a.Start, a.End, a.Score, a.Text, a.Type); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// GetRun loads a run with its annotations in saved order
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, bool, error) {
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT created_at FROM runs WHERE id=?`, id).Scan(&created)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, false, nil
	}
	if err != nil {
		return store.Run{}, false, err
	}

	r := store.Run{ID: id}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		r.CreatedAt = ts
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT doc_id, region, start_offset, end_offset, score, text, type
FROM run_annotations WHERE run_id=? ORDER BY seq
`, id)
	if err != nil {
		return store.Run{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var a store.Annotation
		if err := rows.Scan(&a.DocID, &a.Region, &a.Start, &a.End, &a.Score, &a.Text, &a.Type); err != nil {
			return store.Run{}, false, err
		}
		r.Annotations = append(r.Annotations, a)
	}
	if err := rows.Err(); err != nil {
		return store.Run{}, false, err
	}
	return r, true, nil
}

func uniqueStrings(in []string) []string {
	set := make(map[string]struct{}, len(in))
	var out []string
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := set[v]; ok {
			continue
		}
		set[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
