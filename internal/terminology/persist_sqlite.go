package terminology

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS terminology_rules (
    position INTEGER PRIMARY KEY,
    wrong_term TEXT UNIQUE NOT NULL,
    correct_term TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS terminology_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    saved_at DATETIME NOT NULL
);`

// SQLitePersister stores the rule document in a SQLite file, one row per
// rule with its position in the order.
type SQLitePersister struct {
	db *sql.DB
}

func OpenSQLitePersister(path string) (*SQLitePersister, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &SQLitePersister{db: db}, nil
}

func (p *SQLitePersister) Close() error { return p.db.Close() }

func (p *SQLitePersister) Load(ctx context.Context) ([]Rule, error) {
	var one int
	err := p.db.QueryRowContext(ctx, `SELECT 1 FROM terminology_meta WHERE id = 1`).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx,
		`SELECT wrong_term, correct_term FROM terminology_rules ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.Wrong, &r.Correct); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (p *SQLitePersister) Save(ctx context.Context, rules []Rule) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM terminology_rules`); err != nil {
		return err
	}
	for i, r := range rules {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO terminology_rules (position, wrong_term, correct_term) VALUES (?, ?, ?)`,
			i, r.Wrong, r.Correct); err != nil {
			return fmt.Errorf("insert rule %q: %w", r.Wrong, err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO terminology_meta (id, saved_at) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET saved_at = excluded.saved_at`,
		time.Now().UTC()); err != nil {
		return err
	}
	return tx.Commit()
}
