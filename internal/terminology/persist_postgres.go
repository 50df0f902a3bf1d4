package terminology

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresInitTimeout = 15 * time.Second

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS terminology_rules (
		position INTEGER PRIMARY KEY,
		wrong_term TEXT UNIQUE NOT NULL,
		correct_term TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS terminology_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		saved_at TIMESTAMPTZ NOT NULL
	)`,
}

type PostgresPersister struct {
	pool *pgxpool.Pool
}

// OpenPostgresPersister connects, pings and migrates.
func OpenPostgresPersister(databaseURL string) (*PostgresPersister, error) {
	ctx, cancel := context.WithTimeout(context.Background(), postgresInitTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	for _, s := range postgresMigrations {
		if _, err := pool.Exec(ctx, strings.TrimSpace(s)); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return &PostgresPersister{pool: pool}, nil
}

func (p *PostgresPersister) Close() { p.pool.Close() }

func (p *PostgresPersister) Load(ctx context.Context) ([]Rule, error) {
	var one int
	err := p.pool.QueryRow(ctx, `SELECT 1 FROM terminology_meta WHERE id = 1`).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx,
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

func (p *PostgresPersister) Save(ctx context.Context, rules []Rule) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM terminology_rules`); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for i, r := range rules {
		batch.Queue(`INSERT INTO terminology_rules (position, wrong_term, correct_term) VALUES ($1, $2, $3)`,
			i, r.Wrong, r.Correct)
	}
	batch.Queue(`INSERT INTO terminology_meta (id, saved_at) VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET saved_at = EXCLUDED.saved_at`, time.Now().UTC())
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("write dictionary rows: %w", err)
	}
	return tx.Commit(ctx)
}
