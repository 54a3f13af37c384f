package docstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// Schema creates the single table backing every collection.
const Schema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	customer   TEXT NOT NULL,
	name       TEXT NOT NULL,
	body       JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (collection, customer, name)
)`

// pgExecutor is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores documents as JSONB rows.
type Postgres struct {
	exec pgExecutor
}

// NewPostgres constructs a Postgres store over any pgx executor.
func NewPostgres(exec pgExecutor) *Postgres {
	return &Postgres{exec: exec}
}

// Migrate ensures the documents table exists.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.exec.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("docstore: migrate: %w", err)
	}
	return nil
}

// Get implements Store.
func (p *Postgres) Get(ctx context.Context, collection, customer, name string) ([]byte, error) {
	if err := checkKey(collection, name); err != nil {
		return nil, err
	}
	var body []byte
	err := p.exec.QueryRow(ctx,
		`SELECT body FROM documents WHERE collection = $1 AND customer = $2 AND name = $3`,
		collection, customer, name,
	).Scan(&body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return body, nil
}

// Insert implements Store.
func (p *Postgres) Insert(ctx context.Context, collection, customer, name string, doc []byte) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	_, err := p.exec.Exec(ctx,
		`INSERT INTO documents (collection, customer, name, body) VALUES ($1, $2, $3, $4)`,
		collection, customer, name, doc,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// Put implements Store.
func (p *Postgres) Put(ctx context.Context, collection, customer, name string, doc []byte) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	_, err := p.exec.Exec(ctx,
		`INSERT INTO documents (collection, customer, name, body) VALUES ($1, $2, $3, $4)
		ON CONFLICT (collection, customer, name) DO UPDATE SET body = EXCLUDED.body, updated_at = NOW()`,
		collection, customer, name, doc,
	)
	return err
}

// Delete implements Store.
func (p *Postgres) Delete(ctx context.Context, collection, customer, name string) error {
	if err := checkKey(collection, name); err != nil {
		return err
	}
	tag, err := p.exec.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND customer = $2 AND name = $3`,
		collection, customer, name,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List implements Store using keyset pagination on name.
func (p *Postgres) List(ctx context.Context, collection, customer string, limit int, cursor string) (Page, error) {
	if err := checkCollection(collection); err != nil {
		return Page{}, err
	}
	limit = normalizeLimit(limit)
	rows, err := p.exec.Query(ctx,
		`SELECT name, body FROM documents
		WHERE collection = $1 AND customer = $2 AND name > $3
		ORDER BY name LIMIT $4`,
		collection, customer, cursor, limit+1,
	)
	if err != nil {
		return Page{}, err
	}
	defer rows.Close()
	var page Page
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Name, &doc.Body); err != nil {
			return Page{}, err
		}
		page.Items = append(page.Items, doc)
	}
	if err := rows.Err(); err != nil {
		return Page{}, err
	}
	if len(page.Items) > limit {
		page.Items = page.Items[:limit]
		page.NextCursor = page.Items[limit-1].Name
	}
	return page, nil
}

var _ Store = (*Postgres)(nil)
