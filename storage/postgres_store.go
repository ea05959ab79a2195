package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"asin-lister/models"
)

// PostgresStore persists listing candidates to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresStore.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		select {
		case <-ctx.Done():
			_ = db.Close()
			return nil, fmt.Errorf("postgres: ping: %w", ctx.Err())
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	ps := &PostgresStore{db: db}
	if err := ps.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return ps, nil
}

func (ps *PostgresStore) migrate(ctx context.Context) error {
	_, err := ps.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS candidates (
			asin       TEXT          PRIMARY KEY,
			name       TEXT          NOT NULL DEFAULT '',
			catalog_id TEXT          NOT NULL DEFAULT '',
			image      TEXT          NOT NULL DEFAULT '',
			price      NUMERIC(12,2) NOT NULL DEFAULT 0,
			in_stock   BOOLEAN,
			item_code  TEXT          NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ   NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_candidates_item_code  ON candidates(item_code);
		CREATE INDEX IF NOT EXISTS idx_candidates_updated_at ON candidates(updated_at);
	`)
	return err
}

// Save upserts candidates in batches.
func (ps *PostgresStore) Save(ctx context.Context, items []models.ListingCandidate) error {
	const batchSize = 50
	for i := 0; i < len(items); i += batchSize {
		end := i + batchSize
		if end > len(items) {
			end = len(items)
		}
		if err := ps.upsertBatch(ctx, items[i:end]); err != nil {
			return fmt.Errorf("postgres: save: %w", err)
		}
	}
	return nil
}

func (ps *PostgresStore) upsertBatch(ctx context.Context, batch []models.ListingCandidate) error {
	const cols = 7
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, c := range batch {
		base := idx * cols
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6, base+7))

		var inStock sql.NullBool
		if c.InStock != nil {
			inStock = sql.NullBool{Bool: *c.InStock, Valid: true}
		}
		updated := c.UpdatedAt
		if updated.IsZero() {
			updated = time.Now()
		}
		valueArgs = append(valueArgs, c.ASIN, c.Name, c.CatalogID, c.Image, c.Price, inStock, updated)
	}

	query := fmt.Sprintf(`
		INSERT INTO candidates (asin, name, catalog_id, image, price, in_stock, updated_at)
		VALUES %s
		ON CONFLICT (asin) DO UPDATE SET
			name       = EXCLUDED.name,
			catalog_id = CASE WHEN EXCLUDED.catalog_id = '' THEN candidates.catalog_id ELSE EXCLUDED.catalog_id END,
			image      = EXCLUDED.image,
			price      = EXCLUDED.price,
			in_stock   = EXCLUDED.in_stock,
			updated_at = EXCLUDED.updated_at
	`, strings.Join(valueStrings, ","))

	_, err := ps.db.ExecContext(ctx, query, valueArgs...)
	return err
}

// Refresh stores candidates updated with fresh source data. The destination
// item code is never touched.
func (ps *PostgresStore) Refresh(ctx context.Context, candidates []models.ListingCandidate) error {
	return ps.Save(ctx, candidates)
}

// Load retrieves all stored candidates ordered by identifier.
func (ps *PostgresStore) Load(ctx context.Context) ([]models.ListingCandidate, error) {
	rows, err := ps.db.QueryContext(ctx, `
		SELECT asin, name, catalog_id, image, price, in_stock, item_code, updated_at
		FROM candidates
		ORDER BY asin
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: load: %w", err)
	}
	defer rows.Close()

	items := []models.ListingCandidate{}
	for rows.Next() {
		var c models.ListingCandidate
		var inStock sql.NullBool
		if err := rows.Scan(
			&c.ASIN, &c.Name, &c.CatalogID, &c.Image, &c.Price,
			&inStock, &c.ItemCode, &c.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		if inStock.Valid {
			v := inStock.Bool
			c.InStock = &v
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// Delete removes asins except those on the keep list and returns the
// identifiers actually removed.
func (ps *PostgresStore) Delete(ctx context.Context, asins []string, keep []string) ([]string, error) {
	targets := DeletableASINs(asins, keep)
	if len(targets) == 0 {
		return []string{}, nil
	}

	rows, err := ps.db.QueryContext(ctx,
		`DELETE FROM candidates WHERE asin = ANY($1) RETURNING asin`, pq.Array(targets))
	if err != nil {
		return nil, fmt.Errorf("postgres: delete: %w", err)
	}
	defer rows.Close()

	removed := []string{}
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("postgres: scan deleted: %w", err)
		}
		removed = append(removed, strings.TrimSpace(a))
	}
	return removed, rows.Err()
}

// RecordListed stores the destination item code of successfully listed items.
func (ps *PostgresStore) RecordListed(ctx context.Context, listed []models.ListingOutcome) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (asin, item_code, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (asin) DO UPDATE SET item_code = EXCLUDED.item_code, updated_at = NOW()
	`)
	if err != nil {
		return fmt.Errorf("postgres: prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range listed {
		if _, err := stmt.ExecContext(ctx, o.ASIN, o.ItemCode); err != nil {
			return fmt.Errorf("postgres: record %s: %w", o.ASIN, err)
		}
	}
	return tx.Commit()
}

func (ps *PostgresStore) Close() error {
	return ps.db.Close()
}

// DeletableASINs filters the keep-on-delete identifiers out of asins.
func DeletableASINs(asins, keep []string) []string {
	kept := make(map[string]struct{}, len(keep))
	for _, k := range keep {
		kept[strings.ToUpper(strings.TrimSpace(k))] = struct{}{}
	}
	out := []string{}
	for _, a := range asins {
		if _, ok := kept[strings.ToUpper(strings.TrimSpace(a))]; ok {
			continue
		}
		out = append(out, a)
	}
	return out
}
