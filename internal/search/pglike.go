package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgLike implements Searcher with a plain ILIKE scan over service orders.
// It is the fallback when Meilisearch is down.
type PgLike struct {
	db *sql.DB
}

func NewPgLike(db *sql.DB) *PgLike {
	return &PgLike{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgLike) Healthy() bool {
	return true
}

// Search matches the query text against folio, title, client, and engineer.
func (p *PgLike) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	where := `(folio ILIKE $1 OR title ILIKE $1 OR client_name ILIKE $1 OR engineer_name ILIKE $1 OR location ILIKE $1)`
	args := []any{"%" + q.Text + "%"}
	if q.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", len(args)+1)
		args = append(args, q.Status)
	}

	ctx := context.Background()

	var total int
	countSQL := "SELECT count(*) FROM service_orders WHERE " + where
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("search count: %w", err)
	}

	dataSQL := fmt.Sprintf(`
		SELECT id, folio, title, client_name, engineer_name, status
		FROM service_orders
		WHERE %s
		ORDER BY created_at DESC
		LIMIT %d OFFSET %d`, where, limit, offset)

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(&r.ID, &r.Folio, &r.Title, &r.Client, &r.Engineer, &r.Status); err != nil {
			return nil, 0, fmt.Errorf("search scan: %w", err)
		}
		results = append(results, r)
	}
	return results, total, rows.Err()
}

// LoadAllRecords returns every order for full reindexing.
func (p *PgLike) LoadAllRecords(ctx context.Context) ([]OrderRecord, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, folio, title, client_name, engineer_name, status, location
		FROM service_orders
	`)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	defer rows.Close()

	records := make([]OrderRecord, 0)
	for rows.Next() {
		var r OrderRecord
		if err := rows.Scan(&r.ID, &r.Folio, &r.Title, &r.Client, &r.Engineer, &r.Status, &r.Location); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return records, nil
}
