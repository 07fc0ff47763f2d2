// Package canonical is the read-only adapter over the relational source of
// truth for listings. The discovery service never writes to it.
package canonical

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver

	"github.com/armorymarket/discovery/internal/domain"
)

// Open connects to the canonical Postgres store and verifies connectivity.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open canonical store: %w", err)
	}
	db.SetMaxOpenConns(8)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping canonical store: %w", err)
	}
	return db, nil
}

// Repo reads canonical listings.
type Repo struct {
	db *sql.DB
}

// New creates a canonical store repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

const listActiveQuery = `
SELECT id, title, description, price_cents,
       category_id, subcategory_id,
       manufacturer, model, condition, action,
       seller_location_code, created_at, updated_at
FROM listings
WHERE status = 'active'
ORDER BY id`

// ListActive returns every listing currently eligible for indexing.
// Eligibility is decided here, in one place: sold, draft and removed
// listings are filtered out by the query itself.
func (r *Repo) ListActive(ctx context.Context) ([]domain.Listing, error) {
	rows, err := r.db.QueryContext(ctx, listActiveQuery)
	if err != nil {
		return nil, fmt.Errorf("list active listings: %w", err)
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		l := domain.Listing{Status: domain.StatusActive}
		err := rows.Scan(
			&l.ID, &l.Title, &l.Description, &l.Price,
			&l.CategoryID, &l.SubcategoryID,
			&l.Manufacturer, &l.Model, &l.Condition, &l.Action,
			&l.LocationCode, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}

	return listings, nil
}
