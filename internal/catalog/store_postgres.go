package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"culturetrail/internal/geo"
	id "culturetrail/pkg/domain"
	"culturetrail/pkg/platform/sentinel"
)

// PostgresStore reads the catalog from the sites table. Sites are written by
// the external import tooling (and the optional startup seed), never by
// request handling.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const siteColumns = `id, name, category, COALESCE(district, ''), COALESCE(address, ''), lat, lng`

func (s *PostgresStore) ListAll(ctx context.Context) ([]Site, error) {
	// Ordered by insertion so proximity matching sees a stable iteration order.
	rows, err := s.db.QueryContext(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	return sites, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, siteID id.SiteID) (Site, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, siteID.String())
	site, err := scanSite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Site{}, sentinel.ErrNotFound
		}
		return Site{}, fmt.Errorf("find site %s: %w", siteID, err)
	}
	return site, nil
}

func (s *PostgresStore) DistinctCategories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT category FROM sites WHERE category <> '' ORDER BY category`)
}

func (s *PostgresStore) DistinctDistricts(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, `SELECT DISTINCT district FROM sites WHERE district IS NOT NULL AND district <> '' ORDER BY district`)
}

func (s *PostgresStore) CountByCategory(ctx context.Context, category string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites WHERE category = $1`, category).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sites by category: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountByDistrict(ctx context.Context, district string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites WHERE district = $1`, district).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count sites by district: %w", err)
	}
	return count, nil
}

// UpsertAll writes seed sites, preserving seq-based iteration order for new
// rows. Used only at startup when a seed file is configured.
func (s *PostgresStore) UpsertAll(ctx context.Context, sites []Site) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, site := range sites {
		var lat, lng sql.NullFloat64
		if site.Coordinate != nil {
			lat = sql.NullFloat64{Float64: site.Coordinate.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: site.Coordinate.Lng, Valid: true}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO sites (id, name, category, district, address, lat, lng)
			VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name,
				category = EXCLUDED.category,
				district = EXCLUDED.district,
				address = EXCLUDED.address,
				lat = EXCLUDED.lat,
				lng = EXCLUDED.lng`,
			site.ID.String(), site.Name, site.Category, site.District, site.Address, lat, lng)
		if err != nil {
			return fmt.Errorf("upsert site %s: %w", site.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) distinct(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("distinct query: %w", err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct query: %w", err)
	}
	return values, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (Site, error) {
	var (
		site     Site
		rawID    string
		lat, lng sql.NullFloat64
	)
	if err := row.Scan(&rawID, &site.Name, &site.Category, &site.District, &site.Address, &lat, &lng); err != nil {
		return Site{}, err
	}
	site.ID = id.SiteID(rawID)
	if lat.Valid && lng.Valid {
		site.Coordinate = &geo.Coordinate{Lat: lat.Float64, Lng: lng.Float64}
	}
	return site, nil
}
