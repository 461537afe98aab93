package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/greenside/golfscout/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS facilities (
	place_id        TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT 'other',
	phone           TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	rating          DOUBLE PRECISION NOT NULL DEFAULT 0,
	review_count    INTEGER NOT NULL DEFAULT 0,
	business_status TEXT NOT NULL DEFAULT '',
	opening_hours   TEXT NOT NULL DEFAULT '',
	map_url         TEXT NOT NULL DEFAULT '',
	source_region   TEXT NOT NULL DEFAULT '',
	source_keyword  TEXT NOT NULL DEFAULT '',
	enrichment      TEXT NOT NULL DEFAULT 'pending',
	enrich_error    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS collection_state (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	run_id        TEXT NOT NULL,
	phase         TEXT NOT NULL,
	center_index  INTEGER NOT NULL DEFAULT 0,
	keyword_index INTEGER NOT NULL DEFAULT 0,
	page_token    TEXT NOT NULL DEFAULT '',
	processed     INTEGER NOT NULL DEFAULT 0,
	last_run_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facilities_enrichment ON facilities(enrichment);
CREATE INDEX IF NOT EXISTS idx_facilities_region ON facilities(source_region);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AppendFacility(ctx context.Context, f model.Facility) error {
	now := time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO facilities (`+facilityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		f.PlaceID, f.Name, f.Address, string(f.Category), f.Phone, f.Website,
		f.Rating, f.ReviewCount, f.BusinessStatus, f.OpeningHours, f.MapURL,
		f.SourceRegion, f.SourceKeyword, string(model.EnrichmentPending), "", now, now,
	)
	return eris.Wrapf(err, "postgres: append facility %s", f.PlaceID)
}

func (s *PostgresStore) SeenPlaceIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.pool.Query(ctx, `SELECT place_id FROM facilities`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: seen place ids")
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan place id")
		}
		seen[id] = struct{}{}
	}
	return seen, eris.Wrap(rows.Err(), "postgres: iterate place ids")
}

func (s *PostgresStore) PendingDetails(ctx context.Context, limit int) ([]model.Facility, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+facilityColumns+` FROM facilities
		 WHERE enrichment = $1 ORDER BY created_at, place_id LIMIT $2`,
		string(model.EnrichmentPending), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pending details")
	}
	defer rows.Close()
	return scanFacilities(rows)
}

func (s *PostgresStore) CountPendingDetails(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM facilities WHERE enrichment = $1`,
		string(model.EnrichmentPending),
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count pending")
}

func (s *PostgresStore) UpdateFacility(ctx context.Context, f model.Facility) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE facilities SET name = $1, address = $2, category = $3, phone = $4,
		 website = $5, rating = $6, review_count = $7, business_status = $8,
		 opening_hours = $9, enrichment = $10, enrich_error = $11, updated_at = $12
		 WHERE place_id = $13`,
		f.Name, f.Address, string(f.Category), f.Phone, f.Website,
		f.Rating, f.ReviewCount, f.BusinessStatus, f.OpeningHours,
		string(f.Enrichment), f.EnrichError, time.Now().UTC(), f.PlaceID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update facility %s", f.PlaceID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: facility %s not found", f.PlaceID)
	}
	return nil
}

func (s *PostgresStore) MarkEnrichError(ctx context.Context, placeID, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE facilities SET enrichment = $1, enrich_error = $2, updated_at = $3 WHERE place_id = $4`,
		string(model.EnrichmentError), reason, time.Now().UTC(), placeID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark enrich error %s", placeID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: facility %s not found", placeID)
	}
	return nil
}

func (s *PostgresStore) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+facilityColumns+` FROM facilities ORDER BY created_at, place_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list facilities")
	}
	defer rows.Close()
	return scanFacilities(rows)
}

func (s *PostgresStore) DeleteFacilities(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM facilities`)
	return eris.Wrap(err, "postgres: delete facilities")
}

func (s *PostgresStore) LoadState(ctx context.Context) (*model.CollectionState, error) {
	var st model.CollectionState
	var phase string
	err := s.pool.QueryRow(ctx,
		`SELECT run_id, phase, center_index, keyword_index, page_token, processed, last_run_at
		 FROM collection_state WHERE id = 1`,
	).Scan(&st.RunID, &phase, &st.CenterIndex, &st.KeywordIndex, &st.PageToken, &st.Processed, &st.LastRunAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load state")
	}
	st.Phase = model.Phase(phase)
	return &st, nil
}

func (s *PostgresStore) SaveState(ctx context.Context, st *model.CollectionState) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO collection_state (id, run_id, phase, center_index, keyword_index, page_token, processed, last_run_at)
		 VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			run_id = EXCLUDED.run_id,
			phase = EXCLUDED.phase,
			center_index = EXCLUDED.center_index,
			keyword_index = EXCLUDED.keyword_index,
			page_token = EXCLUDED.page_token,
			processed = EXCLUDED.processed,
			last_run_at = EXCLUDED.last_run_at`,
		st.RunID, string(st.Phase), st.CenterIndex, st.KeywordIndex,
		st.PageToken, st.Processed, st.LastRunAt.UTC(),
	)
	return eris.Wrap(err, "postgres: save state")
}

func (s *PostgresStore) ResetState(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM collection_state`)
	return eris.Wrap(err, "postgres: reset state")
}

func (s *PostgresStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoSetting
	}
	if err != nil {
		return "", eris.Wrapf(err, "postgres: get setting %s", key)
	}
	return value, nil
}

func (s *PostgresStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	return eris.Wrapf(err, "postgres: set setting %s", key)
}
