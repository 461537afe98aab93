package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/greenside/golfscout/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode. synchronous=NORMAL with WAL keeps committed batches durable
// across process exits.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS facilities (
	place_id        TEXT PRIMARY KEY,
	name            TEXT NOT NULL DEFAULT '',
	address         TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT 'other',
	phone           TEXT NOT NULL DEFAULT '',
	website         TEXT NOT NULL DEFAULT '',
	rating          REAL NOT NULL DEFAULT 0,
	review_count    INTEGER NOT NULL DEFAULT 0,
	business_status TEXT NOT NULL DEFAULT '',
	opening_hours   TEXT NOT NULL DEFAULT '',
	map_url         TEXT NOT NULL DEFAULT '',
	source_region   TEXT NOT NULL DEFAULT '',
	source_keyword  TEXT NOT NULL DEFAULT '',
	enrichment      TEXT NOT NULL DEFAULT 'pending',
	enrich_error    TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS collection_state (
	id            INTEGER PRIMARY KEY CHECK (id = 1),
	run_id        TEXT NOT NULL,
	phase         TEXT NOT NULL,
	center_index  INTEGER NOT NULL DEFAULT 0,
	keyword_index INTEGER NOT NULL DEFAULT 0,
	page_token    TEXT NOT NULL DEFAULT '',
	processed     INTEGER NOT NULL DEFAULT 0,
	last_run_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_facilities_enrichment ON facilities(enrichment);
CREATE INDEX IF NOT EXISTS idx_facilities_region ON facilities(source_region);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const facilityColumns = `place_id, name, address, category, phone, website,
	rating, review_count, business_status, opening_hours, map_url,
	source_region, source_keyword, enrichment, enrich_error, created_at, updated_at`

func (s *SQLiteStore) AppendFacility(ctx context.Context, f model.Facility) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO facilities (`+facilityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.PlaceID, f.Name, f.Address, string(f.Category), f.Phone, f.Website,
		f.Rating, f.ReviewCount, f.BusinessStatus, f.OpeningHours, f.MapURL,
		f.SourceRegion, f.SourceKeyword, string(model.EnrichmentPending), "", now, now,
	)
	return eris.Wrapf(err, "sqlite: append facility %s", f.PlaceID)
}

func (s *SQLiteStore) SeenPlaceIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT place_id FROM facilities`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: seen place ids")
	}
	defer rows.Close()

	seen := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan place id")
		}
		seen[id] = struct{}{}
	}
	return seen, eris.Wrap(rows.Err(), "sqlite: iterate place ids")
}

func (s *SQLiteStore) PendingDetails(ctx context.Context, limit int) ([]model.Facility, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+facilityColumns+` FROM facilities
		 WHERE enrichment = ? ORDER BY created_at, place_id LIMIT ?`,
		string(model.EnrichmentPending), limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: pending details")
	}
	defer rows.Close()
	return scanFacilities(rows)
}

func (s *SQLiteStore) CountPendingDetails(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM facilities WHERE enrichment = ?`,
		string(model.EnrichmentPending),
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count pending")
}

func (s *SQLiteStore) UpdateFacility(ctx context.Context, f model.Facility) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facilities SET name = ?, address = ?, category = ?, phone = ?,
		 website = ?, rating = ?, review_count = ?, business_status = ?,
		 opening_hours = ?, enrichment = ?, enrich_error = ?, updated_at = ?
		 WHERE place_id = ?`,
		f.Name, f.Address, string(f.Category), f.Phone, f.Website,
		f.Rating, f.ReviewCount, f.BusinessStatus, f.OpeningHours,
		string(f.Enrichment), f.EnrichError, time.Now().UTC(), f.PlaceID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update facility %s", f.PlaceID)
	}
	return checkRowsAffected(res, f.PlaceID)
}

func (s *SQLiteStore) MarkEnrichError(ctx context.Context, placeID, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE facilities SET enrichment = ?, enrich_error = ?, updated_at = ? WHERE place_id = ?`,
		string(model.EnrichmentError), reason, time.Now().UTC(), placeID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark enrich error %s", placeID)
	}
	return checkRowsAffected(res, placeID)
}

func (s *SQLiteStore) ListFacilities(ctx context.Context) ([]model.Facility, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+facilityColumns+` FROM facilities ORDER BY created_at, place_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list facilities")
	}
	defer rows.Close()
	return scanFacilities(rows)
}

func (s *SQLiteStore) DeleteFacilities(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM facilities`)
	return eris.Wrap(err, "sqlite: delete facilities")
}

func (s *SQLiteStore) LoadState(ctx context.Context) (*model.CollectionState, error) {
	var st model.CollectionState
	var phase string
	err := s.db.QueryRowContext(ctx,
		`SELECT run_id, phase, center_index, keyword_index, page_token, processed, last_run_at
		 FROM collection_state WHERE id = 1`,
	).Scan(&st.RunID, &phase, &st.CenterIndex, &st.KeywordIndex, &st.PageToken, &st.Processed, &st.LastRunAt)
	if err == sql.ErrNoRows {
		return nil, ErrNoState
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load state")
	}
	st.Phase = model.Phase(phase)
	return &st, nil
}

func (s *SQLiteStore) SaveState(ctx context.Context, st *model.CollectionState) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_state (id, run_id, phase, center_index, keyword_index, page_token, processed, last_run_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			run_id = excluded.run_id,
			phase = excluded.phase,
			center_index = excluded.center_index,
			keyword_index = excluded.keyword_index,
			page_token = excluded.page_token,
			processed = excluded.processed,
			last_run_at = excluded.last_run_at`,
		st.RunID, string(st.Phase), st.CenterIndex, st.KeywordIndex,
		st.PageToken, st.Processed, st.LastRunAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: save state")
}

func (s *SQLiteStore) ResetState(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM collection_state`)
	return eris.Wrap(err, "sqlite: reset state")
}

func (s *SQLiteStore) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", ErrNoSetting
	}
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: get setting %s", key)
	}
	return value, nil
}

func (s *SQLiteStore) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return eris.Wrapf(err, "sqlite: set setting %s", key)
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanFacilities(rows rowScanner) ([]model.Facility, error) {
	var out []model.Facility
	for rows.Next() {
		var f model.Facility
		var category, enrichment string
		if err := rows.Scan(
			&f.PlaceID, &f.Name, &f.Address, &category, &f.Phone, &f.Website,
			&f.Rating, &f.ReviewCount, &f.BusinessStatus, &f.OpeningHours, &f.MapURL,
			&f.SourceRegion, &f.SourceKeyword, &enrichment, &f.EnrichError,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan facility")
		}
		f.Category = model.Category(category)
		f.Enrichment = model.EnrichmentStatus(enrichment)
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "store: iterate facilities")
}

func checkRowsAffected(res sql.Result, placeID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: facility %s not found", placeID)
	}
	return nil
}
