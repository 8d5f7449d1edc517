// Package store persists the canonical facility registry in Postgres.
// The registry is an optional reference source: correction runs can use
// it in place of a second file.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/hfmatch/internal/config"
	"github.com/hfmatch/internal/normalize"
	"github.com/hfmatch/internal/schema"
	"github.com/hfmatch/internal/table"
)

// Store wraps the registry database connection.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

// Open connects to Postgres and verifies the connection. A nil logger
// disables logging.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if log == nil {
		log = zap.NewNop()
	}
	return &Store{db: db, log: log}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const createRegistrySQL = `
CREATE TABLE IF NOT EXISTS facility_registry (
	id            SERIAL PRIMARY KEY,
	region        TEXT NOT NULL,
	zone          TEXT NOT NULL,
	woreda        TEXT NOT NULL,
	facility      TEXT NOT NULL DEFAULT '',
	region_norm   TEXT NOT NULL,
	zone_norm     TEXT NOT NULL,
	woreda_norm   TEXT NOT NULL,
	facility_norm TEXT NOT NULL DEFAULT '',
	loaded_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS facility_registry_region_zone_idx
	ON facility_registry (region_norm, zone_norm);
`

// EnsureSchema creates the registry table and its index when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createRegistrySQL); err != nil {
		return fmt.Errorf("create registry schema: %w", err)
	}
	return nil
}

// Load bulk-inserts a gazetteer table into the registry, computing the
// normalized columns on the way in. The whole load is one transaction;
// with replace set the existing registry is truncated inside it, so a
// failed load never leaves the registry half-replaced. The facility
// column is optional in the source mapping.
func (s *Store) Load(ctx context.Context, tbl *table.Table, m schema.Mapping, replace bool) (int, error) {
	regionCol, _ := m.Column(schema.FieldRegion)
	zoneCol, _ := m.Column(schema.FieldZone)
	woredaCol, _ := m.Column(schema.FieldWoreda)
	facilityCol, hasFacility := m.Column(schema.FieldFacility)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Rollback()

	if replace {
		if _, err := tx.ExecContext(ctx, `TRUNCATE facility_registry RESTART IDENTITY`); err != nil {
			return 0, fmt.Errorf("truncate registry: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO facility_registry
			(region, zone, woreda, facility, region_norm, zone_norm, woreda_norm, facility_norm)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range tbl.Rows {
		region := rec.Get(regionCol)
		zone := rec.Get(zoneCol)
		woreda := rec.Get(woredaCol)
		var facility string
		if hasFacility {
			facility = rec.Get(facilityCol)
		}

		_, err := stmt.ExecContext(ctx,
			region, zone, woreda, facility,
			normalize.Value(region), normalize.Value(zone),
			normalize.Value(woreda), normalize.Value(facility))
		if err != nil {
			return 0, fmt.Errorf("insert row %d: %w", rec.Index, err)
		}

		inserted++
		if inserted%1000 == 0 {
			s.log.Debug("registry load progress", zap.Int("rows", inserted))
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}

	s.log.Info("registry loaded",
		zap.Int("rows", inserted),
		zap.Bool("replace", replace))
	return inserted, nil
}

// FetchAll returns the registry in load order as a table with canonical
// headers, ready to serve as a correction reference.
func (s *Store) FetchAll(ctx context.Context) (*table.Table, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT region, zone, woreda, facility
		FROM facility_registry
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query registry: %w", err)
	}
	defer rows.Close()

	out := table.New(
		string(schema.FieldRegion),
		string(schema.FieldZone),
		string(schema.FieldWoreda),
		string(schema.FieldFacility),
	)
	for rows.Next() {
		var region, zone, woreda, facility string
		if err := rows.Scan(&region, &zone, &woreda, &facility); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		out.Append([]string{region, zone, woreda, facility})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return out, nil
}

// Stats describes registry size and coverage.
type Stats struct {
	Rows        int
	RegionZones int
	LastLoaded  time.Time
}

// Stats counts rows and distinct (region, zone) areas. LastLoaded is
// the zero time for an empty registry.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	var last sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*), count(DISTINCT (region_norm, zone_norm)), max(loaded_at)
		FROM facility_registry
	`).Scan(&st.Rows, &st.RegionZones, &last)
	if err != nil {
		return Stats{}, fmt.Errorf("registry stats: %w", err)
	}
	if last.Valid {
		st.LastLoaded = last.Time
	}
	return st, nil
}
