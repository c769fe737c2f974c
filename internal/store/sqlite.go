package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ecomap/internal/dataset"
	"github.com/sells-group/ecomap/internal/model"
	"github.com/sells-group/ecomap/internal/status"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS loads (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	rows_read    INTEGER NOT NULL,
	rows_dropped INTEGER NOT NULL,
	records      INTEGER NOT NULL,
	columns      TEXT NOT NULL,
	loaded_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS locations (
	load_id      TEXT NOT NULL REFERENCES loads(id) ON DELETE CASCADE,
	seq          INTEGER NOT NULL,
	name         TEXT NOT NULL,
	lat          REAL NOT NULL,
	lon          REAL NOT NULL,
	score        REAL NOT NULL,
	tier         TEXT NOT NULL,
	marker_color TEXT NOT NULL,
	pm25         REAL,
	pm10         REAL,
	aqi          REAL,
	no2          REAL,
	o3           REAL,
	so2          REAL,
	PRIMARY KEY (load_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_loads_loaded_at ON loads(loaded_at);
CREATE INDEX IF NOT EXISTS idx_locations_tier ON locations(load_id, tier);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveDataset writes a load row and every location in one transaction.
func (s *SQLiteStore) SaveDataset(ctx context.Context, ds *dataset.Dataset) (*Load, error) {
	if ds == nil {
		return nil, eris.New("sqlite: nil dataset")
	}
	colsJSON, err := json.Marshal(ds.Columns)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal columns")
	}

	loadedAt := ds.LoadedAt.UTC()
	if ds.LoadedAt.IsZero() {
		loadedAt = s.now()
	}
	l := &Load{
		ID:          uuid.New().String(),
		Source:      ds.Source,
		RowsRead:    ds.Read,
		RowsDropped: ds.Dropped,
		Records:     len(ds.Records),
		Columns:     ds.Columns,
		LoadedAt:    loadedAt,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.ExecContext(ctx,
		`INSERT INTO loads (id, source, rows_read, rows_dropped, records, columns, loaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Source, l.RowsRead, l.RowsDropped, l.Records, string(colsJSON), l.LoadedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert load")
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO locations (load_id, seq, name, lat, lon, score, tier, marker_color, pm25, pm10, aqi, no2, o3, so2)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: prepare location insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i, r := range ds.Records {
		_, err := stmt.ExecContext(ctx,
			l.ID, i, r.Name, r.Lat, r.Lon, r.Score,
			string(status.TierOf(r.Score)), status.MarkerColor(r.Score),
			nullable(r.PM25), nullable(r.PM10), nullable(r.AQI),
			nullable(r.NO2), nullable(r.O3), nullable(r.SO2),
		)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: insert location %d", i)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit")
	}
	return l, nil
}

func (s *SQLiteStore) GetLoad(ctx context.Context, id string) (*Load, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, rows_read, rows_dropped, records, columns, loaded_at FROM loads WHERE id = ?`,
		id,
	)
	return scanLoad(row)
}

func (s *SQLiteStore) ListLoads(ctx context.Context, limit int) ([]Load, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, rows_read, rows_dropped, records, columns, loaded_at FROM loads
		 ORDER BY loaded_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list loads")
	}
	defer rows.Close() //nolint:errcheck

	var loads []Load
	for rows.Next() {
		l, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		loads = append(loads, *l)
	}
	return loads, eris.Wrap(rows.Err(), "sqlite: list loads iterate")
}

// Locations returns the records of a load in their original order.
func (s *SQLiteStore) Locations(ctx context.Context, loadID string, filter LocationFilter) ([]model.Location, error) {
	query := `SELECT name, lat, lon, score, pm25, pm10, aqi, no2, o3, so2 FROM locations WHERE load_id = ?`
	args := []any{loadID}

	if filter.Tier != "" {
		query += ` AND tier = ?`
		args = append(args, string(filter.Tier))
	}
	query += ` ORDER BY seq`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list locations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Location
	for rows.Next() {
		var r model.Location
		var pm25, pm10, aqi, no2, o3, so2 sql.NullFloat64
		if err := rows.Scan(&r.Name, &r.Lat, &r.Lon, &r.Score, &pm25, &pm10, &aqi, &no2, &o3, &so2); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan location")
		}
		r.PM25, r.PM10, r.AQI = fromNull(pm25), fromNull(pm10), fromNull(aqi)
		r.NO2, r.O3, r.SO2 = fromNull(no2), fromNull(o3), fromNull(so2)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list locations iterate")
}

// TierCounts counts stored locations per tier. Every tier is present.
func (s *SQLiteStore) TierCounts(ctx context.Context, loadID string) (map[status.Tier]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tier, COUNT(*) FROM locations WHERE load_id = ? GROUP BY tier`,
		loadID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: tier counts")
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[status.Tier]int, len(status.Tiers))
	for _, t := range status.Tiers {
		counts[t] = 0
	}
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan tier count")
		}
		counts[status.Tier(tier)] = n
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: tier counts iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanLoad(row scannable) (*Load, error) {
	var l Load
	var colsJSON string
	err := row.Scan(&l.ID, &l.Source, &l.RowsRead, &l.RowsDropped, &l.Records, &colsJSON, &l.LoadedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("load not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan load")
	}
	if err := json.Unmarshal([]byte(colsJSON), &l.Columns); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal columns")
	}
	return &l, nil
}

func nullable(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNull(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
