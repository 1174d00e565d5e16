// Package postgres implements the maintenance and export interfaces over the
// pipeline's readings database.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mkarls/aqi-ops/internal/domain"
	"github.com/mkarls/aqi-ops/internal/export"
	"github.com/mkarls/aqi-ops/internal/maintenance"
)

// readingsSchema is the canonical DDL for the readings table, used by the
// reset operation. Deployed schemas are managed by the collector; this exists
// so a scratch environment can be stood up (or a corrupted one torn down)
// with one command.
const readingsSchema = `
CREATE TABLE readings (
    id          BIGSERIAL PRIMARY KEY,
    station_id  TEXT        NOT NULL,
    observed_at TIMESTAMPTZ NOT NULL,
    pm25        DOUBLE PRECISION,
    pm10        DOUBLE PRECISION,
    aqi         INTEGER     NOT NULL DEFAULT 0
);
CREATE INDEX readings_observed_at_idx ON readings (observed_at);
CREATE INDEX readings_station_id_idx ON readings (station_id);
`

// Store wraps a pgx connection pool with the queries the tools need.
// It implements maintenance.ReadingSource, maintenance.IndexWriter,
// maintenance.StatsSource, maintenance.RetentionStore, and export.RowSource.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to the readings database and verifies the connection.
func New(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// FetchBatch returns up to limit readings with id greater than afterID,
// in ascending id order.
func (s *Store) FetchBatch(ctx context.Context, afterID int64, limit int) ([]domain.Reading, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, station_id, observed_at, pm25, pm10, aqi
		 FROM readings WHERE id > $1 ORDER BY id LIMIT $2`,
		afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("fetch readings batch: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// UpdateIndexes rewrites the aqi column for each update in a single
// pipelined batch.
func (s *Store) UpdateIndexes(ctx context.Context, updates []domain.IndexUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, u := range updates {
		batch.Queue(`UPDATE readings SET aqi = $1 WHERE id = $2`, u.NewIndex, u.ReadingID)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range updates {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("update reading index: %w", err)
		}
	}
	return nil
}

// CollectionStats counts readings observed since the given time.
func (s *Store) CollectionStats(ctx context.Context, since time.Time) (maintenance.CollectionStats, error) {
	var stats maintenance.CollectionStats
	err := s.pool.QueryRow(ctx,
		`SELECT count(*), coalesce(max(observed_at), 'epoch'::timestamptz)
		 FROM readings WHERE observed_at >= $1`,
		since,
	).Scan(&stats.Count, &stats.LatestObservedAt)
	if err != nil {
		return maintenance.CollectionStats{}, fmt.Errorf("collection stats: %w", err)
	}
	return stats, nil
}

// DeleteReadingsBefore removes readings observed before the cutoff and
// returns the number of rows deleted.
func (s *Store) DeleteReadingsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM readings WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete readings: %w", err)
	}
	return tag.RowsAffected(), nil
}

// StreamReadings invokes fn for every reading matching the filter, in
// ascending id order, without materializing the full result set.
func (s *Store) StreamReadings(ctx context.Context, filter export.Filter, fn func(domain.Reading) error) error {
	query, args := exportQuery(filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("stream readings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("stream readings: %w", err)
	}
	return nil
}

// TableInfo describes one user table for the inspection command.
type TableInfo struct {
	Name    string
	RowsEst int64
}

// ListTables returns the public schema's tables with planner row estimates.
func (s *Store) ListTables(ctx context.Context) ([]TableInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT relname, n_live_tup FROM pg_stat_user_tables ORDER BY relname`,
	)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	var tables []TableInfo
	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Name, &t.RowsEst); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		tables = append(tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	return tables, nil
}

// ResetSchema drops and recreates the readings table. Destructive; the
// dbmaint command requires explicit confirmation before calling it.
func (s *Store) ResetSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DROP TABLE IF EXISTS readings`); err != nil {
		return fmt.Errorf("drop readings table: %w", err)
	}
	if _, err := s.pool.Exec(ctx, readingsSchema); err != nil {
		return fmt.Errorf("create readings table: %w", err)
	}
	s.logger.Info("readings schema reset")
	return nil
}

// exportQuery builds the filtered export statement. Kept pure for testing.
func exportQuery(filter export.Filter) (string, []any) {
	query := `SELECT id, station_id, observed_at, pm25, pm10, aqi FROM readings`
	var args []any
	var conds []string

	if filter.Station != "" {
		args = append(args, filter.Station)
		conds = append(conds, "station_id = $"+strconv.Itoa(len(args)))
	}
	if !filter.Since.IsZero() {
		args = append(args, filter.Since)
		conds = append(conds, "observed_at >= $"+strconv.Itoa(len(args)))
	}
	if !filter.Until.IsZero() {
		args = append(args, filter.Until)
		conds = append(conds, "observed_at < $"+strconv.Itoa(len(args)))
	}

	for i, c := range conds {
		if i == 0 {
			query += " WHERE " + c
		} else {
			query += " AND " + c
		}
	}
	return query + " ORDER BY id", args
}

func scanReadings(rows pgx.Rows) ([]domain.Reading, error) {
	var readings []domain.Reading
	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		readings = append(readings, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return readings, nil
}

func scanReading(rows pgx.Rows) (domain.Reading, error) {
	var r domain.Reading
	if err := rows.Scan(&r.ID, &r.StationID, &r.ObservedAt, &r.PM25, &r.PM10, &r.AQI); err != nil {
		return domain.Reading{}, fmt.Errorf("scan reading: %w", err)
	}
	return r, nil
}
