// Package postgres provides the Postgres-backed delivery history store.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/printpulse/printpulse/internal/store"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

const defaultTable = "deliveries"

// DeliveryStoreConfig controls the Postgres connection pool used for history rows.
type DeliveryStoreConfig struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type queryPool interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	Close()
}

// DeliveryStore writes and reads webhook delivery attempts in Postgres. It
// implements store.DeliveryRepository.
type DeliveryStore struct {
	pool  queryPool
	table string
}

// NewDeliveryStore creates a Postgres-backed DeliveryStore using the provided config.
func NewDeliveryStore(ctx context.Context, cfg DeliveryStoreConfig) (*DeliveryStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("history.dsn is required")
	}
	table := cfg.Table
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &DeliveryStore{pool: pool, table: table}, nil
}

// NewDeliveryStoreWithPool constructs a store from an existing pool (primarily for testing).
func NewDeliveryStoreWithPool(pool queryPool, table string) (*DeliveryStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = defaultTable
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &DeliveryStore{pool: pool, table: table}, nil
}

// Close releases the underlying pool resources.
func (s *DeliveryStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// RecordDelivery inserts one delivery attempt.
func (s *DeliveryStore) RecordDelivery(ctx context.Context, rec store.DeliveryRecord) error {
	if s == nil || s.pool == nil {
		return fmt.Errorf("delivery store is not configured")
	}
	query := fmt.Sprintf(`
		INSERT INTO %s (id, event_type, job_name, percent, attempted_at, outcome, status_code, error_message)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8);
	`, s.table)
	_, err := s.pool.Exec(ctx, query,
		rec.ID,
		rec.EventType,
		rec.JobName,
		rec.Percent,
		rec.AttemptedAt,
		string(rec.Outcome),
		rec.StatusCode,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("insert delivery: %w", err)
	}
	return nil
}

// ListDeliveries returns recent attempts, newest first.
func (s *DeliveryStore) ListDeliveries(ctx context.Context, limit, offset int) ([]store.DeliveryRecord, error) {
	if s == nil || s.pool == nil {
		return nil, fmt.Errorf("delivery store is not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
		SELECT id, event_type, job_name, percent, attempted_at, outcome, status_code, error_message
		FROM %s
		ORDER BY attempted_at DESC
		LIMIT $1 OFFSET $2;
	`, s.table)
	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list deliveries: %w", err)
	}
	defer rows.Close()

	var out []store.DeliveryRecord
	for rows.Next() {
		var rec store.DeliveryRecord
		var outcome string
		if err := rows.Scan(
			&rec.ID,
			&rec.EventType,
			&rec.JobName,
			&rec.Percent,
			&rec.AttemptedAt,
			&outcome,
			&rec.StatusCode,
			&rec.Error,
		); err != nil {
			return nil, fmt.Errorf("scan delivery row: %w", err)
		}
		rec.Outcome = store.Outcome(outcome)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery rows: %w", err)
	}
	return out, nil
}
