package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"predictionScope/internal/model"
)

//go:embed schema.sql
var schema string

// Store provides Postgres persistence for exported projections.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn: %w", model.ErrConfigurationMissing)
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the export tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// PutMarkets inserts or updates one row per round.
func (s *Store) PutMarkets(ctx context.Context, markets []model.MarketState) error {
	if len(markets) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(`
			INSERT INTO markets (
				round_id, question, close_timestamp_ms, total_yes, total_no, yield_pool,
				resolved, winning_side, created_by, create_digest, created_at_ms, updated_at
			) VALUES ($1::numeric, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7, $8, $9, $10, $11::numeric, now())
			ON CONFLICT (round_id)
			DO UPDATE SET
				question = EXCLUDED.question,
				close_timestamp_ms = EXCLUDED.close_timestamp_ms,
				total_yes = EXCLUDED.total_yes,
				total_no = EXCLUDED.total_no,
				yield_pool = EXCLUDED.yield_pool,
				resolved = EXCLUDED.resolved,
				winning_side = EXCLUDED.winning_side,
				created_by = EXCLUDED.created_by,
				create_digest = EXCLUDED.create_digest,
				created_at_ms = EXCLUDED.created_at_ms,
				updated_at = now()
		`,
			numeric(m.RoundID),
			m.Question,
			numeric(m.CloseTimestampMs),
			numeric(m.TotalYes),
			numeric(m.TotalNo),
			numeric(m.YieldPool),
			m.Resolved,
			int16(m.WinningSide),
			m.CreatedBy,
			m.CreateDigest,
			numeric(m.CreatedAtMs),
		)
	}
	return s.sendBatch(ctx, batch, len(markets))
}

// PutPortfolio replaces the owner's positions and upserts their activity in one transaction.
// Positions that dropped out of the projection are removed.
func (s *Store) PutPortfolio(ctx context.Context, portfolio model.Portfolio) error {
	if portfolio.Owner == "" {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin portfolio tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM user_positions WHERE owner = $1`, portfolio.Owner)
	for _, pos := range portfolio.Positions {
		batch.Queue(`
			INSERT INTO user_positions (owner, round_id, yes, no, total, updated_at)
			VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5::numeric, now())
		`,
			portfolio.Owner,
			numeric(pos.RoundID),
			numeric(pos.Yes),
			numeric(pos.No),
			numeric(pos.Total),
		)
	}
	for _, act := range portfolio.History {
		batch.Queue(`
			INSERT INTO user_activity (owner, digest, action, round_id, amount, side, timestamp_ms)
			VALUES ($1, $2, $3, $4::numeric, $5::numeric, $6, $7::numeric)
			ON CONFLICT (owner, digest, action, round_id)
			DO UPDATE SET
				amount = EXCLUDED.amount,
				side = EXCLUDED.side,
				timestamp_ms = EXCLUDED.timestamp_ms
		`,
			portfolio.Owner,
			act.Digest,
			string(act.Action),
			numeric(act.RoundID),
			numeric(act.Amount),
			int16(act.Side),
			numeric(act.TimestampMs),
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("store portfolio %s: %w", portfolio.Owner, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close portfolio batch: %w", err)
	}
	return tx.Commit(ctx)
}

// LoadState returns the stored fingerprint for a name.
func (s *Store) LoadState(ctx context.Context, name string) (string, bool, error) {
	if name == "" {
		return "", false, fmt.Errorf("state name required")
	}
	var fingerprint string
	row := s.pool.QueryRow(ctx, `SELECT fingerprint FROM sync_state WHERE name=$1`, name)
	if err := row.Scan(&fingerprint); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}
	return fingerprint, true, nil
}

// SaveState upserts the fingerprint for a name.
func (s *Store) SaveState(ctx context.Context, name string, fingerprint string) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sync_state (name, fingerprint, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET fingerprint = EXCLUDED.fingerprint, updated_at = now()
	`, name, fingerprint)
	return err
}

func (s *Store) sendBatch(ctx context.Context, batch *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// numeric renders a u64 for a NUMERIC(20,0) column; BIGINT cannot hold the full range.
func numeric(v uint64) string {
	return strconv.FormatUint(v, 10)
}
