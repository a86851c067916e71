package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"yieldConnector/internal/model"
)

// Store provides Postgres persistence for action records, cast failures and
// indexed pool events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS action_records (
		cast_id TEXT NOT NULL,
		action_index INT NOT NULL,
		kind TEXT NOT NULL,
		event_name TEXT NOT NULL,
		account TEXT NOT NULL,
		asset TEXT NOT NULL,
		pool TEXT NOT NULL,
		amount_in NUMERIC(78,0) NOT NULL,
		amount_out NUMERIC(78,0) NOT NULL,
		min_output NUMERIC(78,0) NOT NULL,
		deadline BIGINT NOT NULL,
		bond_id NUMERIC(78,0),
		term_days INT,
		read_slot BIGINT NOT NULL,
		write_slot BIGINT NOT NULL,
		event_param TEXT NOT NULL,
		executed_at BIGINT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (cast_id, action_index)
	)`,
	`CREATE TABLE IF NOT EXISTS cast_failures (
		cast_id TEXT PRIMARY KEY,
		account TEXT NOT NULL,
		action_index INT NOT NULL,
		method TEXT NOT NULL,
		kind TEXT NOT NULL,
		error TEXT NOT NULL,
		failed_at TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS pool_events (
		chain_id BIGINT NOT NULL,
		block_number BIGINT NOT NULL,
		block_hash TEXT NOT NULL,
		tx_hash TEXT NOT NULL,
		log_index BIGINT NOT NULL,
		pool TEXT NOT NULL,
		event_name TEXT NOT NULL,
		account TEXT NOT NULL,
		amount_in NUMERIC(78,0),
		amount_out NUMERIC(78,0),
		fee NUMERIC(78,0),
		bond_id NUMERIC(78,0),
		term_days INT,
		removed BOOLEAN NOT NULL,
		block_ts BIGINT NOT NULL,
		ingested_at TEXT NOT NULL,
		PRIMARY KEY (chain_id, tx_hash, log_index)
	)`,
}

// EnsureSchema creates the tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// PutActionBatch inserts the records of one committed cast in a single
// transaction.
func (s *Store) PutActionBatch(ctx context.Context, records []model.ActionRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(`
			INSERT INTO action_records (
				cast_id, action_index, kind, event_name, account, asset, pool,
				amount_in, amount_out, min_output, deadline, bond_id, term_days,
				read_slot, write_slot, event_param, executed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
			ON CONFLICT (cast_id, action_index) DO NOTHING
		`,
			r.CastID,
			r.ActionIndex,
			string(r.Kind),
			r.EventName,
			r.Account,
			r.Asset,
			r.Pool,
			r.AmountIn,
			r.AmountOut,
			r.MinOutput,
			int64(r.Deadline),
			nullable(r.BondID),
			nullableDays(uint64(r.TermDays)),
			int64(r.ReadSlot),
			int64(r.WriteSlot),
			r.EventParam,
			int64(r.ExecutedAt),
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	br := tx.SendBatch(ctx, batch)
	for range records {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// PutCastFailure inserts one failure record.
func (s *Store) PutCastFailure(ctx context.Context, f model.CastFailure) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO cast_failures (cast_id, account, action_index, method, kind, error, failed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (cast_id) DO NOTHING
	`, f.CastID, f.Account, f.ActionIndex, f.Method, f.Kind, f.Error, f.FailedAt)
	return err
}

// PutPoolEventBatch inserts indexed pool events, skipping ones already stored.
func (s *Store) PutPoolEventBatch(ctx context.Context, events []model.PoolEventRecord) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				chain_id, block_number, block_hash, tx_hash, log_index, pool, event_name, account,
				amount_in, amount_out, fee, bond_id, term_days, removed, block_ts, ingested_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			ON CONFLICT (chain_id, tx_hash, log_index) DO NOTHING
		`,
			int64(e.ChainID),
			int64(e.BlockNumber),
			e.BlockHash,
			e.TxHash,
			int64(e.LogIndex),
			e.Pool,
			e.EventName,
			e.Account,
			nullable(e.AmountIn),
			nullable(e.AmountOut),
			nullable(e.Fee),
			nullable(e.BondID),
			nullableDays(e.TermDays),
			e.Removed,
			int64(e.Timestamp),
			e.IngestedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullableDays(days uint64) *int64 {
	if days == 0 {
		return nil
	}
	v := int64(days)
	return &v
}
