package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"swapScope/internal/model"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS pool_snapshots (
	asset           TEXT PRIMARY KEY,
	asset_depth     NUMERIC NOT NULL,
	rune_depth      NUMERIC NOT NULL,
	asset_price     TEXT NOT NULL DEFAULT '',
	asset_price_usd TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL DEFAULT '',
	units           TEXT NOT NULL DEFAULT '',
	volume_24h      TEXT NOT NULL DEFAULT '',
	pool_apy        TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS tx_journal (
	id           UUID PRIMARY KEY,
	kind         TEXT NOT NULL,
	chain        TEXT NOT NULL,
	tx_id        TEXT NOT NULL,
	asset        TEXT NOT NULL,
	amount       TEXT NOT NULL,
	recipient    TEXT NOT NULL,
	memo         TEXT NOT NULL,
	submitted_at TIMESTAMPTZ NOT NULL
);
`

// db is the part of *pgxpool.Pool the store uses.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

// Store provides Postgres persistence for pool snapshots and the
// transfer journal.
type Store struct {
	pool db
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

// EnsureSchema creates missing tables.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// UpsertPoolSnapshots inserts or updates the latest snapshot per asset.
func (s *Store) UpsertPoolSnapshots(ctx context.Context, pools []model.PoolDetail) error {
	if len(pools) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, p := range pools {
		batch.Queue(`
			INSERT INTO pool_snapshots (
				asset, asset_depth, rune_depth, asset_price, asset_price_usd, status, units, volume_24h, pool_apy, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
			ON CONFLICT (asset)
			DO UPDATE SET
				asset_depth = EXCLUDED.asset_depth,
				rune_depth = EXCLUDED.rune_depth,
				asset_price = EXCLUDED.asset_price,
				asset_price_usd = EXCLUDED.asset_price_usd,
				status = EXCLUDED.status,
				units = EXCLUDED.units,
				volume_24h = EXCLUDED.volume_24h,
				pool_apy = EXCLUDED.pool_apy,
				updated_at = now()
		`,
			p.Asset,
			numericOrZero(p.AssetDepth),
			numericOrZero(p.RuneDepth),
			p.AssetPrice,
			p.AssetPriceUSD,
			p.Status,
			p.Units,
			p.Volume24h,
			p.PoolAPY,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range pools {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert pool snapshot: %w", err)
		}
	}
	return nil
}

// LoadPoolSnapshots returns stored snapshots. An empty status returns all.
func (s *Store) LoadPoolSnapshots(ctx context.Context, status string) ([]model.PoolDetail, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT asset, asset_depth::text, rune_depth::text, asset_price, asset_price_usd, status, units, volume_24h, pool_apy
		FROM pool_snapshots
		WHERE $1 = '' OR status = $1
		ORDER BY asset
	`, status)
	if err != nil {
		return nil, fmt.Errorf("query pool snapshots: %w", err)
	}
	defer rows.Close()

	var out []model.PoolDetail
	for rows.Next() {
		var p model.PoolDetail
		if err := rows.Scan(&p.Asset, &p.AssetDepth, &p.RuneDepth, &p.AssetPrice, &p.AssetPriceUSD, &p.Status, &p.Units, &p.Volume24h, &p.PoolAPY); err != nil {
			return nil, fmt.Errorf("scan pool snapshot: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool snapshots: %w", err)
	}
	return out, nil
}

// InsertTxRecords appends journal entries. Re-inserting an id is a no-op.
func (s *Store) InsertTxRecords(ctx context.Context, records []model.TxRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		submitted, err := time.Parse(time.RFC3339, r.SubmittedAt)
		if err != nil {
			return fmt.Errorf("tx %s submitted_at: %w", r.ID, err)
		}
		batch.Queue(`
			INSERT INTO tx_journal (id, kind, chain, tx_id, asset, amount, recipient, memo, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (id) DO NOTHING
		`,
			r.ID,
			string(r.Kind),
			r.Chain,
			r.TxID,
			r.Asset,
			r.Amount,
			r.Recipient,
			r.Memo,
			submitted,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert tx record: %w", err)
		}
	}
	return nil
}

// Journal adapts the store to a context-free journal sink bound to ctx.
func (s *Store) Journal(ctx context.Context) *Journal {
	return &Journal{ctx: ctx, store: s}
}

// Journal writes transfer records through a Store.
type Journal struct {
	ctx   context.Context
	store *Store
}

func (j *Journal) PutTxBatch(records []model.TxRecord) error {
	return j.store.InsertTxRecords(j.ctx, records)
}

func numericOrZero(v string) string {
	if v == "" {
		return "0"
	}
	return v
}
