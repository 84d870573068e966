package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"multi-rpc-gateway/pkg/gateway"
)

// JournalRepo keeps an audit trail of transaction broadcasts: one row per
// broadcast and one per endpoint attempt.
type JournalRepo struct {
	db DB
}

func NewJournalRepo(db DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) RecordBroadcast(ctx context.Context, ev gateway.BroadcastEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO broadcasts (trace_id, network, chain_id, tx_hash, succeeded, started_at, settled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (trace_id) DO NOTHING
	`, ev.TraceID, ev.Network.Name, int64(ev.Network.ChainID), nullable(ev.Hash), ev.Succeeded(), ev.Started, ev.Settled)
	if err != nil {
		return err
	}

	for _, a := range ev.Attempts {
		var errText string
		if a.Err != nil {
			errText = a.Err.Error()
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO broadcast_attempts (trace_id, endpoint_index, endpoint, tx_hash, error)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (trace_id, endpoint_index) DO NOTHING
		`, ev.TraceID, a.Index, a.Endpoint, nullable(a.Hash), nullable(errText))
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

type BroadcastRecord struct {
	TraceID   uuid.UUID
	Network   string
	ChainID   uint64
	Hash      string
	Succeeded bool
	Accepted  int
	Attempts  int
	StartedAt time.Time
	SettledAt time.Time
}

// RecentBroadcasts returns the latest broadcasts, newest first.
func (r *JournalRepo) RecentBroadcasts(ctx context.Context, limit int) ([]BroadcastRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT b.trace_id, b.network, b.chain_id, COALESCE(b.tx_hash, ''), b.succeeded,
		       COUNT(a.endpoint_index) FILTER (WHERE a.error IS NULL), COUNT(a.endpoint_index),
		       b.started_at, b.settled_at
		FROM broadcasts b
		LEFT JOIN broadcast_attempts a ON a.trace_id = b.trace_id
		GROUP BY b.trace_id
		ORDER BY b.started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BroadcastRecord
	for rows.Next() {
		var (
			rec     BroadcastRecord
			chainID int64
		)
		if err := rows.Scan(&rec.TraceID, &rec.Network, &chainID, &rec.Hash, &rec.Succeeded,
			&rec.Accepted, &rec.Attempts, &rec.StartedAt, &rec.SettledAt); err != nil {
			return nil, err
		}
		rec.ChainID = uint64(chainID)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *JournalRepo) MustHaveMigrations(ctx context.Context) error {
	// A light sanity check so we fail fast if migrations weren't applied.
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_schema='public' AND table_name='broadcast_attempts'
		)
	`).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("missing table broadcast_attempts; did you apply migrations in ./migrate ?")
	}
	return nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
