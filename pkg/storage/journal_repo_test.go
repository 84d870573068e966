package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"multi-rpc-gateway/pkg/gateway"
)

type execCall struct {
	sql  string
	args []any
}

// fakeTx records Exec calls; the embedded interface panics on anything else.
type fakeTx struct {
	pgx.Tx
	execs      []execCall
	failOn     int
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	tx.execs = append(tx.execs, execCall{sql: sql, args: args})
	if tx.failOn == len(tx.execs) {
		return pgconn.CommandTag{}, errors.New("deadlock detected")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	DB
	tx *fakeTx
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) { return db.tx, nil }

func broadcastEvent() gateway.BroadcastEvent {
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return gateway.BroadcastEvent{
		TraceID: uuid.New(),
		Network: gateway.NetworkDescriptor{Name: "homestead", ChainID: 1},
		Hash:    "0x123",
		Attempts: []gateway.BroadcastAttempt{
			{Endpoint: "a", Index: 0, Hash: "0x123"},
			{Endpoint: "b", Index: 1, Err: errors.New("already known")},
		},
		Started: started,
		Settled: started.Add(time.Second),
	}
}

func TestRecordBroadcast(t *testing.T) {
	tx := &fakeTx{}
	repo := NewJournalRepo(&fakeDB{tx: tx})
	ev := broadcastEvent()

	require.NoError(t, repo.RecordBroadcast(context.Background(), ev))
	require.True(t, tx.committed)
	require.Len(t, tx.execs, 3)

	require.Contains(t, tx.execs[0].sql, "INSERT INTO broadcasts")
	require.Equal(t, ev.TraceID, tx.execs[0].args[0])
	require.Equal(t, int64(1), tx.execs[0].args[2])
	require.Equal(t, true, tx.execs[0].args[4])

	ok := tx.execs[1].args
	require.Equal(t, "a", ok[2])
	require.Equal(t, "0x123", *ok[3].(*string))
	require.Nil(t, ok[4].(*string))

	failed := tx.execs[2].args
	require.Nil(t, failed[3].(*string))
	require.Equal(t, "already known", *failed[4].(*string))
}

func TestRecordBroadcastRollsBack(t *testing.T) {
	tx := &fakeTx{failOn: 2}
	repo := NewJournalRepo(&fakeDB{tx: tx})

	require.Error(t, repo.RecordBroadcast(context.Background(), broadcastEvent()))
	require.False(t, tx.committed)
	require.True(t, tx.rolledBack)
}
