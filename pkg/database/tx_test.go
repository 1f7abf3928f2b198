package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Commit(context.Context) error {
	tx.committed = true
	return tx.commitErr
}

func (tx *fakeTx) Rollback(context.Context) error {
	tx.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx  *fakeTx
	err error
}

func (b *fakeBeginner) Begin(context.Context) (pgx.Tx, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.tx, nil
}

func TestWithTxCommits(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}

	err := WithTx(context.Background(), db, func(context.Context, pgx.Tx) error { return nil })

	require.NoError(t, err)
	assert.True(t, db.tx.committed)
	assert.False(t, db.tx.rolledBack)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}
	boom := errors.New("boom")

	err := WithTx(context.Background(), db, func(context.Context, pgx.Tx) error { return boom })

	assert.ErrorIs(t, err, boom)
	assert.True(t, db.tx.rolledBack)
	assert.False(t, db.tx.committed)
}

func TestWithTxRollsBackAndRepanics(t *testing.T) {
	db := &fakeBeginner{tx: &fakeTx{}}

	assert.PanicsWithValue(t, "boom", func() {
		_ = WithTx(context.Background(), db, func(context.Context, pgx.Tx) error { panic("boom") })
	})
	assert.True(t, db.tx.rolledBack)
}

func TestWithTxReportsBeginAndCommitErrors(t *testing.T) {
	beginErr := errors.New("no connection")
	err := WithTx(context.Background(), &fakeBeginner{err: beginErr}, func(context.Context, pgx.Tx) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorIs(t, err, beginErr)

	commitErr := errors.New("serialization failure")
	db := &fakeBeginner{tx: &fakeTx{commitErr: commitErr}}
	err = WithTx(context.Background(), db, func(context.Context, pgx.Tx) error { return nil })
	assert.ErrorIs(t, err, commitErr)
}
