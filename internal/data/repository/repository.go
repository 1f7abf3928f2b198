package repository

import (
	"context"
	"errors"

	"cinema-reviews/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
)

const uniqueViolation = "23505"

// Repository groups the stores. A Repository handed to a WithTx callback is
// bound to that transaction.
type Repository struct {
	User   UserRepository
	Review ReviewRepository
	Like   LikeRepository

	tx transactor
}

type transactor interface {
	transact(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error
}

// WithTx runs fn as one unit of work. If fn returns an error nothing it did
// through the given Repository is kept.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context, tx *Repository) error) error {
	return r.tx.transact(ctx, fn)
}

// NewRepository returns the Postgres-backed stores.
func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	repo := newRepositorySet(db, log)
	repo.tx = &pgTransactor{db: db, log: log}
	return repo
}

func newRepositorySet(db database.DBTX, log *zap.Logger) *Repository {
	return &Repository{
		User:   NewUserRepository(db, log),
		Review: NewReviewRepository(db, log),
		Like:   NewLikeRepository(db, log),
	}
}

type pgTransactor struct {
	db  database.Beginner
	log *zap.Logger
}

func (t *pgTransactor) transact(ctx context.Context, fn func(ctx context.Context, repo *Repository) error) error {
	return database.WithTx(ctx, t.db, func(ctx context.Context, tx pgx.Tx) error {
		txRepo := newRepositorySet(tx, t.log)
		// nested WithTx calls become savepoints
		txRepo.tx = &pgTransactor{db: tx, log: t.log}
		return fn(ctx, txRepo)
	})
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
