package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier is the subset of pgx shared by pools and transactions, so the same
// repository code runs inside and outside a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store bundles the repositories behind a single transactional boundary.
// WithinTx runs fn against a store whose repositories share one transaction;
// the entity write and its audit appends either all commit or all roll back.
type Store interface {
	Defects() DefectRepository
	History() DefectHistoryRepository
	Projects() ProjectRepository
	Users() UserRepository
	Comments() CommentRepository
	WithinTx(ctx context.Context, fn func(Store) error) error
}

type sqlStore struct {
	pool *pgxpool.Pool
	db   Querier
}

// NewStore builds a postgres-backed store over the given pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &sqlStore{pool: pool, db: pool}
}

func (s *sqlStore) Defects() DefectRepository        { return &defectRepository{db: s.db} }
func (s *sqlStore) History() DefectHistoryRepository { return &defectHistoryRepository{db: s.db} }
func (s *sqlStore) Projects() ProjectRepository      { return &projectRepository{db: s.db} }
func (s *sqlStore) Users() UserRepository            { return &userRepository{db: s.db} }
func (s *sqlStore) Comments() CommentRepository      { return &commentRepository{db: s.db} }

func (s *sqlStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.pool == nil {
		// already inside a transaction
		return fn(s)
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&sqlStore{db: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ErrNotFound is returned when a row does not exist. It aliases pgx.ErrNoRows
// so pgx-level callers keep working.
var ErrNotFound = pgx.ErrNoRows

// IsNotFound reports whether err signals a missing row.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
