package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// Store extends Querier with transactional execution. Services depend on
// Store so that tests can substitute an in-memory implementation.
type Store interface {
	Querier

	// ExecTx runs fn inside a transaction. The transaction is committed if
	// fn returns nil and rolled back otherwise.
	ExecTx(ctx context.Context, opts *sql.TxOptions, fn func(Querier) error) error
}

// SQLStore is the database-backed Store.
type SQLStore struct {
	*Queries
	db *sql.DB
}

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		Queries: New(db),
		db:      db,
	}
}

// ExecTx runs fn inside a database transaction.
func (s *SQLStore) ExecTx(ctx context.Context, opts *sql.TxOptions, fn func(Querier) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.Queries.WithTx(tx)); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

var _ Store = (*SQLStore)(nil)
