package service

import (
	"context"
	"database/sql"

	"github.com/artuino0/personal-finance-app-sub000/internal/repository"
)

// maxSerializableAttempts bounds how often a serializable transaction is
// retried after Postgres aborts it.
const maxSerializableAttempts = 3

// execSerializable runs fn in a SERIALIZABLE transaction, starting over
// with a fresh snapshot when Postgres reports a serialization failure. fn
// must not keep state between attempts.
func execSerializable(ctx context.Context, store repository.Store, fn func(repository.Querier) error) error {
	opts := &sql.TxOptions{Isolation: sql.LevelSerializable}

	var err error
	for attempt := 1; attempt <= maxSerializableAttempts; attempt++ {
		err = store.ExecTx(ctx, opts, fn)
		if !repository.IsSerializationFailure(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}
