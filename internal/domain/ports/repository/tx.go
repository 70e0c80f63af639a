package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

// Tx is an opaque transaction handle threaded through repository calls.
// The concrete type is infra-defined (pgx.Tx for Postgres). Repositories
// MUST gracefully accept a nil Tx and fall back to the non-transactional
// path; callers never branch on whether they are "inside" a transaction.
type Tx interface{}

// NoTx marks an explicitly non-transactional call.
var NoTx Tx

// TransactionManager runs a function within a database transaction, passing
// the transaction handle via tx. If fn returns an error the transaction is
// rolled back, otherwise committed. Keeps use-case signatures free of
// storage types beyond this small surface.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
