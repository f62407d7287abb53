package repository

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Tx interface{}

var NoTX interface{}

// TransactionManager runs a function inside a storage transaction, handing the
// transaction handle to repositories through the opaque Tx argument.
//
// Use-case interfaces stay free of driver types; repositories accept a nil Tx
// for the non-transactional path and detect the concrete handle otherwise
// (pgx.Tx for Postgres). If fn returns an error the transaction rolls back,
// otherwise it commits.
type TransactionManager interface {
	WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx Tx) error) error
}
