package collabkit

import (
	"context"
	"fmt"
	"time"

	"github.com/fernandezvara/dbkit"
)

// TxFunc runs inside a transaction. db is the transaction handle and must be
// used for every statement that should commit or roll back together.
type TxFunc func(ctx context.Context, db dbkit.IDB) error

// Transaction executes fn within a database transaction with automatic commit/rollback.
// If fn returns an error, the transaction is rolled back. Otherwise, it's committed.
// When the service already runs on a transaction a savepoint is used instead.
//
// Example:
//
//	err := service.Transaction(ctx, func(ctx context.Context, db dbkit.IDB) error {
//	    _, err := db.NewUpdate().Model(doc).WherePK().Exec(ctx)
//	    return err // non-nil rolls back
//	})
func (s *Service) Transaction(ctx context.Context, fn TxFunc) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	case *dbkit.DBKit:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	default:
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// TransactionWithOptions executes fn within a database transaction with custom options.
// Options are ignored when the service already runs on a transaction.
//
// Example:
//
//	err := service.TransactionWithOptions(ctx, dbkit.SerializableTxOptions(), fn)
func (s *Service) TransactionWithOptions(ctx context.Context, opts dbkit.TxOptions, fn TxFunc) error {
	start := time.Now()
	var err error

	switch db := s.db.(type) {
	case *dbkit.Tx:
		err = db.Transaction(ctx, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	case *dbkit.DBKit:
		err = db.TransactionWithOptions(ctx, opts, func(tx *dbkit.Tx) error {
			return fn(ctx, tx)
		})
	default:
		err = fmt.Errorf("transaction support requires a dbkit.DBKit or dbkit.Tx instance")
	}

	s.txMonitor.recordTransaction(time.Since(start), err == nil)
	return err
}

// ReadOnlyTransaction executes fn within a read-only database transaction.
// Useful for consistent multi-table reads such as an entity plus its audit trail.
func (s *Service) ReadOnlyTransaction(ctx context.Context, fn TxFunc) error {
	return s.TransactionWithOptions(ctx, dbkit.ReadOnlyTxOptions(), fn)
}
