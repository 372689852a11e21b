package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification says whether a failed database operation is worth
// another attempt. Push batches from field devices are replayed wholesale on
// failure, so the distinction only matters for transient faults.
type ErrorClassification int

const (
	// NonRetryable covers constraint violations, bad SQL and anything the
	// classifier does not recognise. Replaying such a statement yields the
	// same failure.
	NonRetryable ErrorClassification = iota

	// Retryable covers transient faults such as dropped connections,
	// serialization failures and deadlock rollbacks.
	Retryable
)

// ErrNotFound marks a lookup that matched no row.
var ErrNotFound = errors.New("record is not found")

// ErrorClassificator is the database-specific half of the retry decision.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// PostgresErrorClassifier maps pgx driver errors to an [ErrorClassification]
// by SQLSTATE code.
type PostgresErrorClassifier struct{}

func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify unwraps err to a *pgconn.PgError and hands it to
// [ClassifyPgError]. Errors that did not come from the driver, including nil,
// are NonRetryable.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ClassifyPgError(pgErr)
	}

	return NonRetryable
}

// ClassifyPgError decides by SQLSTATE class. Connection loss (class 08),
// transaction rollback (class 40) and "cannot connect now" (57P03) are
// transient; data exceptions (22), constraint violations (23) and syntax or
// access errors (42) are permanent. Unknown codes count as permanent, which
// keeps a misclassified statement from looping.
func ClassifyPgError(pgErr *pgconn.PgError) ErrorClassification {
	switch pgErr.Code {
	case pgerrcode.ConnectionException,
		pgerrcode.ConnectionDoesNotExist,
		pgerrcode.ConnectionFailure,
		pgerrcode.TransactionRollback,
		pgerrcode.SerializationFailure,
		pgerrcode.DeadlockDetected,
		pgerrcode.CannotConnectNow:
		return Retryable
	}

	return NonRetryable
}
