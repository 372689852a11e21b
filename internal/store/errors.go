package store

import "errors"

// Domain sentinels. Callers match these with [errors.Is]; the HTTP layer maps
// them onto status codes.
var (
	// ErrLoginAlreadyExists surfaces the unique-constraint violation on
	// registration.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoUserWasFound marks a login lookup that matched nobody.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrEntityNotFound marks a read or update that targeted an entity the
	// replica does not hold.
	ErrEntityNotFound = errors.New("entity record was not found")

	// ErrUnknownEntityKind marks an operation naming a kind outside the
	// closed replicated set, so no table can be resolved for it.
	ErrUnknownEntityKind = errors.New("unknown entity kind")

	// ErrOperationNotSaved marks a replay-log insert that succeeded at the
	// SQL level yet affected zero rows.
	ErrOperationNotSaved = errors.New("operation was not saved")
)

// SQL-level sentinels, wrapped around driver errors so repository callers can
// tell which stage of a statement failed without parsing driver text.
var (
	ErrBuildingSQLQuery     = errors.New("error building sql query")
	ErrExecutingQuery       = errors.New("error executing sql query")
	ErrBeginningTransaction = errors.New("failed to begin transaction")
	ErrCommitingTransaction = errors.New("failed to commit transaction")
	ErrExecutingStatement   = errors.New("failed to executing statement")
	ErrScanningRow          = errors.New("failed to scan row")
)
