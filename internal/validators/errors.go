package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrInvalidUserID        = errors.New("invalid user ID")
	ErrInvalidOperationID   = errors.New("invalid operation id")
	ErrInvalidOperationType = errors.New("invalid operation type")
	ErrUnknownEntityKind    = errors.New("unknown entity kind")
	ErrInvalidEntityID      = errors.New("invalid entity id")
	ErrInvalidTimestamp     = errors.New("invalid timestamp")
	ErrEmptyOperations      = errors.New("operations list cannot be empty")
	ErrInvalidDeviceID      = errors.New("invalid device id")
	ErrInvalidResolution    = errors.New("invalid resolution choice")
	ErrMissingMergedData    = errors.New("merged data is required for this resolution")
)
