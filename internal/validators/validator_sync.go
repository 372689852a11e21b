package validators

import (
	"context"
	"fmt"

	"github.com/aberthet/chantier-sync/models"
)

const (
	FieldOperationID   = "operation_id"
	FieldUserID        = "user_id"
	FieldOperationType = "operation_type"
	FieldEntityKind    = "entity_kind"
	FieldEntityID      = "entity_id"
	FieldTimestamp     = "timestamp"
	FieldOperations    = "operations"
	FieldDeviceID      = "device_id"
	FieldResolution    = "resolution"
	FieldMergedData    = "merged_data"
)

// maxFutureSkew bounds how far ahead of now a client timestamp may sit before
// it is rejected as a broken clock rather than drift.
const maxFutureSkew = int64(24 * 60 * 60 * 1000)

type SyncValidator struct {
	// now returns the current epoch-millisecond time; replaceable in tests.
	now func() int64
}

func NewSyncValidator(now func() int64) Validator {
	return &SyncValidator{now: now}
}

func (v *SyncValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.Operation:
		return v.validateOperation(ctx, value, fields...)
	case *models.Operation:
		return v.validateOperation(ctx, *value, fields...)

	case models.PushRequest:
		return v.validatePushRequest(ctx, value, fields...)
	case *models.PushRequest:
		return v.validatePushRequest(ctx, *value, fields...)

	case models.ResolveRequest:
		return v.validateResolveRequest(ctx, value, fields...)
	case *models.ResolveRequest:
		return v.validateResolveRequest(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

func (v *SyncValidator) validateOperation(ctx context.Context, op models.Operation, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldOperationID, FieldOperationType, FieldEntityKind, FieldEntityID, FieldTimestamp}
	}

	for _, f := range fields {
		switch f {
		case FieldOperationID:
			if op.ID == "" {
				return ErrInvalidOperationID
			}
		case FieldUserID:
			if op.UserID <= 0 {
				return ErrInvalidUserID
			}
		case FieldOperationType:
			if !op.Type.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidOperationType, op.Type)
			}
		case FieldEntityKind:
			if !op.Entity.Valid() {
				return fmt.Errorf("%w: %q", ErrUnknownEntityKind, op.Entity)
			}
		case FieldEntityID:
			if op.EntityID == "" {
				return ErrInvalidEntityID
			}
		case FieldTimestamp:
			if op.Timestamp <= 0 {
				return ErrInvalidTimestamp
			}
			if v.now != nil && op.Timestamp > v.now()+maxFutureSkew {
				return fmt.Errorf("%w: %d is too far in the future", ErrInvalidTimestamp, op.Timestamp)
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *SyncValidator) validatePushRequest(ctx context.Context, request models.PushRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldDeviceID, FieldOperations}
	}

	for _, f := range fields {
		switch f {
		case FieldDeviceID:
			if request.DeviceID == "" {
				return ErrInvalidDeviceID
			}
		case FieldOperations:
			if len(request.Operations) == 0 {
				return ErrEmptyOperations
			}
			for i, op := range request.Operations {
				if err := v.validateOperation(ctx, op); err != nil {
					return fmt.Errorf("validation error at index %d: %w", i, err)
				}
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}

func (v *SyncValidator) validateResolveRequest(ctx context.Context, request models.ResolveRequest, fields ...string) error {
	if len(fields) == 0 {
		fields = []string{FieldResolution, FieldEntityKind, FieldEntityID, FieldMergedData}
	}

	for _, f := range fields {
		switch f {
		case FieldResolution:
			if !request.Resolution.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidResolution, request.Resolution)
			}
		case FieldEntityKind:
			if !request.Entity.Valid() {
				return fmt.Errorf("%w: %q", ErrUnknownEntityKind, request.Entity)
			}
		case FieldEntityID:
			if request.EntityID == "" {
				return ErrInvalidEntityID
			}
		case FieldMergedData:
			if request.Resolution != models.ResolutionRemote && len(request.MergedData) == 0 {
				return ErrMissingMergedData
			}
		default:
			return ErrUnknownField
		}
	}

	return nil
}
