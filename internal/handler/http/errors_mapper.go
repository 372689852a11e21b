package http

import (
	"errors"
	"net/http"

	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/internal/store"
	"github.com/aberthet/chantier-sync/internal/validators"
)

var errorStatusMap = map[error]int{
	service.ErrInvalidDataProvided:     http.StatusBadRequest,
	service.ErrWrongPassword:           http.StatusUnauthorized,
	service.ErrTokenIsExpired:          http.StatusUnauthorized,
	service.ErrTokenIsExpiredOrInvalid: http.StatusUnauthorized,
	service.ErrVersionIsNotSpecified:   http.StatusBadRequest,
	service.ErrUnknownResolution:       http.StatusBadRequest,
	service.ErrNothingToResolve:        http.StatusNotFound,

	validators.ErrInvalidUserID:        http.StatusBadRequest,
	validators.ErrInvalidOperationID:   http.StatusBadRequest,
	validators.ErrInvalidOperationType: http.StatusBadRequest,
	validators.ErrUnknownEntityKind:    http.StatusBadRequest,
	validators.ErrInvalidEntityID:      http.StatusBadRequest,
	validators.ErrInvalidTimestamp:     http.StatusBadRequest,
	validators.ErrEmptyOperations:      http.StatusBadRequest,
	validators.ErrInvalidDeviceID:      http.StatusBadRequest,
	validators.ErrInvalidResolution:    http.StatusBadRequest,
	validators.ErrMissingMergedData:    http.StatusBadRequest,

	store.ErrLoginAlreadyExists: http.StatusConflict,
	store.ErrNoUserWasFound:     http.StatusNotFound,
	store.ErrEntityNotFound:     http.StatusNotFound,
	store.ErrUnknownEntityKind:  http.StatusBadRequest,
	store.ErrOperationNotSaved:  http.StatusInternalServerError,

	store.ErrBuildingSQLQuery:     http.StatusInternalServerError,
	store.ErrExecutingQuery:       http.StatusInternalServerError,
	store.ErrBeginningTransaction: http.StatusInternalServerError,
	store.ErrCommitingTransaction: http.StatusInternalServerError,
	store.ErrExecutingStatement:   http.StatusInternalServerError,
	store.ErrScanningRow:          http.StatusInternalServerError,
}

func statusFromError(err error) int {
	for target, status := range errorStatusMap {
		if errors.Is(err, target) {
			return status
		}
	}
	return http.StatusInternalServerError
}
