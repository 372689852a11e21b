// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

package service

import (
	"errors"

	"github.com/aberthet/chantier-sync/internal/adapter"
	"github.com/aberthet/chantier-sync/internal/store"
)

// mapAdapterError translates the adapter's transport sentinels into the
// business errors the rest of the client reasons about. Unmapped errors pass
// through unchanged.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, adapter.ErrBadRequest):
		return ErrInvalidDataProvided

	case errors.Is(err, adapter.ErrUnauthorized):
		return ErrTokenIsExpiredOrInvalid

	case errors.Is(err, adapter.ErrNotFound):
		return store.ErrEntityNotFound

	case errors.Is(err, adapter.ErrConflict):
		return store.ErrLoginAlreadyExists
	}

	return err
}
