// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

// Package validators screens incoming sync payloads before they touch the
// replay log. Validation lives behind the [Validator] interface so the sync
// service can be exercised with a permissive stand-in.
package validators

import "context"

// Validator checks an arbitrary input value. Passing field names restricts
// the check to those fields, which lets the push path skip device checks the
// resolve path already performed.
type Validator interface {
	Validate(context.Context, any, ...string) error
}
