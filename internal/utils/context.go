// Package utils carries the small cross-cutting helpers the rest of the
// module leans on: typed context keys, JWT generation and validation, HTTP
// response writing, the shared resty client and id generation.
package utils

import (
	"context"
)

// contextKey keeps our context values from colliding with string keys set by
// other packages.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey holds the authenticated user id. Set by the auth middleware,
// read by every guarded handler.
var UserIDCtxKey = contextKey("userID")

// DeviceIDCtxKey holds the calling device id, taken from the X-Device-ID
// header when present. Sync handlers fall back to the request body or query
// value, so absence here is not an error.
var DeviceIDCtxKey = contextKey("deviceID")

// GetUserIDFromContext reports the authenticated user id, if any.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}

// GetDeviceIDFromContext reports the calling device id. An empty string
// counts as absent.
func GetDeviceIDFromContext(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(DeviceIDCtxKey).(string)
	return deviceID, ok && deviceID != ""
}
