// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Antoine Berthet

// Package adapter provides transport-layer abstractions for communicating with
// the chantier-sync server.
//
// The primary abstraction is [ServerAdapter], which decouples the client
// service layer from the underlying protocol. The package ships an HTTP/REST
// implementation ([NewHTTPServerAdapter]) and a WebSocket client
// ([RealtimeClient]) for the push channel.
//
// Error values defined in errors.go are mapped from HTTP status codes by
// mapHTTPError so that callers can use [errors.Is] for transport-agnostic error
// handling (e.g. [ErrConflict] for 409, [ErrUnauthorized] for 401).
package adapter

import (
	"context"

	"github.com/aberthet/chantier-sync/models"
)


// ServerAdapter defines transport-agnostic communication with the
// chantier-sync server. Implementations are responsible for serialisation,
// authentication header management, and mapping transport-level errors to the
// sentinel values defined in this package.
type ServerAdapter interface {
	// SetToken stores the bearer token that will be attached to all subsequent
	// authenticated requests. It should be called immediately after a
	// successful Register or Login.
	SetToken(token string)

	// Token returns the bearer token currently stored in the adapter, or an
	// empty string if no token has been set yet.
	Token() string

	// Register sends a registration request to the server with the provided
	// user credentials. On success it stores the returned bearer token via
	// SetToken and returns the user with UserID populated from the token
	// subject. Returns an error if the request fails or the server responds
	// with a non-2xx status.
	Register(ctx context.Context, user models.User) (models.User, error)

	// Login authenticates the user with the server. On success it stores the
	// returned bearer token via SetToken and returns the user with UserID
	// populated from the token subject.
	Login(ctx context.Context, user models.User) (models.User, error)

	// Push uploads a batch of pending operations and returns the server's
	// per-operation verdict. The batch is never rejected wholesale: applied,
	// conflicted and failed operations come back side by side.
	Push(ctx context.Context, req models.PushRequest) (models.PushResult, error)

	// Pull fetches the operations recorded after the device's checkpoint,
	// excluding deviceID's own writes. The returned ServerTime is the next
	// checkpoint even when no operations came back.
	Pull(ctx context.Context, since int64, deviceID string) (models.PullResponse, error)

	// Resolve applies the user's choice for a surfaced conflict and returns
	// the authoritative record as it stands afterwards.
	Resolve(ctx context.Context, req models.ResolveRequest) (models.EntityRecord, error)

	// ServerVersion fetches the server's semantic version string.
	ServerVersion(ctx context.Context) (string, error)
}
