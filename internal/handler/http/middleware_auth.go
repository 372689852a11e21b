package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aberthet/chantier-sync/internal/logger"
	"github.com/aberthet/chantier-sync/internal/service"
	"github.com/aberthet/chantier-sync/internal/utils"
)

// auth guards the sync routes. The bearer token is verified through
// [service.AuthService.ParseToken]; on success the user id lands in the
// context under [utils.UserIDCtxKey]. Anything else is a 401.
func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			log.Err(ErrEmptyAuthorizationHeader).Send()
			http.Error(w, ErrEmptyAuthorizationHeader.Error(), http.StatusUnauthorized)
			return
		}

		tokenString, err := getTokenFromAuthHeader(authHeader)
		if err != nil {
			log.Err(err).Send()
			http.Error(w, err.Error(), http.StatusUnauthorized)
			return
		}

		ctx := r.Context()
		token, err := h.services.AuthService.ParseToken(ctx, tokenString)
		if err != nil {
			if errors.Is(err, service.ErrTokenIsExpired) {
				log.Err(err).Msg("session expired")
				http.Error(w, service.ErrTokenIsExpired.Error(), http.StatusUnauthorized)
				return
			}
			log.Err(err).Msg("session token rejected")
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		ctx = context.WithValue(ctx, utils.UserIDCtxKey, token.UserID)

		// Sync handlers need the calling device to exclude it from pulls and
		// rebroadcasts; the header is optional, handlers fall back to the
		// request body or query string.
		if deviceID := r.Header.Get("X-Device-ID"); deviceID != "" {
			ctx = context.WithValue(ctx, utils.DeviceIDCtxKey, deviceID)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// getTokenFromAuthHeader splits "<scheme> <token>", tolerating any scheme
// name; verification happens on the token itself.
func getTokenFromAuthHeader(authHeader string) (string, error) {
	parts := strings.Split(authHeader, " ")
	if len(parts) < 2 {
		return "", ErrInvalidAuthorizationHeader
	}
	if parts[1] == "" {
		return "", ErrEmptyToken
	}
	return parts[1], nil
}
