package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aberthet/chantier-sync/models"
	"github.com/golang-jwt/jwt/v5"
)

// GenerateJWTToken signs an HMAC-SHA256 session token carrying the user id
// as the subject claim. The lifetime bounds how long a device can sync
// without re-authenticating.
func GenerateJWTToken(issuer string, userID int64, tokenDuration time.Duration, signKey string) (models.Token, error) {
	if issuer == "" || tokenDuration == 0 || signKey == "" {
		return models.Token{}, errors.New("issuer, lifetime and signing key are all required")
	}

	now := time.Now()
	claims := &jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   strconv.FormatInt(userID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(signKey))
	if err != nil {
		return models.Token{}, fmt.Errorf("signing session token: %w", err)
	}

	return models.Token{Token: token, SignedString: signed}, nil
}

// ValidateAndParseJWTToken verifies the signature, issuer and expiry of a
// compact token and extracts the user id from its subject claim.
func ValidateAndParseJWTToken(tokenString, tokenSignKey, tokenIssuer string) (models.Token, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Token{}, func(token *jwt.Token) (any, error) {
		return []byte(tokenSignKey), nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return models.Token{}, fmt.Errorf("verifying session token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil {
		return models.Token{}, fmt.Errorf("reading subject claim: %w", err)
	}
	if sub == "" {
		return models.Token{}, errors.New("session token has an empty subject")
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return models.Token{}, fmt.Errorf("subject claim %q is not a user id: %w", sub, err)
	}

	return models.Token{Token: token, UserID: userID}, nil
}

// ParseBearerToken strips the scheme from an Authorization header value.
func ParseBearerToken(authorizationHeader string) (string, error) {
	parts := strings.Split(strings.TrimSpace(authorizationHeader), " ")
	if len(parts) != 2 || parts[1] == "" {
		return "", errors.New("invalid authorization header")
	}
	return parts[1], nil
}

// ParseUserIDFromJWT reads the subject claim without verifying the
// signature. The client uses it to recover its own user id from a stored
// session; trust decisions stay on the server.
func ParseUserIDFromJWT(tokenString string) (int64, error) {
	token, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, errors.New("invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(sub, 10, 64)
}
