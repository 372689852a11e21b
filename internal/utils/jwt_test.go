package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer = "chantier-sync"
	testKey    = "clé-de-test"
)

func TestGenerateJWTToken(t *testing.T) {
	token, err := GenerateJWTToken(testIssuer, 123, time.Hour, testKey)
	require.NoError(t, err)

	assert.NotEmpty(t, token.SignedString)
	require.NotNil(t, token.Token)

	claims, ok := token.Token.Claims.(*jwt.RegisteredClaims)
	require.True(t, ok)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, "123", claims.Subject)
}

func TestGenerateJWTToken_RejectsMissingParams(t *testing.T) {
	tests := []struct {
		name     string
		issuer   string
		duration time.Duration
		key      string
	}{
		{"empty issuer", "", time.Hour, testKey},
		{"zero lifetime", testIssuer, 0, testKey},
		{"empty signing key", testIssuer, time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.issuer, 1, tt.duration, tt.key)
			assert.Error(t, err)
		})
	}
}

func TestValidateAndParseJWTToken_RoundTrip(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 456, 5*time.Minute, testKey)
	require.NoError(t, err)

	parsed, err := ValidateAndParseJWTToken(issued.SignedString, testKey, testIssuer)
	require.NoError(t, err)
	assert.Equal(t, int64(456), parsed.UserID)
}

func TestValidateAndParseJWTToken_Rejections(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 1, time.Hour, testKey)
	require.NoError(t, err)

	expired, err := GenerateJWTToken(testIssuer, 1, -time.Second, testKey)
	require.NoError(t, err)

	tests := []struct {
		name   string
		signed string
		key    string
		issuer string
	}{
		{"wrong signing key", issued.SignedString, "autre-clé", testIssuer},
		{"expired session", expired.SignedString, testKey, testIssuer},
		{"issuer mismatch", issued.SignedString, testKey, "autre-serveur"},
		{"malformed compact form", "not.a.token", testKey, testIssuer},
		{"empty string", "", testKey, testIssuer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAndParseJWTToken(tt.signed, tt.key, tt.issuer)
			assert.Error(t, err)
		})
	}
}

func TestValidateAndParseJWTToken_TamperedPayload(t *testing.T) {
	issued, err := GenerateJWTToken(testIssuer, 7, time.Hour, testKey)
	require.NoError(t, err)

	// flip one character inside the payload segment
	compact := []byte(issued.SignedString)
	mid := len(compact) / 2
	if compact[mid] == 'A' {
		compact[mid] = 'B'
	} else {
		compact[mid] = 'A'
	}

	_, err = ValidateAndParseJWTToken(string(compact), testKey, testIssuer)
	assert.Error(t, err, "a tampered token must not verify")
}
