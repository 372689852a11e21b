package models

import (
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

// Token is the session credential issued at login and carried by every sync
// request. Only the compact signed form leaves the process; the embedded
// parsed form backs claim checks server-side.
type Token struct {
	*jwt.Token `json:"-"`
	jwt.RegisteredClaims

	// SignedString is the compact JWS form sent in the Authorization header.
	SignedString string `json:"-"`

	// UserID caches the parsed subject claim so handlers do not re-parse
	// it per request.
	UserID int64 `json:"-"`
}

// GetUserID reads the "sub" claim and parses it as a base-10 int64.
func (t *Token) GetUserID() (int64, error) {
	sub, err := t.GetSubject()
	if err != nil {
		return 0, fmt.Errorf("reading subject claim: %w", err)
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("subject claim %q is not a user id: %w", sub, err)
	}
	return userID, nil
}

// String implements [fmt.Stringer] with the signed compact form.
func (t *Token) String() string {
	return t.SignedString
}
