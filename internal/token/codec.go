package token

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the display fields recovered from a bearer token's payload.
// They are decoded without any signature verification and must never be
// used to authorize anything — the server is the only authority on whether
// a token is valid. Claims only pre-fill identity display fields when the
// server did not supply them explicitly.
type Claims struct {
	ID    int64
	Name  string
	Email string
}

// Decode extracts the payload claims from a three-segment bearer token.
// It returns nil on any malformed input (wrong segment count, invalid
// base64, invalid JSON) and never panics past this boundary.
func Decode(tokenString string) *Claims {
	parsed, _, err := jwt.NewParser().ParseUnverified(tokenString, jwt.MapClaims{})
	if err != nil {
		return nil
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}

	claims := &Claims{}
	if id, ok := mapClaims["id"].(float64); ok {
		claims.ID = int64(id)
	}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if email, ok := mapClaims["email"].(string); ok {
		claims.Email = email
	}
	return claims
}
