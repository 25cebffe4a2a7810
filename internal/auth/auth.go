package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken is returned when no bearer token is present on the request.
	ErrMissingToken = errors.New("missing Authorization header")

	// ErrInvalidToken covers bad signatures, expiry, and malformed tokens.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrMissingSubject is returned when a valid token carries no user identity.
	ErrMissingSubject = errors.New("token missing user identification")
)

// Identity is the authenticated caller extracted from a verified token.
type Identity struct {
	UserID string
	Email  string
}

// ExtractBearerToken extracts the bearer token from the Authorization header.
func ExtractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingToken
	}

	// Expect "Bearer <token>" format
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", fmt.Errorf("%w: expected 'Bearer <token>'", ErrInvalidToken)
	}
	return parts[1], nil
}

// Verifier validates HS256-signed tokens issued by the external auth provider.
type Verifier struct {
	secret []byte
}

// NewVerifier returns a Verifier for the given shared HMAC secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the token signature and expiry and extracts the caller identity.
// The subject is read from "sub", falling back to "user_id" and then "id"; the
// auth provider's claim shape is not under our control, so all three are accepted.
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID := stringClaim(claims, "sub")
	if userID == "" {
		userID = stringClaim(claims, "user_id")
	}
	if userID == "" {
		userID = stringClaim(claims, "id")
	}
	if userID == "" {
		return nil, ErrMissingSubject
	}

	return &Identity{
		UserID: userID,
		Email:  stringClaim(claims, "email"),
	}, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return v
	}
	return ""
}
