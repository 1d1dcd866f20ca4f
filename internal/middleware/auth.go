// Package middleware provides request-scoped plumbing shared by the HTTP layer:
// session tokens, structured logging, rate limiting, metrics, and tracing.
package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session token parameters.
const (
	TokenIssuer   = "warbler-api"
	TokenAudience = "warbler-client"
	TokenTTL      = 7 * 24 * time.Hour
)

var (
	// ErrTokenSecretMissing is returned when no signing secret is configured.
	ErrTokenSecretMissing = errors.New("JWT secret not configured")
	// ErrInvalidToken covers every malformed, expired, or foreign token.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// SessionClaims is the subset of token claims the application relies on.
type SessionClaims struct {
	UserID    uint
	Username  string
	JTI       string
	ExpiresAt time.Time
}

// IssueToken signs a session token for the given account.
func IssueToken(secret string, userID uint, username string, now time.Time) (string, *SessionClaims, error) {
	if secret == "" {
		return "", nil, ErrTokenSecretMissing
	}

	session := &SessionClaims{
		UserID:    userID,
		Username:  username,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(TokenTTL),
	}
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      TokenIssuer,
		"aud":      TokenAudience,
		"exp":      session.ExpiresAt.Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      session.JTI,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", nil, err
	}
	return signed, session, nil
}

// ParseToken validates signature, issuer, audience and expiry, and extracts the session.
func ParseToken(secret, tokenString string) (*SessionClaims, error) {
	if secret == "" {
		return nil, ErrTokenSecretMissing
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, ErrInvalidToken
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, ErrInvalidToken
	}

	session := &SessionClaims{UserID: uint(userID)}
	session.Username, _ = claims["username"].(string)
	session.JTI, _ = claims["jti"].(string)
	if exp, expErr := claims.GetExpirationTime(); expErr == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}
	return session, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}
