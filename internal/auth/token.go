package auth

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"chatrooms-service/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// Context identifies the authenticated caller.
type Context struct {
	UserID int
	Role   string
}

// TokenVerifier resolves a bearer token into an authenticated caller.
type TokenVerifier interface {
	Verify(token string) (Context, error)
}

// JWTVerifier validates HMAC-signed tokens issued by the auth collaborator.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a JWTVerifier.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verify parses and validates the token, returning the caller identity.
func (v *JWTVerifier) Verify(token string) (Context, error) {
	parsed, err := jwt.ParseWithClaims(token, &claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return Context{}, ErrInvalidToken
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok {
		return Context{}, ErrInvalidToken
	}

	userID, err := strconv.Atoi(tokenClaims.Subject)
	if err != nil || userID <= 0 {
		return Context{}, ErrInvalidToken
	}

	role := tokenClaims.Role
	if role == "" {
		role = models.RoleRegular
	}
	return Context{UserID: userID, Role: role}, nil
}
