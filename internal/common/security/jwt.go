package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenAuth signs and verifies HS256 access tokens.
type TokenAuth struct {
	*jwtauth.JWTAuth
	exp time.Duration
}

func NewTokenAuth(secret []byte, exp time.Duration) *TokenAuth {
	if exp <= 0 {
		exp = 72 * time.Hour
	}
	return &TokenAuth{JWTAuth: jwtauth.New("HS256", secret, nil), exp: exp}
}

func (a *TokenAuth) GenerateToken(userID, role string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(a.exp).Unix(),
		"iat":     time.Now().Unix(),
	}
	_, tokenString, err := a.Encode(claims)
	return tokenString, err
}

func GetUserIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["user_id"].(string)
	if !ok || id == "" {
		return "", errors.New("user_id claim is missing or not a string")
	}
	return id, nil
}

func GetUserRoleFromClaims(claims jwt.MapClaims) (string, error) {
	role, ok := claims["role"].(string)
	if !ok {
		return "", errors.New("role claim is missing or not a string")
	}
	return role, nil
}
