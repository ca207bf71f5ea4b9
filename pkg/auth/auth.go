package auth

import (
	"context"

	"github.com/golang-jwt/jwt/v4"
)

// JWTKey signs self-issued tokens. App wiring overrides it from config.
var JWTKey = []byte("school-library-dev-key")

type Claims struct {
	Profile struct {
		Username string `json:"username"`
		Role     string `json:"role"`
	} `json:"profile"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type contextKey int

const (
	userNameKey contextKey = iota + 1
	userRoleKey
)

func SetAuthContext(ctx context.Context, username, role string) context.Context {
	ctx = context.WithValue(ctx, userNameKey, username)
	return context.WithValue(ctx, userRoleKey, role)
}

func GetAuthContext(ctx context.Context) (username, role string) {
	username, _ = ctx.Value(userNameKey).(string)
	role, _ = ctx.Value(userRoleKey).(string)
	return username, role
}
