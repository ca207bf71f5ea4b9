package handler

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/msmirnov/school-library/internal/model"
	"github.com/msmirnov/school-library/pkg/auth"
)

func newToken(user model.User, expiresAt time.Time) (string, error) {
	claims := &auth.Claims{
		Profile: struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		}{
			Username: user.Username,
			Role:     user.Role,
		},
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(auth.JWTKey)
}
