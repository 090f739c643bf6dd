package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/amezhanin/affilibot/internal/app/config"
	appErrors "github.com/amezhanin/affilibot/internal/app/errors"
)

type TokenService interface {
	GetAdminLogin(tokenString string) (string, error)
	GenerateToken(adminLogin string) (string, error)
}

type Claims struct {
	jwt.RegisteredClaims
	AdminLogin string
}

type TokenServiceImpl struct {
	secretKey     string
	tokenLifetime time.Duration
}

func NewTokenService(cfg config.AppConfig) *TokenServiceImpl {
	return &TokenServiceImpl{
		secretKey:     cfg.TokenSecretKey,
		tokenLifetime: time.Duration(cfg.TokenLifetimeSec) * time.Second,
	}
}

func (ts TokenServiceImpl) GetAdminLogin(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(ts.secretKey), nil
		})
	if err != nil {
		return "", appErrors.New(err, "failed to parse token")
	}

	if !token.Valid {
		return "", appErrors.New(errors.New("token error"), "token is not valid")
	}

	if claims.AdminLogin == "" {
		return "", appErrors.New(errors.New("token error"), "empty login in token")
	}

	return claims.AdminLogin, nil
}

func (ts TokenServiceImpl) GenerateToken(adminLogin string) (string, error) {
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ts.tokenLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		AdminLogin: adminLogin,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(ts.secretKey))
	if err != nil {
		return "", appErrors.New(err, "failed to sign token")
	}
	return signed, nil
}
