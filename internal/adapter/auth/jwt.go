package auth

import (
	"context"
	"errors"
	"fmt"

	"cibil-store/internal/domain/entity"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier resolves access tokens locally using the project's signing
// secret, skipping the round trip to the identity service.
type JWTVerifier struct {
	secret   []byte
	audience string
}

type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), audience: "authenticated"}
}

func (v *JWTVerifier) ResolveUser(_ context.Context, token string) (*entity.Identity, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithAudience(v.audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &entity.Identity{UserID: claims.Subject, Email: claims.Email, ExpiresAt: claims.ExpiresAt.Time}, nil
}
