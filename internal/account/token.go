// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package account

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are carried by a session token. AuthTime is when the user last
// proved their password, which gates sensitive operations.
type Claims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	AuthTime int64  `json:"auth_time"`
}

// Session is a signed-in user.
type Session struct {
	UserID    string
	Email     string
	Token     string
	AuthTime  time.Time
	ExpiresAt time.Time
}

func signSession(key []byte, u User, authTime time.Time, ttl time.Duration) (Session, error) {
	expires := authTime.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(authTime),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		Email:    u.Email,
		AuthTime: authTime.Unix(),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		return Session{}, fmt.Errorf("signing session: %w", err)
	}
	return Session{
		UserID:    u.ID,
		Email:     u.Email,
		Token:     signed,
		AuthTime:  time.Unix(authTime.Unix(), 0),
		ExpiresAt: time.Unix(expires.Unix(), 0),
	}, nil
}

func parseSession(key []byte, tokenString string, now func() time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

// newCode returns a random single-use code.
func newCode() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
