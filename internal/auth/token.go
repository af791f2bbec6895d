// Copyright 2026 The Medikart Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrInvalidRole  = errors.New("token carries an unknown role")
)

// Claims are the JWT claims issued at login. TenantID is empty for
// super_admin actors, which are not bound to any tenant.
type Claims struct {
	Email    string `json:"email"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies bearer tokens (HS256).
type TokenIssuer struct {
	secret   []byte
	lifetime time.Duration
	issuer   string
}

// NewTokenIssuer creates a token issuer.
func NewTokenIssuer(secret string, lifetime time.Duration, issuer string) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		lifetime: lifetime,
		issuer:   issuer,
	}
}

// Issue signs a token for the given actor. tenantID must be empty exactly
// when role is super_admin.
func (t *TokenIssuer) Issue(actorID, tenantID, email, role string) (string, error) {
	if !ValidRole(role) {
		return "", ErrInvalidRole
	}
	if TenantBound(role) && tenantID == "" {
		return "", fmt.Errorf("role %s requires a tenant binding", role)
	}
	if !TenantBound(role) && tenantID != "" {
		return "", fmt.Errorf("role %s must not carry a tenant binding", role)
	}

	now := time.Now()
	claims := Claims{
		Email:    email,
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify parses and validates a signed token string.
func (t *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return t.secret, nil
		},
		jwt.WithIssuer(t.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !ValidRole(claims.Role) {
		return nil, ErrInvalidRole
	}
	// A tampered or mis-issued token must never smuggle a tenant binding
	// onto a super_admin or strip it from a tenant-bound role.
	if TenantBound(claims.Role) && claims.TenantID == "" {
		return nil, ErrInvalidToken
	}
	if !TenantBound(claims.Role) && claims.TenantID != "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
