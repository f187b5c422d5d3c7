package auth

import (
	"fmt"
	"time"

	"github.com/fellas-token/backend/internal/rbac"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "fellas-token"

// Claims identify an operator allowed to spend from the session wallet.
type Claims struct {
	SessionID uuid.UUID `json:"sid"`
	Operator  string    `json:"operator"`
	Role      string    `json:"role"`
	jwt.RegisteredClaims
}

// GenerateJWT issues an owner token. Non-positive expiration means 24h.
func GenerateJWT(secret string, operator string, expiration time.Duration) (string, error) {
	return GenerateRoleJWT(secret, operator, rbac.RoleOwner, expiration)
}

// GenerateRoleJWT issues a token limited to role.
func GenerateRoleJWT(secret, operator, role string, expiration time.Duration) (string, error) {
	if !rbac.IsValidRole(role) {
		return "", fmt.Errorf("unknown role %q", role)
	}
	if secret == "" {
		return "", fmt.Errorf("jwt secret is empty")
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	now := time.Now()
	claims := Claims{
		SessionID: uuid.New(),
		Operator:  operator,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operator,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseJWT(secret string, tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
