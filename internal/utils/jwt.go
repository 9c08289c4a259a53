package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mjajones/notifiq-app/internal/models"
)

const (
	TokenAccess  = "access"
	TokenRefresh = "refresh"
)

// Claims carry the role material the frontend keys off: username, group
// names and the superuser flag, plus the token type so refresh tokens can't
// be replayed as access tokens.
type Claims struct {
	UserID      string   `json:"uid"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Groups      []string `json:"groups"`
	IsSuperuser bool     `json:"is_superuser"`
	TokenType   string   `json:"typ"`
	jwt.RegisteredClaims
}

func SignJWT(secret string, u *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	return jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:      u.ID,
		Username:    u.Username,
		Email:       u.Email,
		Groups:      u.Groups,
		IsSuperuser: u.IsSuperuser,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}).SignedString([]byte(secret))
}

func ParseJWT(secret, token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if c, ok := t.Claims.(*Claims); ok && t.Valid {
		return c, nil
	}
	return nil, jwt.ErrTokenInvalidClaims
}
