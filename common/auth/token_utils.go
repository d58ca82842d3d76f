package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const TypeAccess = "access"

var ErrInvalidToken = errors.New("invalid or expired token")

// TokenManager signs and verifies HS256 access tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) (*TokenManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret not configured")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Claims is the subset of token claims handlers care about.
type Claims struct {
	Subject string
	Email   string
	Role    string
}

// Generate returns a signed access token and its expiry.
func (m *TokenManager) Generate(subject, email, role string) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.ttl)
	claims := jwt.MapClaims{
		"sub":   subject,
		"email": email,
		"role":  role,
		"typ":   TypeAccess,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// ParseAndValidateToken verifies signature, expiry and, when expectedType is
// non-empty, the "typ" claim.
func (m *TokenManager) ParseAndValidateToken(tokenStr, expectedType string) (*Claims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || token == nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if expectedType != "" {
		if typ, _ := mc["typ"].(string); typ != expectedType {
			return nil, fmt.Errorf("invalid token type")
		}
	}

	c := &Claims{}
	c.Subject, _ = mc["sub"].(string)
	c.Email, _ = mc["email"].(string)
	c.Role, _ = mc["role"].(string)
	if c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return c, nil
}
