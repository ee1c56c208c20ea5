// Package auth hashes passwords and issues the signed tokens that identify
// a user on later requests.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 10

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("signing secret cannot be empty")
)

// Claims is the token payload. The subject user id travels as "userId".
type Claims struct {
	UserID int `json:"userId"`
	jwt.RegisteredClaims
}

// Credentials hashes passwords and signs tokens with a secret injected at
// construction.
type Credentials struct {
	secret []byte
	cost   int
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Credentials)

// WithCost overrides the bcrypt cost.
func WithCost(cost int) Option {
	return func(c *Credentials) { c.cost = cost }
}

// WithTTL makes issued tokens expire after ttl. Zero means no expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Credentials) { c.ttl = ttl }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Credentials) { c.now = now }
}

func New(secret string, opts ...Option) (*Credentials, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	c := &Credentials{
		secret: []byte(secret),
		cost:   DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// HashPassword returns the bcrypt hash of password.
func (c *Credentials) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), c.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// ComparePassword reports whether password matches hash. A mismatch is not
// an error; a malformed hash is.
func (c *Credentials) ComparePassword(hash, password string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("compare password: %w", err)
	}
}

// IssueToken signs a token for userID.
func (c *Credentials) IssueToken(userID int) (string, error) {
	now := c.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies token and returns the subject user id.
func (c *Credentials) ParseToken(token string) (int, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return c.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.UserID <= 0 {
		return 0, ErrInvalidToken
	}
	return claims.UserID, nil
}
