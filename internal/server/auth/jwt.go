// Package auth provides the two primitives the session engine relies on:
// a signed bearer-token codec and a one-way password hasher.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Issuer is written into and required from every token.
const Issuer = "lip"

// Mode scopes a token to reading or writing an endpoint.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// ParseMode accepts exactly "read" or "write".
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeRead, ModeWrite:
		return Mode(s), true
	default:
		return "", false
	}
}

// Payload is what a token carries. Times are in milliseconds. CreatedOn is
// the creation time of the address the token was minted for, so a token
// never outlives a delete and re-create of its id.
type Payload struct {
	ID        string
	Mode      Mode
	IssuedAt  int64
	CreatedOn int64
}

// Claims are the registered JWT claims plus the address id, mode and the
// millisecond issue and creation times. Every token gets a random jti.
type Claims struct {
	jwt.RegisteredClaims
	AddressID string `json:"id"`
	Mode      Mode   `json:"mode"`
	IssuedAt  int64  `json:"issued_at"`
	CreatedOn int64  `json:"created_on"`
}

// Codec signs and verifies HS256 tokens with a fixed validity window.
type Codec struct {
	secret   []byte
	validity time.Duration
	now      func() time.Time
}

type CodecOption func(*Codec)

// WithClock replaces time.Now for both signing and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secret []byte, validity time.Duration, opts ...CodecOption) *Codec {
	c := &Codec{secret: secret, validity: validity, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Codec) Sign(p Payload) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		AddressID: p.ID,
		Mode:      p.Mode,
		IssuedAt:  p.IssuedAt,
		CreatedOn: p.CreatedOn,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// Verify checks signature, issuer and expiry and returns the payload.
// Expired tokens yield common.ErrTokenExpired, anything else that fails
// yields an error wrapping common.ErrInvalidToken.
func (c *Codec) Verify(tokenString string) (Payload, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Payload{}, common.ErrTokenExpired
		}
		return Payload{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return Payload{}, common.ErrInvalidToken
	}

	if _, ok := ParseMode(string(claims.Mode)); !ok || claims.AddressID == "" {
		return Payload{}, fmt.Errorf("%w: malformed payload", common.ErrInvalidToken)
	}

	return Payload{
		ID:        claims.AddressID,
		Mode:      claims.Mode,
		IssuedAt:  claims.IssuedAt,
		CreatedOn: claims.CreatedOn,
	}, nil
}
