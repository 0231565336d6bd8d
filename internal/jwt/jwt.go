// Package jwt issues and verifies the short-lived signed access tokens
// returned to API callers. Tokens are HS256-signed with the server
// secret and are never persisted.
package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is the single failure surface of Verify. Bad
// signature, bad shape, and expiry all collapse into it so callers
// cannot distinguish why a token was rejected.
var ErrInvalidToken = errors.New("invalid token")

// TrialClaim marks access tokens issued through the trial flow.
const TrialClaim = "trial"

// Claims are the decoded contents of an access token.
type Claims struct {
	Subject  string
	IssuedAt time.Time
	Expiry   time.Time
	Extra    map[string]any
}

// Trial reports whether the token carries trial=true.
func (c *Claims) Trial() bool {
	v, ok := c.Extra[TrialClaim].(bool)
	return ok && v
}

// Issuer signs and verifies access tokens. Safe for concurrent use.
type Issuer struct {
	secret []byte
}

// NewIssuer returns an Issuer signing with the server secret.
func NewIssuer(secret []byte) *Issuer {
	return &Issuer{secret: append([]byte(nil), secret...)}
}

// Issue signs a token for subject with the given lifetime. Extra claims
// are embedded alongside sub/iat/exp; reserved claim names are not
// overridable.
func (i *Issuer) Issue(subject string, ttl time.Duration, extra map[string]any) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": jwt.NewNumericDate(now),
		"exp": jwt.NewNumericDate(now.Add(ttl)),
	}
	for k, v := range extra {
		switch k {
		case "sub", "iat", "exp":
		default:
			claims[k] = v
		}
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify parses and validates a token. Any failure, including expiry,
// returns ErrInvalidToken.
func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	token, err := parser.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	sub, _ := mapClaims["sub"].(string)
	if sub == "" {
		return nil, ErrInvalidToken
	}

	out := &Claims{Subject: sub, Extra: map[string]any{}}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		out.IssuedAt = iat.Time
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		out.Expiry = exp.Time
	}
	for k, v := range mapClaims {
		switch k {
		case "sub", "iat", "exp":
		default:
			out.Extra[k] = v
		}
	}

	return out, nil
}
