package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessToken is a freshly signed bearer token.
type AccessToken struct {
	Raw       string
	JTI       string
	ExpiresAt time.Time
	ExpiresIn time.Duration
}

// Issuer signs RS256 access tokens for authenticated users.
type Issuer struct {
	keys     *KeyPair
	issuer   string
	audience string
	expiry   time.Duration
	nowFunc  func() time.Time
}

type IssuerOption func(*Issuer)

func WithIssuerNowFunc(f func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowFunc = f
	}
}

func NewIssuer(keys *KeyPair, issuer, audience string, expiry time.Duration, opts ...IssuerOption) *Issuer {
	i := &Issuer{
		keys:     keys,
		issuer:   issuer,
		audience: audience,
		expiry:   expiry,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Issuer) Issue(userID string) (*AccessToken, error) {
	now := i.nowFunc()
	exp := now.Add(i.expiry)
	jti := uuid.New().String()

	claims := jwt.MapClaims{
		"iss": i.issuer,   // The issuer of the token
		"aud": i.audience, // The API the token is for
		"sub": userID,     // The authenticated user
		"iat": now.Unix(), // Issued At
		"exp": exp.Unix(), // Expiry
		"jti": jti,        // Unique token ID for revocation
	}

	t := jwt.NewWithClaims(i.keys.SigningMethod(), claims)
	t.Header["kid"] = i.keys.KeyID

	signed, err := t.SignedString(i.keys.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &AccessToken{
		Raw:       signed,
		JTI:       jti,
		ExpiresAt: exp,
		ExpiresIn: i.expiry,
	}, nil
}
