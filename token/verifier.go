package token

import (
	"context"
	"crypto"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-checkin/internal/errors"
)

// Claims are the parts of a verified access token the API cares about.
type Claims struct {
	Subject string
	JTI     string
	Expiry  time.Time
}

// Verifier checks signature, issuer, audience and expiry of access tokens
// and rejects tokens revoked by logout.
type Verifier struct {
	verifier *oidc.IDTokenVerifier
	revoked  RevokedTokenCache
}

func NewVerifier(keys *KeyPair, issuer, audience string, revoked RevokedTokenCache, nowFunc func() time.Time) *Verifier {
	if nowFunc == nil {
		nowFunc = time.Now
	}
	keySet := &oidc.StaticKeySet{PublicKeys: []crypto.PublicKey{keys.PublicKey()}}
	return &Verifier{
		verifier: oidc.NewVerifier(issuer, keySet, &oidc.Config{
			ClientID:             audience,
			SupportedSigningAlgs: []string{oidc.RS256},
			Now:                  nowFunc,
		}),
		revoked: revoked,
	}
}

func (v *Verifier) Verify(ctx context.Context, raw string) (*Claims, error) {
	if raw == "" {
		return nil, errors.ErrInvalidToken
	}

	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		var expired *oidc.TokenExpiredError
		if errors.As(err, &expired) {
			return nil, errors.Wrapf(errors.ErrTokenExpired, "expired at %s", expired.Expiry.Format(time.RFC3339))
		}
		return nil, errors.Wrapf(errors.ErrInvalidToken, "%v", err)
	}

	var extra struct {
		JTI string `json:"jti"`
	}
	if err := idToken.Claims(&extra); err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidToken, "claims: %v", err)
	}

	if v.revoked != nil && v.revoked.IsRevoked(extra.JTI) {
		return nil, errors.ErrTokenRevoked
	}

	return &Claims{
		Subject: idToken.Subject,
		JTI:     extra.JTI,
		Expiry:  idToken.Expiry,
	}, nil
}
