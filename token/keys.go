package token

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
)

// KeyPair is the RSA key used to sign and verify access tokens.
type KeyPair struct {
	KeyID      string
	PrivateKey *rsa.PrivateKey
}

// JWKS represents a JSON Web Key Set
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK represents a JSON Web Key
type JWK struct {
	Kty string `json:"kty"`           // Key type
	Use string `json:"use,omitempty"` // sig
	Kid string `json:"kid,omitempty"` // Key ID
	Alg string `json:"alg,omitempty"` // Algorithm
	N   string `json:"n,omitempty"`   // Modulus
	E   string `json:"e,omitempty"`   // Exponent
}

// GenerateRSAKeyPair generates a new RSA key pair for RS256 signing
func GenerateRSAKeyPair(keyID string, bits int) (*KeyPair, error) {
	if bits < 2048 {
		bits = 2048
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA key: %w", err)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: privateKey}, nil
}

// LoadKeyPairFromPEM parses a PKCS1 or PKCS8 encoded RSA private key.
func LoadKeyPairFromPEM(keyID, pemData string) (*KeyPair, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return &KeyPair{KeyID: keyID, PrivateKey: key}, nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("unsupported private key type %T", parsed)
	}
	return &KeyPair{KeyID: keyID, PrivateKey: key}, nil
}

func (kp *KeyPair) PublicKey() crypto.PublicKey {
	return &kp.PrivateKey.PublicKey
}

func (kp *KeyPair) SigningMethod() jwt.SigningMethod {
	return jwt.SigningMethodRS256
}

// ExportPrivateKeyPEM exports the private key as PKCS1 PEM
func (kp *KeyPair) ExportPrivateKeyPEM() string {
	return string(pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(kp.PrivateKey),
	}))
}

// JWKS returns the public half of the key pair as a key set.
func (kp *KeyPair) JWKS() JWKS {
	pub := kp.PrivateKey.PublicKey
	return JWKS{Keys: []JWK{{
		Kty: "RSA",
		Use: "sig",
		Kid: kp.KeyID,
		Alg: kp.SigningMethod().Alg(),
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}
