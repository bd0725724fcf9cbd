// Package utils provides the token codec and password hashing helpers used
// by the auth endpoints and middleware.
package utils

import (
	"crypto/rsa"
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails signature, expiry,
// method or claim checks. Callers surface it as a single opaque unauthorized
// response.
var ErrInvalidToken = errors.New("invalid token")

// Signer signs and verifies the application's RS256 token pair. Access
// tokens are short-lived and stateless; refresh tokens embed the id of a
// persisted record so they can be revoked and rotated.
type Signer struct {
	private    *rsa.PrivateKey
	public     *rsa.PublicKey
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// NewSigner builds a Signer from an already-parsed keypair. Used directly in
// tests; production code goes through LoadSigner.
func NewSigner(private *rsa.PrivateKey, public *rsa.PublicKey, accessTTL, refreshTTL time.Duration) *Signer {
	return &Signer{private: private, public: public, AccessTTL: accessTTL, RefreshTTL: refreshTTL}
}

// LoadSigner reads the RSA keypair from PEM files.
func LoadSigner(privateKeyPath, publicKeyPath string, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	privPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, err
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, err
	}
	pubPEM, err := os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, err
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, err
	}
	return NewSigner(priv, pub, accessTTL, refreshTTL), nil
}

// AccessToken is a signed access JWT along with its expiry.
type AccessToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires"`
}

// RefreshToken is a signed refresh JWT, the UUID of the record that backs it,
// and its expiry.
type RefreshToken struct {
	Token   string    `json:"token"`
	TokenID string    `json:"-"`
	Exp     time.Time `json:"expires"`
}

// NewAccessToken signs an access JWT carrying the subject id, email and role.
func (s *Signer) NewAccessToken(userID uint64, email, role string) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(s.AccessTTL)
	claims := jwt.MapClaims{
		"sub":   strconv.FormatUint(userID, 10),
		"email": email,
		"role":  role,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.private)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// NewRefreshToken signs a refresh JWT. The generated token id doubles as the
// primary key of the persisted record, so the signed string and the row can
// be cross-checked on validation.
func (s *Signer) NewRefreshToken(userID uint64) (RefreshToken, error) {
	now := time.Now().UTC()
	exp := now.Add(s.RefreshTTL)
	tokenID := uuid.NewString()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(userID, 10),
		"token_id": tokenID,
		"iat":      now.Unix(),
		"exp":      exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.private)
	if err != nil {
		return RefreshToken{}, err
	}
	return RefreshToken{Token: signed, TokenID: tokenID, Exp: exp}, nil
}

// AccessClaims are the verified claims of an access token.
type AccessClaims struct {
	UserID uint64
	Email  string
	Role   string
}

// RefreshClaims are the verified claims of a refresh token.
type RefreshClaims struct {
	UserID  uint64
	TokenID string
}

// parse verifies signature, method and expiry, and returns the claim map.
func (s *Signer) parse(raw string) (jwt.MapClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, ErrInvalidToken
		}
		return s.public, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func subjectID(claims jwt.MapClaims) (uint64, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// ParseAccessToken verifies an access JWT and extracts its claims.
func (s *Signer) ParseAccessToken(raw string) (AccessClaims, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return AccessClaims{}, err
	}
	id, err := subjectID(claims)
	if err != nil {
		return AccessClaims{}, err
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return AccessClaims{UserID: id, Email: email, Role: role}, nil
}

// ParseRefreshToken verifies a refresh JWT and extracts its claims.
func (s *Signer) ParseRefreshToken(raw string) (RefreshClaims, error) {
	claims, err := s.parse(raw)
	if err != nil {
		return RefreshClaims{}, err
	}
	id, err := subjectID(claims)
	if err != nil {
		return RefreshClaims{}, err
	}
	tokenID, ok := claims["token_id"].(string)
	if !ok || tokenID == "" {
		return RefreshClaims{}, ErrInvalidToken
	}
	return RefreshClaims{UserID: id, TokenID: tokenID}, nil
}
