package utils

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/o1egl/paseto"
	"golang.org/x/crypto/chacha20poly1305"
)

var (
	ErrSecretTooShort = errors.New("secret key is too short")
	ErrTokenExpired   = errors.New("token has expired")
)

// TokenKind separates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// CustomClaims represents the custom claims in the PASETO token
type CustomClaims struct {
	UserID    int64     `json:"user_id"`
	SessionID uuid.UUID `json:"session_id"`
	Kind      TokenKind `json:"kind"`
	Expiry    time.Time `json:"expiry"`
}

// TokenMaker issues and verifies v2.local PASETO tokens with one symmetric key.
type TokenMaker struct {
	symmetricKey []byte
	v2           *paseto.V2
	now          func() time.Time
}

// NewTokenMaker keeps the first 32 bytes of secret as the symmetric key.
func NewTokenMaker(secret string) (*TokenMaker, error) {
	symmetricKey := []byte(secret)
	if len(symmetricKey) < chacha20poly1305.KeySize {
		return nil, ErrSecretTooShort
	}
	if len(symmetricKey) > chacha20poly1305.KeySize {
		symmetricKey = symmetricKey[:chacha20poly1305.KeySize]
	}

	return &TokenMaker{
		symmetricKey: symmetricKey,
		v2:           paseto.NewV2(),
		now:          time.Now,
	}, nil
}

// GeneratePASETO generates a PASETO token of the given kind with an expiration time
func (m *TokenMaker) GeneratePASETO(userID int64, sessionID uuid.UUID, kind TokenKind, expiration time.Duration) (string, *CustomClaims, error) {
	claims := &CustomClaims{
		UserID:    userID,
		SessionID: sessionID,
		Kind:      kind,
		Expiry:    m.now().Add(expiration),
	}

	token, err := m.v2.Encrypt(m.symmetricKey, claims, nil)
	if err != nil {
		return "", nil, err
	}

	return token, claims, nil
}

// ValidatePASETO validates a PASETO token and returns the claims
func (m *TokenMaker) ValidatePASETO(tokenString string) (*CustomClaims, error) {
	var claims CustomClaims
	if err := m.v2.Decrypt(tokenString, m.symmetricKey, &claims, nil); err != nil {
		return nil, err
	}

	if m.now().After(claims.Expiry) {
		return nil, ErrTokenExpired
	}

	return &claims, nil
}
