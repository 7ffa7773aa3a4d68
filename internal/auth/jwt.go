package auth

import (
	"errors"
	"time"

	"voice-agent/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrKeyMismatch  = errors.New("auth: token not issued for this key")
	ErrTokenType    = errors.New("auth: token_type mismatch")
	ErrMissingToken = errors.New("auth: token required")
)

// Manager issues and verifies short-lived audio URL tokens.
type Manager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewManager(cfg config.AudioConfig) (*Manager, error) {
	if cfg.TokenSecret == "" {
		return nil, errors.New("AUDIO_TOKEN_SECRET is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Manager{
		secret: []byte(cfg.TokenSecret),
		issuer: cfg.TokenIssuer,
		ttl:    ttl,
	}, nil
}

func (m *Manager) IssueAudioToken(now time.Time, key string) (string, error) {
	if key == "" {
		return "", errors.New("auth: key required")
	}
	claims := AudioClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   key,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			ID:        uuid.NewString(),
		},
		Key:       key,
		TokenType: TokenTypeAudio,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

// VerifyAudioToken checks signature, expiry and that the token grants key.
func (m *Manager) VerifyAudioToken(tokenString, key string, now time.Time) (AudioClaims, error) {
	if tokenString == "" {
		return AudioClaims{}, ErrMissingToken
	}

	var claims AudioClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if _, err := parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}); err != nil {
		return AudioClaims{}, err
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(30 * time.Second),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return AudioClaims{}, err
	}

	if claims.TokenType != TokenTypeAudio {
		return AudioClaims{}, ErrTokenType
	}
	if claims.Key != key {
		return AudioClaims{}, ErrKeyMismatch
	}
	return claims, nil
}
