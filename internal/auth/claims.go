package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeAudio TokenType = "audio"

// AudioClaims authorize fetching one synthesized artifact. The telephony
// provider fetches audio without credentials of its own, so the grant travels
// in the URL and is bound to a single cache key.
type AudioClaims struct {
	jwt.RegisteredClaims

	Key       string    `json:"key"`
	TokenType TokenType `json:"token_type"`
}
