// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// privateKey and publicKey are used for signing and verifying JWT tokens.
var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey

	// tokenExpiry is how long a token stays valid (0 => never).
	tokenExpiry time.Duration
)

// Init generates a fresh ed25519 key pair and sets the token expiry. Tokens issued
// before a restart no longer verify.
func Init(expiry time.Duration) error {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	publicKey, privateKey = pub, priv
	tokenExpiry = expiry
	return nil
}

// CreateJWT creates a signed token with "sub" = playerID and, when an expiry is
// configured, an "exp" claim.
func CreateJWT(playerID string) (string, error) {
	if privateKey == nil {
		return "", fmt.Errorf("auth not initialized")
	}
	claims := jwt.MapClaims{
		"sub": playerID,
		"iat": time.Now().Unix(),
	}
	if tokenExpiry > 0 {
		claims["exp"] = time.Now().Add(tokenExpiry).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// AuthenticateJWT verifies a token and returns its "sub" claim.
func AuthenticateJWT(tokenString string) (string, error) {
	if publicKey == nil {
		return "", fmt.Errorf("auth not initialized")
	}
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	playerID, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return playerID, nil
}
