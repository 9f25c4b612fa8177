package utils

import (
	"errors" // Error values
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Token type values carried in the typ claim
const (
	TokenAccess  = "access"  // Short-lived token for API calls
	TokenRefresh = "refresh" // Long-lived token, only valid at the refresh endpoint
)

// Token lifetimes
const (
	accessTTL  = 15 * time.Minute    // Access token expires in 15 minutes
	refreshTTL = 7 * 24 * time.Hour  // Refresh token expires in 7 days
)

// ErrWrongTokenType is returned when a token of one type is presented where
// the other is required (e.g. a refresh token on a normal API call).
var ErrWrongTokenType = errors.New("wrong token type")

// JWT Claims
type Claims struct {
	UserID               uint   `json:"user_id"` // Custom claim for user ID
	Staff                bool   `json:"staff"`   // Custom claim for the staff flag
	TokenType            string `json:"typ"`     // access or refresh
	jwt.RegisteredClaims        // Standard JWT claims
}

// TokenPair bundles the access and refresh tokens issued together
type TokenPair struct {
	Access  string `json:"access"`  // Access token
	Refresh string `json:"refresh"` // Refresh token
}

// GenerateTokenPair creates an access/refresh token pair for a user
func GenerateTokenPair(userID uint, staff bool, secret string) (TokenPair, error) {
	access, err := generateToken(userID, staff, TokenAccess, accessTTL, secret)
	if err != nil {
		return TokenPair{}, err // Return error if signing fails
	}
	refresh, err := generateToken(userID, staff, TokenRefresh, refreshTTL, secret)
	if err != nil {
		return TokenPair{}, err // Return error if signing fails
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

// generateToken signs a single token of the given type and lifetime
func generateToken(userID uint, staff bool, tokenType string, ttl time.Duration, secret string) (string, error) {
	// Set token claims
	claims := Claims{
		UserID:    userID,    // Custom claim for user ID
		Staff:     staff,     // Custom claim for the staff flag
		TokenType: tokenType, // access or refresh
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)), // Expiry per token type
			IssuedAt:  jwt.NewNumericDate(time.Now()),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseToken parses and validates a JWT token string, requiring the given
// token type
func ParseToken(tokenStr, secret, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	})
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, jwt.ErrSignatureInvalid // Return error if token is invalid
	}
	// Reject tokens of the wrong type
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil // Return claims if valid
}
