package auth

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/twokeyapp/lahja/domain/entities"
)

// ClientClaims represents the claims in a web client token
type ClientClaims struct {
	ClientID string `json:"client_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

const tokenTTL = 24 * time.Hour

// Service issues and validates the short-lived bearer tokens used by the
// web upload and live practice clients.
type Service struct {
	secret       []byte
	clientSecret string
}

// NewService creates a new auth service
func NewService(jwtSecret, clientSecret string) (*Service, error) {
	if jwtSecret == "" {
		return nil, fmt.Errorf("jwt secret is required: %w", entities.ErrConfigMissing)
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("web client secret is required: %w", entities.ErrConfigMissing)
	}
	return &Service{
		secret:       []byte(jwtSecret),
		clientSecret: clientSecret,
	}, nil
}

// Exchange trades the configured web client secret for a signed token.
// The comparison is constant time.
func (s *Service) Exchange(clientID, presentedSecret string) (string, time.Time, error) {
	if subtle.ConstantTimeCompare([]byte(presentedSecret), []byte(s.clientSecret)) != 1 {
		return "", time.Time{}, fmt.Errorf("invalid client secret: %w", entities.ErrAuthFailure)
	}

	expiresAt := time.Now().Add(tokenTTL)
	claims := &ClientClaims{
		ClientID: clientID,
		Role:     "web",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ValidateToken validates a bearer token and returns its claims
func (s *Service) ValidateToken(tokenString string) (*ClientClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ClientClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", entities.ErrAuthFailure)
	}

	claims, ok := token.Claims.(*ClientClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims: %w", entities.ErrAuthFailure)
	}
	return claims, nil
}
