package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/Network1945/backend/internal/domain"
)

const (
	accessTokenTTL  = 30 * time.Minute
	refreshTokenTTL = 7 * 24 * time.Hour
	issuer          = "backend"
)

// Claims are the custom JWT claims. Subject carries the user id; Name the
// display name so the websocket gateway needs no user lookup.
type Claims struct {
	Name      string `json:"name"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is an access/refresh token pair issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Service signs and verifies tokens with an HMAC secret.
type Service struct {
	secret []byte
	clock  clockwork.Clock
}

// NewService creates an auth service. The secret must already be validated by
// config.Load.
func NewService(secret string, clock clockwork.Clock) *Service {
	return &Service{secret: []byte(secret), clock: clock}
}

// IssueTokens creates an access/refresh pair for a user.
func (s *Service) IssueTokens(user domain.User) (TokenPair, error) {
	access, err := s.sign(user, "access", accessTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(user, "refresh", refreshTokenTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *Service) sign(user domain.User, tokenType string, ttl time.Duration) (string, error) {
	now := s.clock.Now()
	claims := Claims{
		Name:      user.Name,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

func (s *Service) verify(tokenString, wantType string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TokenType != wantType {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

// VerifyAccess validates an access token and returns the identity it carries.
// Satisfies ws.IdentityVerifier.
func (s *Service) VerifyAccess(tokenString string) (identity, displayName string, err error) {
	claims, err := s.verify(tokenString, "access")
	if err != nil {
		return "", "", err
	}
	if claims.Subject == "" {
		return "", "", domain.ErrInvalidToken
	}
	name := claims.Name
	if name == "" {
		name = domain.FallbackName(claims.Subject)
	}
	return claims.Subject, name, nil
}

// VerifyRefresh validates a refresh token and returns the user id it carries.
func (s *Service) VerifyRefresh(tokenString string) (string, error) {
	claims, err := s.verify(tokenString, "refresh")
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}
	return claims.Subject, nil
}
