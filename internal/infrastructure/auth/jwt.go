package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/erp/receivables/internal/domain/shared"
	"github.com/erp/receivables/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrMissingRole      = errors.New("missing role in claims")
)

// Claims are the identity provider's access token claims
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// GetUserUUID parses the user id claim
func (c *Claims) GetUserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// JWTService verifies access tokens and resolves them into caller identities
type JWTService struct {
	secret        []byte
	issuer        string
	selfOnlyRoles map[string]struct{}
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.JWTConfig, identity config.IdentityConfig) *JWTService {
	roles := make(map[string]struct{}, len(identity.SelfOnlyRoles))
	for _, r := range identity.SelfOnlyRoles {
		roles[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}
	return &JWTService{
		secret:        []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		selfOnlyRoles: roles,
	}
}

// GenerateToken signs an access token. The identity provider owns issuance in
// production; this is used by tooling and tests.
func (s *JWTService) GenerateToken(userID uuid.UUID, role string, ttl time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    s.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID.String(),
		Role:   role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ValidateToken validates an access token and returns its claims
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.UserID == "" {
		return nil, ErrMissingUserID
	}
	if claims.Role == "" {
		return nil, ErrMissingRole
	}
	return claims, nil
}

// Identity turns verified claims into the caller identity, marking
// self-only roles
func (s *JWTService) Identity(claims *Claims) (shared.Identity, error) {
	userID, err := claims.GetUserUUID()
	if err != nil {
		return shared.Identity{}, ErrInvalidClaims
	}
	_, selfOnly := s.selfOnlyRoles[strings.ToLower(claims.Role)]
	return shared.Identity{
		UserID:   userID,
		Role:     claims.Role,
		SelfOnly: selfOnly,
	}, nil
}

// Authenticate validates the token and resolves the identity in one step
func (s *JWTService) Authenticate(tokenString string) (shared.Identity, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return shared.Identity{}, err
	}
	return s.Identity(claims)
}
