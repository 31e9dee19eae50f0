package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/spec-kit/hospital-records/internal/domain"
)

// TokenTTL is the fixed validity window of an issued token.
const TokenTTL = time.Hour

// Claims describes the JWT payload. Role is a snapshot taken at issuance.
type Claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 tokens signed with a single
// process-wide key. The key is never mutated after construction, so one
// manager is shared by all requests.
type TokenManager struct {
	secret []byte
	parser *jwt.Parser
	peeker *jwt.Parser
}

// NewTokenManager builds a new manager around the raw signing key.
func NewTokenManager(secret []byte) *TokenManager {
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenManager{
		secret: key,
		// Time-based claims are checked by Validate against the caller's clock.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
			jwt.WithStrictDecoding(),
		),
		peeker: jwt.NewParser(jwt.WithStrictDecoding()),
	}
}

// Issue builds and signs a token for subject valid from now until now+TokenTTL.
func (tm *TokenManager) Issue(subject string, role domain.Role, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(TokenTTL)
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, claims.ExpiresAt.Time, nil
}

// ParseAndVerify checks structure, signature and required claims. Expiry is
// not evaluated here; see IsExpired.
func (tm *TokenManager) ParseAndVerify(tokenStr string) (*Claims, error) {
	parsed, err := tm.parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if err := requireClaims(claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// PeekSubject reads the subject claim without checking the signature. The
// result only selects which principal to load; it must not be trusted until
// Validate succeeds for that principal.
func (tm *TokenManager) PeekSubject(tokenStr string) (string, error) {
	claims := &Claims{}
	if _, _, err := tm.peeker.ParseUnverified(tokenStr, claims); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing sub", domain.ErrInvalidToken)
	}
	return claims.Subject, nil
}

// IsExpired reports whether now is at or past the token expiry.
func IsExpired(claims *Claims, now time.Time) bool {
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return !now.Before(claims.ExpiresAt.Time)
}

// Validate accepts a token only when it verifies, names expectedSubject
// (case-insensitive) and has not expired. Every failure matches
// domain.ErrInvalidToken; expiry additionally matches domain.ErrExpiredToken
// for diagnostics.
func (tm *TokenManager) Validate(tokenStr, expectedSubject string, now time.Time) (*Claims, error) {
	claims, err := tm.ParseAndVerify(tokenStr)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(claims.Subject, expectedSubject) {
		return nil, fmt.Errorf("%w: subject mismatch", domain.ErrInvalidToken)
	}
	if IsExpired(claims, now) {
		return nil, domain.ErrExpiredToken
	}
	return claims, nil
}

func requireClaims(claims *Claims) error {
	switch {
	case claims.Subject == "":
		return fmt.Errorf("%w: missing sub", domain.ErrInvalidToken)
	case !claims.Role.Valid():
		return fmt.Errorf("%w: missing role", domain.ErrInvalidToken)
	case claims.IssuedAt == nil:
		return fmt.Errorf("%w: missing iat", domain.ErrInvalidToken)
	case claims.ExpiresAt == nil:
		return fmt.Errorf("%w: missing exp", domain.ErrInvalidToken)
	}
	return nil
}
