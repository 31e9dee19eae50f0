package auth

import (
	"strings"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/hospital-records/internal/domain"
)

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var (
	testSecret = []byte("0123456789abcdef0123456789abcdef")
	t0         = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
)

func TestIssue_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret)

	for _, role := range domain.Roles {
		t.Run(string(role), func(t *testing.T) {
			token, exp, err := tm.Issue("doc@hospital.test", role, t0)
			require.NoError(t, err)
			assert.True(t, exp.Equal(t0.Add(time.Hour)))
			assert.Len(t, strings.Split(token, "."), 3)

			claims, err := tm.ParseAndVerify(token)
			require.NoError(t, err)
			assert.Equal(t, "doc@hospital.test", claims.Subject)
			assert.Equal(t, role, claims.Role)
			assert.True(t, claims.IssuedAt.Time.Equal(t0))
			assert.True(t, claims.ExpiresAt.Time.Equal(t0.Add(TokenTTL)))
			assert.NotEmpty(t, claims.ID)
		})
	}
}

func TestValidate_ExpiryBoundary(t *testing.T) {
	tm := NewTokenManager(testSecret)
	token, _, err := tm.Issue("doc@hospital.test", domain.RoleDoctor, t0)
	require.NoError(t, err)

	_, err = tm.Validate(token, "doc@hospital.test", t0.Add(59*time.Minute+59*time.Second))
	assert.NoError(t, err)

	_, err = tm.Validate(token, "doc@hospital.test", t0.Add(time.Hour))
	assert.ErrorIs(t, err, domain.ErrExpiredToken)

	_, err = tm.Validate(token, "doc@hospital.test", t0.Add(time.Hour+time.Second))
	assert.ErrorIs(t, err, domain.ErrExpiredToken)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestValidate_SubjectMatchIsCaseInsensitive(t *testing.T) {
	tm := NewTokenManager(testSecret)
	token, _, err := tm.Issue("doc@hospital.test", domain.RoleDoctor, t0)
	require.NoError(t, err)

	_, err = tm.Validate(token, "DOC@Hospital.test", t0)
	assert.NoError(t, err)

	_, err = tm.Validate(token, "nurse@hospital.test", t0)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
	assert.NotErrorIs(t, err, domain.ErrExpiredToken)
}

func TestParseAndVerify_TamperedSignature(t *testing.T) {
	tm := NewTokenManager(testSecret)
	token, _, err := tm.Issue("doc@hospital.test", domain.RoleNurse, t0)
	require.NoError(t, err)

	sigStart := strings.LastIndex(token, ".") + 1
	for i := sigStart; i < len(token); i++ {
		tampered := flipChar(token, i)
		_, err := tm.ParseAndVerify(tampered)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "position %d", i)
	}
}

func TestParseAndVerify_TamperedPayload(t *testing.T) {
	tm := NewTokenManager(testSecret)
	token, _, err := tm.Issue("doc@hospital.test", domain.RoleNurse, t0)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged, _, err := NewTokenManager([]byte("another-secret-another-secret-xx")).Issue("doc@hospital.test", domain.RoleAdmin, t0)
	require.NoError(t, err)
	// admin payload grafted onto the original signature
	parts[1] = strings.Split(forged, ".")[1]

	_, err = tm.ParseAndVerify(strings.Join(parts, "."))
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestParseAndVerify_WrongSecret(t *testing.T) {
	other := NewTokenManager([]byte("ffffffffffffffffffffffffffffffff"))
	token, _, err := other.Issue("doc@hospital.test", domain.RoleDoctor, t0)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret).ParseAndVerify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestParseAndVerify_Malformed(t *testing.T) {
	tm := NewTokenManager(testSecret)

	for _, token := range []string{"", "garbage", "a.b", "a.b.c", "..."} {
		_, err := tm.ParseAndVerify(token)
		assert.ErrorIs(t, err, domain.ErrInvalidToken, "token %q", token)
	}
}

func TestParseAndVerify_RejectsNoneAlgorithm(t *testing.T) {
	claims := &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doc@hospital.test",
			IssuedAt:  jwt.NewNumericDate(t0),
			ExpiresAt: jwt.NewNumericDate(t0.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret).ParseAndVerify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestParseAndVerify_MissingClaims(t *testing.T) {
	full := jwt.MapClaims{
		"sub":  "doc@hospital.test",
		"role": "DOCTOR",
		"iat":  t0.Unix(),
		"exp":  t0.Add(time.Hour).Unix(),
	}

	for _, missing := range []string{"sub", "role", "iat", "exp"} {
		t.Run(missing, func(t *testing.T) {
			claims := jwt.MapClaims{}
			for k, v := range full {
				if k != missing {
					claims[k] = v
				}
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
			require.NoError(t, err)

			_, err = NewTokenManager(testSecret).ParseAndVerify(token)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestParseAndVerify_UnknownRole(t *testing.T) {
	claims := jwt.MapClaims{
		"sub":  "doc@hospital.test",
		"role": "PATIENT",
		"iat":  t0.Unix(),
		"exp":  t0.Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)

	_, err = NewTokenManager(testSecret).ParseAndVerify(token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestPeekSubject(t *testing.T) {
	tm := NewTokenManager(testSecret)
	forged, _, err := NewTokenManager([]byte("ffffffffffffffffffffffffffffffff")).Issue("doc@hospital.test", domain.RoleAdmin, t0)
	require.NoError(t, err)

	// the signature is not consulted
	subject, err := tm.PeekSubject(forged)
	require.NoError(t, err)
	assert.Equal(t, "doc@hospital.test", subject)

	_, err = tm.PeekSubject("garbage")
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestIsExpired(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(t0)}}

	assert.False(t, IsExpired(claims, t0.Add(-time.Second)))
	assert.True(t, IsExpired(claims, t0))
	assert.True(t, IsExpired(claims, t0.Add(time.Second)))
	assert.True(t, IsExpired(&Claims{}, t0))
}

func TestNewTokenManager_CopiesSecret(t *testing.T) {
	secret := append([]byte(nil), testSecret...)
	tm := NewTokenManager(secret)
	token, _, err := tm.Issue("doc@hospital.test", domain.RoleDoctor, t0)
	require.NoError(t, err)

	secret[0] = 'X'
	_, err = tm.ParseAndVerify(token)
	assert.NoError(t, err)
}

// flipChar swaps the character at i for one whose 6-bit value differs in the
// high bit, which is always a data bit even in the final base64 character.
func flipChar(s string, i int) string {
	idx := strings.IndexByte(base64URLAlphabet, s[i])
	b := []byte(s)
	b[i] = base64URLAlphabet[idx^32]
	return string(b)
}
