package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yigit/electives/internal/pkg/apperrors"
)

func newTestJWTService(exp time.Duration) *JWTService {
	return NewJWTService(JWTConfig{
		SecretKey:      "test-secret",
		AccessTokenExp: exp,
		TokenIssuer:    "electives.test",
	})
}

func TestJWTService_RoundTrip(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	token, err := svc.GenerateAccessToken(7, "cse_student_7", "STUDENT")
	require.NoError(t, err)

	claims, err := svc.ValidateAndExtractClaims(token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "cse_student_7", claims.Username)
	assert.Equal(t, "STUDENT", claims.Role)
	assert.Equal(t, "7", claims.Subject)
	assert.NotEmpty(t, claims.ID)
}

func TestJWTService_Rejections(t *testing.T) {
	svc := newTestJWTService(time.Hour)

	_, err := svc.ValidateAndExtractClaims("")
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	expired, err := newTestJWTService(-time.Minute).GenerateAccessToken(1, "u", "ADMIN")
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(expired)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)

	other := NewJWTService(JWTConfig{SecretKey: "other", AccessTokenExp: time.Hour, TokenIssuer: "electives.test"})
	foreign, err := other.GenerateAccessToken(1, "u", "ADMIN")
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(foreign)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	wrongIssuer := NewJWTService(JWTConfig{SecretKey: "test-secret", AccessTokenExp: time.Hour, TokenIssuer: "elsewhere"})
	token, err := wrongIssuer.GenerateAccessToken(1, "u", "ADMIN")
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(token)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)

	noRole, err := svc.GenerateAccessToken(1, "u", "")
	require.NoError(t, err)
	_, err = svc.ValidateAndExtractClaims(noRole)
	assert.ErrorIs(t, err, apperrors.ErrTokenInvalid)
}

func TestExtractBearerToken(t *testing.T) {
	token, err := ExtractBearerToken("Bearer a.b.c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", token)

	token, err = ExtractBearerToken("  a.b.c ")
	require.NoError(t, err)
	assert.Equal(t, "a.b.c", token)

	for _, header := range []string{"", "Bearer ", "Basic dXNlcg==", "opaque"} {
		_, err := ExtractBearerToken(header)
		assert.ErrorIs(t, err, ErrInvalidFormat, header)
	}
}
