package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-batch/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

func newTestService(t *testing.T, secret string, now func() time.Time) JWTService {
	t.Helper()
	svc, err := NewJWTServiceWithClock(config.AuthConfig{JWTSecret: secret, TokenLifetimeMinutes: 60}, now)
	require.NoError(t, err)
	return svc
}

func fixed(ts time.Time) func() time.Time {
	return func() time.Time { return ts }
}

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	svc := newTestService(t, testSecret, fixed(fixedTime))

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Failures(t *testing.T) {
	t.Parallel()

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	token, err := newTestService(t, testSecret, fixed(issued)).GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	refreshLike := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtCustomClaims{
		UserID:    userID,
		TokenType: "refresh",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(issued.Add(time.Hour)),
		},
	})
	refreshToken, err := refreshLike.SignedString([]byte(testSecret))
	require.NoError(t, err)

	futureToken, err := newTestService(t, testSecret, fixed(issued.Add(time.Hour))).
		GenerateToken(context.Background(), userID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		svc     JWTService
		token   string
		wantErr error
	}{
		{"empty token", newTestService(t, testSecret, fixed(issued)), "", ErrMissingToken},
		{"garbage", newTestService(t, testSecret, fixed(issued)), "not.a.jwt", ErrInvalidToken},
		{"wrong secret", newTestService(t, wrongSecret, fixed(issued)), token, ErrInvalidToken},
		{"expired", newTestService(t, testSecret, fixed(issued.Add(2*time.Hour))), token, ErrExpiredToken},
		{"within clock skew", newTestService(t, testSecret, fixed(issued.Add(61*time.Minute))), token, nil},
		{"wrong token type", newTestService(t, testSecret, fixed(issued)), refreshToken, ErrInvalidToken},
		{"issued in the future", newTestService(t, testSecret, fixed(issued)), futureToken, ErrTokenNotYetValid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			claims, err := tt.svc.ValidateToken(context.Background(), tt.token)
			if tt.wantErr == nil {
				require.NoError(t, err)
				assert.Equal(t, userID, claims.UserID)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestNewJWTService_WeakSecret(t *testing.T) {
	t.Parallel()

	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.ErrorIs(t, err, ErrWeakSecret)
}
