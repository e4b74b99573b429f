package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"lotledger/internal/core/apperror"
)

func testOperators(t *testing.T) []Operator {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return []Operator{{ID: "op-1", Email: "Clerk@Example.com", PasswordHash: string(hash), Roles: []string{RoleClerk}}}
}

func TestLoginIssuesValidToken(t *testing.T) {
	jwtService := NewJWTService(DefaultJWTConfig("secret"))
	svc := NewService(jwtService, testOperators(t))

	tokens, op, err := svc.Login(context.Background(), Credentials{Email: "clerk@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, "op-1", op.ID)
	assert.Equal(t, "Bearer", tokens.TokenType)

	user, err := jwtService.ValidateToken(tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "op-1", user.UserID)
	assert.Equal(t, []string{RoleClerk}, user.Roles)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := NewService(NewJWTService(DefaultJWTConfig("secret")), testOperators(t))

	_, _, err := svc.Login(context.Background(), Credentials{Email: "clerk@example.com", Password: "wrong"})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))

	_, _, err = svc.Login(context.Background(), Credentials{Email: "nobody@example.com", Password: "correct horse"})
	assert.True(t, apperror.Is(err, apperror.CodeUnauthorized))
}

func TestValidateTokenRejectsExpiredAndForeignTokens(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret"))
	issuer.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, _, err := issuer.GenerateAccessToken("u", "u@example.com", nil)
	require.NoError(t, err)

	_, err = NewJWTService(DefaultJWTConfig("secret")).ValidateToken(stale)
	assert.Error(t, err)

	fresh, _, err := NewJWTService(DefaultJWTConfig("other")).GenerateAccessToken("u", "u@example.com", nil)
	require.NoError(t, err)
	_, err = NewJWTService(DefaultJWTConfig("secret")).ValidateToken(fresh)
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.True(t, apperror.Is(err, apperror.CodeValidation))

	hash, err := HashPassword("long enough")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("long enough")))
}
