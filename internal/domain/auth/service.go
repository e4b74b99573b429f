package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lotledger/internal/core/apperror"
	"lotledger/pkg/logger"
)

// Roles understood by the API.
const (
	RoleAdmin = "admin"
	RoleClerk = "clerk"
)

// Operator is a configured API user.
type Operator struct {
	ID           string
	Email        string
	PasswordHash string
	Roles        []string
}

// Credentials for login.
type Credentials struct {
	Email    string
	Password string
}

// TokenPair is the login result. Only access tokens are issued.
type TokenPair struct {
	AccessToken string
	ExpiresAt   time.Time
	TokenType   string
}

// Service authenticates operators against bcrypt hashes.
type Service struct {
	jwt       *JWTService
	operators map[string]Operator
	dummyHash []byte
}

// NewService indexes operators by lower-cased email.
func NewService(jwtService *JWTService, operators []Operator) *Service {
	byEmail := make(map[string]Operator, len(operators))
	for _, op := range operators {
		byEmail[strings.ToLower(op.Email)] = op
	}
	// Unknown emails still pay for one bcrypt comparison.
	dummyHash, _ := bcrypt.GenerateFromPassword([]byte("lotledger"), bcrypt.DefaultCost)
	return &Service{jwt: jwtService, operators: byEmail, dummyHash: dummyHash}
}

// Login verifies credentials and issues an access token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *Operator, error) {
	op, ok := s.operators[strings.ToLower(creds.Email)]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(creds.Password))
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(creds.Password)); err != nil {
		logger.Warn(ctx, "login failed", "email", op.Email)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.jwt.GenerateAccessToken(op.ID, op.Email, op.Roles)
	if err != nil {
		return nil, nil, fmt.Errorf("generate access token: %w", err)
	}

	logger.Info(ctx, "operator logged in", "user_id", op.ID, "email", op.Email)

	return &TokenPair{AccessToken: token, ExpiresAt: expiresAt, TokenType: "Bearer"}, &op, nil
}

// HashPassword produces a bcrypt hash for operator configuration.
func HashPassword(password string) (string, error) {
	if len(password) < 8 {
		return "", apperror.NewValidation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}
