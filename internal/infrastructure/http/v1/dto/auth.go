package dto

import (
	"time"

	"lotledger/internal/domain/auth"
)

// LoginRequest for operator login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials converts to domain credentials.
func (r *LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// LoginResponse carries the access token.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      string    `json:"userId"`
	Roles       []string  `json:"roles"`
}

func FromLogin(tokens *auth.TokenPair, op *auth.Operator) LoginResponse {
	return LoginResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		ExpiresAt:   tokens.ExpiresAt,
		UserID:      op.ID,
		Roles:       op.Roles,
	}
}
