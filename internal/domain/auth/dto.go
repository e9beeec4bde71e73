package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/minewatch/minewatch-api/internal/domain/user"
)

// RequestCodeRequest for POST /auth/code
type RequestCodeRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
}

// VerifyRequest for POST /auth/verify
type VerifyRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Code       string `json:"code" validate:"required,len=6,numeric"`
}

// RefreshRequest for POST /auth/refresh and /auth/logout
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// CodeSentResponse tells the client where the code went
type CodeSentResponse struct {
	Channel   string `json:"channel"`
	SentTo    string `json:"sent_to"`
	ExpiresIn int    `json:"expires_in"` // seconds
}

// AuthResponse returned after verify/refresh
type AuthResponse struct {
	User   UserResponse   `json:"user"`
	Tokens TokensResponse `json:"tokens"`
}

// UserResponse represents user in API response
type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email,omitempty"`
	Phone string    `json:"phone,omitempty"`
	Role  string    `json:"role"`
	// CanModerate tells the client to show report status controls
	CanModerate bool   `json:"can_moderate"`
	CreatedAt   string `json:"created_at"`
}

// TokensResponse represents tokens in API response
type TokensResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"` // seconds until access token expires
	TokenType    string `json:"token_type"`
}

// NewUserResponse creates UserResponse from a user entity
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email.String,
		Phone:       u.Phone.String,
		Role:        string(u.Role),
		CanModerate: u.IsAuthority(),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}
