package models

import (
	"strings"
	"time"

	"petidentity/pkg/domain"
	"petidentity/pkg/email"
)

// User is an account holder. PasswordHash never leaves the service layer.
type User struct {
	ID            int64
	Name          string
	Email         string
	PasswordHash  string
	Role          domain.Role
	WalletAddress *string
	CreatedAt     time.Time
}

// Stats is the admin dashboard summary.
type Stats struct {
	TotalPets           int64 `json:"totalPets"`
	TotalMedicalRecords int64 `json:"totalMedicalRecords"`
	TotalTransfers      int64 `json:"totalTransfers"`
}

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role,omitempty"`
}

// Normalize trims input and lower-cases the email.
func (r *RegisterRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = email.Normalize(r.Email)
	r.Role = strings.ToUpper(strings.TrimSpace(r.Role))
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type BindWalletRequest struct {
	WalletAddress string `json:"walletAddress" validate:"required"`
}

// LoginResult carries the issued access token.
type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        *User
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	WalletAddress *string   `json:"walletAddress"`
	CreatedAt     time.Time `json:"createdAt"`
}

func ToResponse(u *User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          string(u.Role),
		WalletAddress: u.WalletAddress,
		CreatedAt:     u.CreatedAt,
	}
}

type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	ExpiresIn   int64        `json:"expiresIn"`
	User        UserResponse `json:"user"`
}
