package dto

import "bolsafeucn/internal/models"

// RegisterRequest - регистрация студента, компании или частного лица.
// Администраторы создаются только через seed.
type RegisterRequest struct {
	Email    string          `json:"email" validate:"required,email,max=255"`
	Password string          `json:"password" validate:"required,min=8,max=72"`
	Role     models.UserRole `json:"role" validate:"required,is-self-register-role"`

	FirstName string `json:"first_name" validate:"required_unless=Role company,max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Rut       string `json:"rut" validate:"omitempty,max=20"`

	// Только для студента
	Career string `json:"career" validate:"omitempty,max=150"`

	// Только для компании
	CompanyName  string `json:"company_name" validate:"required_if=Role company,max=200"`
	BusinessName string `json:"business_name" validate:"omitempty,max=200"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	User        *UserInfo `json:"user"`
}

type MeResponse struct {
	ID          uint    `json:"id"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	DisplayName string  `json:"display_name"`
	Rating      float64 `json:"rating"`
}
