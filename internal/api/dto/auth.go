package dto

import (
	"strings"
	"time"

	"github.com/hugh/go-folio/internal/api/validation"
	"github.com/hugh/go-folio/internal/database/models"
	"github.com/hugh/go-folio/internal/plans"
)

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

func (r *SignupRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = validation.SanitizeString(r.Name)
}

func (r SignupRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	} else if ok, msg := validation.IsValidPassword(r.Password); !ok {
		errors["password"] = msg
	}
	if r.Name == "" {
		errors["name"] = "Name is required"
	}

	return errors
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Normalize trims the email the same way signup stored it.
func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r LoginRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Email == "" {
		errors["email"] = "Email is required"
	}
	if r.Password == "" {
		errors["password"] = "Password is required"
	}

	return errors
}

type ResendVerificationRequest struct {
	Email string `json:"email"`
}

func (r *ResendVerificationRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r ResendVerificationRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if r.Email == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(r.Email) {
		errors["email"] = "Invalid email format"
	}
	return errors
}

type SessionExchangeRequest struct {
	SessionID string `json:"session_id"`
}

func (r SessionExchangeRequest) Validate() map[string]string {
	errors := make(map[string]string)
	if strings.TrimSpace(r.SessionID) == "" {
		errors["session_id"] = "session_id is required"
	}
	return errors
}

type AuthResponse struct {
	User         UserDTO `json:"user"`
	SessionToken string  `json:"session_token"`
}

type UserDTO struct {
	ID         string     `json:"user_id"`
	Email      string     `json:"email"`
	Name       string     `json:"name"`
	Picture    *string    `json:"picture"`
	Plan       plans.Tier `json:"subscription_plan"`
	IsVerified bool       `json:"is_verified"`
	CreatedAt  time.Time  `json:"created_at"`
}

func NewUserDTO(u *models.User) UserDTO {
	return UserDTO{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		Picture:    u.Picture,
		Plan:       u.Plan,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
