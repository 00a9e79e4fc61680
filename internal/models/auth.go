package models

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// LoginRequest holds credentials for a role login.
type LoginRequest struct {
	Username string   `json:"username" validate:"required"`
	Password string   `json:"password" validate:"required"`
	Role     UserRole `json:"role" validate:"required,oneof=ADMIN LECTURER STUDENT"`
}

// StudentLoginRequest authenticates a student by email and student code.
type StudentLoginRequest struct {
	Email       string `json:"email" validate:"required,email"`
	StudentCode string `json:"student_code" validate:"required"`
}

// LoginResponse returns the issued token and identity.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresIn   int64     `json:"expires_in"`
	User        UserInfo  `json:"user"`
	IssuedAt    time.Time `json:"issued_at"`
}

// UserInfo describes the authenticated principal in responses.
type UserInfo struct {
	Username    string   `json:"username"`
	Role        UserRole `json:"role"`
	DisplayName string   `json:"display_name"`
	StudentID   *int64   `json:"student_id,omitempty"`
}

// JWTClaims represents the JWT payload for access tokens.
type JWTClaims struct {
	Username  string   `json:"username"`
	Role      UserRole `json:"role"`
	StudentID *int64   `json:"student_id,omitempty"`
	jwt.RegisteredClaims
}
