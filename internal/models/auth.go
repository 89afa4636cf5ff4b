package models

import "github.com/golang-jwt/jwt/v5"

// RegisterRequest holds the open registration payload. The supplied
// role is stored as-is, so open registration can mint either role.
type RegisterRequest struct {
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Password   string   `json:"password" validate:"required,min=6"`
	Role       UserRole `json:"role" validate:"required,oneof=student admin"`
	Department *string  `json:"department"`
	StudentID  *string  `json:"studentId"`
}

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IP        string `json:"-"`
	UserAgent string `json:"-"`
}

// TokenResponse is the issued credential. The shape is part of the API
// contract: exactly access_token plus a literal "bearer" token type.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// JWTClaims represents the JWT payload for access tokens. The subject
// is re-resolved against the user store on every request, so a token
// whose user no longer exists stops authenticating immediately.
type JWTClaims struct {
	Role UserRole `json:"role"`
	jwt.RegisteredClaims
}
