package requestresponse

import "time"

// RegisterRequest : registration body
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50" example:"alice"`
	Email    string `json:"email" validate:"required,email,max=120" example:"a@x.com"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"secret123"`
}

// RegisterResponse : successful registration
type RegisterResponse struct {
	Message string `json:"message" example:"User created"`
	UserID  int64  `json:"user_id" example:"1"`
}

// LoginRequest : credentials
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"a@x.com"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

// LoginResponse : both tokens with their identifiers and expiry instants
type LoginResponse struct {
	AccessToken    string    `json:"access_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	AccessJTI      string    `json:"access_jti" example:"4f8c0e5b9a7d4c1e8f2a6b3c9d0e1f2a"`
	AccessExpires  time.Time `json:"access_expires"`
	RefreshToken   string    `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	RefreshJTI     string    `json:"refresh_jti" example:"9a1b2c3d4e5f60718293a4b5c6d7e8f9"`
	RefreshExpires time.Time `json:"refresh_expires"`
	Username       string    `json:"username" example:"alice"`
}

// RefreshTokenRequest : refresh body
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// RefreshTokenResponse : the new access token; refresh fields appear only with rotation enabled
type RefreshTokenResponse struct {
	AccessToken    string     `json:"access_token"`
	AccessJTI      string     `json:"access_jti"`
	AccessExpires  time.Time  `json:"access_expires"`
	RefreshToken   string     `json:"refresh_token,omitempty"`
	RefreshJTI     string     `json:"refresh_jti,omitempty"`
	RefreshExpires *time.Time `json:"refresh_expires,omitempty"`
}

// LogoutRequest : optional body when the token is not sent as a bearer header
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// MessageResponse : plain confirmation
type MessageResponse struct {
	Message string `json:"message" example:"Logged out (refresh token revoked)"`
}
