package models

// LoginRequest defines the structure for login requests
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RegisterRequest defines the structure for registration requests
type RegisterRequest struct {
	Username     string  `json:"username" form:"username" binding:"required"`
	Password     string  `json:"password" form:"password" binding:"required,min=6"`
	FullName     string  `json:"full_name" form:"full_name" binding:"required"`
	EmailAddress *string `json:"email_address,omitempty" form:"email_address" binding:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number,omitempty" form:"phone_number"`
}

// TokenResponse is returned on successful login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
