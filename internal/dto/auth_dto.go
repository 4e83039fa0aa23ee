package dto

import "github.com/ahmetcoskunkizilkaya/account-service/internal/models"

type SignUpRequest struct {
	Name     string  `json:"name" form:"name"`
	Email    string  `json:"email" form:"email"`
	Password string  `json:"password" form:"password"`
	Gender   *string `json:"gender,omitempty" form:"gender"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SocialSignInRequest struct {
	AccessToken string `json:"access_token"`
}

type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" form:"display_name"`
	Name        *string `json:"name,omitempty" form:"name"`
	Gender      *string `json:"gender,omitempty" form:"gender"`
	Phone       *string `json:"phone,omitempty" form:"phone"`
	Birthday    *string `json:"birthday,omitempty" form:"birthday"` // YYYY-MM-DD or RFC 3339
	DeleteImage bool    `json:"delete_image" form:"delete_image"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type IDTokenResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
}

type VersionResponse struct {
	Version string `json:"version"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Version   string `json:"version"`
}
