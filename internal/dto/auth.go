package dto

import "time"

type SignupRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Message     string `json:"message"`
	Requires2FA bool   `json:"requires2FA"`
	TempUserID  string `json:"tempUserId"`
	Email       string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string `json:"message"`
	Requires2FA bool   `json:"requires2FA"`
	TempUserID  string `json:"tempUserId"`
}

type VerifyCodeRequest struct {
	TempUserID string `json:"tempUserId"`
	Code       string `json:"code"`
}

type ResendCodeRequest struct {
	TempUserID string `json:"tempUserId"`
}

type ResendCodeResponse struct {
	Message    string `json:"message"`
	TempUserID string `json:"tempUserId,omitempty"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type TokenValidityResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type UpdateProfileRequest struct {
	ProfilePicture string `json:"profilePicture"`
}

type LogoutResponse struct {
	Message  string     `json:"message"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Session is the authenticated result of a completed code check. The token is
// written to the cookie by the transport layer, never into the body.
type Session struct {
	User      UserResponse
	Token     string
	ExpiresAt time.Time
}
