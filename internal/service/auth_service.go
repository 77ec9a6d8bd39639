package service

import (
	"context"

	"talks/internal/domain"
	"talks/internal/dto"
)

type AuthService interface {
	Signup(ctx context.Context, req dto.SignupRequest) (*dto.SignupResponse, error)
	VerifySignup(ctx context.Context, req dto.VerifyCodeRequest) (*dto.Session, error)
	ResendSignupCode(ctx context.Context, req dto.ResendCodeRequest) (*dto.ResendCodeResponse, error)

	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Verify2FA(ctx context.Context, req dto.VerifyCodeRequest) (*dto.Session, error)
	Resend2FACode(ctx context.Context, req dto.ResendCodeRequest) (*dto.ResendCodeResponse, error)

	ForgotPassword(ctx context.Context, req dto.ForgotPasswordRequest) (*dto.MessageResponse, error)
	ValidateResetToken(ctx context.Context, token string) (*dto.TokenValidityResponse, error)
	ResetPassword(ctx context.Context, req dto.ResetPasswordRequest) (*dto.MessageResponse, error)

	Logout(ctx context.Context, userID domain.UserID) (*dto.LogoutResponse, error)
	UpdateProfile(ctx context.Context, userID domain.UserID, req dto.UpdateProfileRequest) (*dto.UserResponse, error)
	// Authenticate resolves a session token to its user.
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}
