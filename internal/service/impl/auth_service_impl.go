package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"talks/internal/domain"
	"talks/internal/dto"
	"talks/internal/observability/metrics"
	"talks/internal/observability/middleware"
	"talks/internal/service"
	"talks/internal/store"

	"github.com/google/uuid"
)

const minPasswordLen = 6

const (
	msgSignupCodeSent    = "Verification code sent to your email"
	msgSignupCodeResent  = "New verification code sent to your email"
	msgLoginCodeSent     = "2FA code sent to your email"
	msgLoginCodeResent   = "New code sent to your email"
	msgResetLinkSent     = "If an account with that email exists, a password reset link has been sent"
	msgTokenValid        = "Token is valid"
	msgPasswordResetDone = "Password reset successfully"
	msgLoggedOut         = "Logged out successfully"
)

type AuthServiceImpl struct {
	Store     *store.Store
	Passwords service.PasswordService
	Sessions  service.SessionService
	Codes     service.CodeEngine
	Assets    service.AssetUploader

	now func() time.Time
}

func NewAuthServiceImpl(
	st *store.Store,
	passwords service.PasswordService,
	sessions service.SessionService,
	codes service.CodeEngine,
	assets service.AssetUploader,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		Store:     st,
		Passwords: passwords,
		Sessions:  sessions,
		Codes:     codes,
		Assets:    assets,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (a *AuthServiceImpl) Signup(ctx context.Context, r dto.SignupRequest) (*dto.SignupResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthSignupsTotal.WithLabelValues(result).Inc()
	}()

	fullName := strings.TrimSpace(r.FullName)
	email := strings.TrimSpace(r.Email)
	if fullName == "" || email == "" || r.Password == "" {
		result = "invalid"
		return nil, domain.ErrMissingFields
	}
	if utf8.RuneCountInString(r.Password) < minPasswordLen {
		result = "invalid"
		return nil, domain.ErrPasswordTooShort
	}

	hash, err := a.Passwords.Hash(r.Password)
	if err != nil {
		result = "failure"
		return nil, err
	}

	now := a.now()
	var user *domain.User
	err = a.Store.WithTx(ctx, func(tx *store.Store) error {
		// an abandoned signup whose code already expired frees the address
		purged, err := tx.Users().DeleteExpiredUnverified(ctx, email, now)
		if err != nil {
			return err
		}
		if purged > 0 {
			metrics.UnverifiedPurgedTotal.Add(float64(purged))
			slog.Info("purged abandoned signup", append(middleware.LogAttrs(ctx), "email", email)...)
		}

		if _, err := tx.Users().GetByEmail(ctx, email); err == nil {
			return domain.ErrEmailTaken
		} else if !errors.Is(err, store.ErrRecordNotFound) {
			return err
		}

		user = &domain.User{
			ID:           uuid.New(),
			Email:        email,
			FullName:     fullName,
			PasswordHash: hash,
			Verified:     false,
			LastSeen:     now,
		}
		if err := tx.Users().Create(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return domain.ErrEmailTaken
			}
			return err
		}
		return nil
	})
	if err != nil {
		result = "rejected"
		if _, ok := domain.AsError(err); !ok {
			result = "failure"
		}
		return nil, err
	}

	if _, err := a.Codes.IssueCode(ctx, user, domain.ChallengeSignupConfirm); err != nil {
		result = "failure"
		return nil, err
	}

	slog.Info("signup pending verification", append(middleware.LogAttrs(ctx), "user_id", user.ID)...)
	return &dto.SignupResponse{
		Message:     msgSignupCodeSent,
		Requires2FA: true,
		TempUserID:  user.ID.String(),
		Email:       user.Email,
	}, nil
}

func (a *AuthServiceImpl) VerifySignup(ctx context.Context, r dto.VerifyCodeRequest) (*dto.Session, error) {
	user, err := a.loadTempUser(ctx, r.TempUserID, domain.ErrInvalidVerification)
	if err != nil {
		return nil, err
	}

	switch a.Codes.VerifyCode(user, domain.ChallengeSignupConfirm, r.Code, a.now()) {
	case service.VerifyNone:
		return nil, domain.ErrVerificationExpired
	case service.VerifyExpired:
		if err := a.Store.Users().Delete(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("delete expired signup: %w", err)
		}
		metrics.UnverifiedPurgedTotal.Inc()
		return nil, domain.ErrSignupCodeExpired
	case service.VerifyMismatch:
		return nil, domain.ErrInvalidSignupCode
	}

	if err := a.Codes.ConsumeCode(ctx, user); err != nil {
		return nil, err
	}
	if err := a.Store.Users().MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.Verified = true

	slog.Info("signup verified", append(middleware.LogAttrs(ctx), "user_id", user.ID)...)
	return a.startSession(ctx, user)
}

func (a *AuthServiceImpl) ResendSignupCode(ctx context.Context, r dto.ResendCodeRequest) (*dto.ResendCodeResponse, error) {
	user, err := a.loadTempUser(ctx, r.TempUserID, domain.ErrInvalidSession)
	if err != nil {
		return nil, err
	}
	if user.Verified {
		return nil, domain.ErrAlreadyVerified
	}
	if _, err := a.Codes.IssueCode(ctx, user, domain.ChallengeSignupConfirm); err != nil {
		return nil, err
	}
	return &dto.ResendCodeResponse{Message: msgSignupCodeResent, TempUserID: user.ID.String()}, nil
}

func (a *AuthServiceImpl) Login(ctx context.Context, r dto.LoginRequest) (*dto.LoginResponse, error) {
	result := "success"
	defer func() {
		metrics.AuthLoginsTotal.WithLabelValues(result).Inc()
	}()

	email := strings.TrimSpace(r.Email)
	if email == "" || r.Password == "" {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials
	}

	user, err := a.Store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials // don't leak which field failed
	}
	if err != nil {
		result = "failure"
		return nil, err
	}

	rehashNeeded, ok := a.Passwords.Verify(r.Password, user.PasswordHash)
	if !ok {
		result = "invalid_credentials"
		return nil, domain.ErrInvalidCredentials
	}
	if !user.Verified {
		result = "unverified"
		return nil, domain.ErrEmailNotVerified
	}

	if rehashNeeded {
		if hash, err := a.Passwords.Hash(r.Password); err == nil {
			if err := a.Store.Users().SetPasswordHash(ctx, user.ID, hash); err != nil {
				slog.Warn("password rehash failed", append(middleware.LogAttrs(ctx), "user_id", user.ID, "error", err)...)
			}
		}
	}

	if _, err := a.Codes.IssueCode(ctx, user, domain.ChallengeLogin2FA); err != nil {
		result = "failure"
		return nil, err
	}

	return &dto.LoginResponse{
		Message:     msgLoginCodeSent,
		Requires2FA: true,
		TempUserID:  user.ID.String(),
	}, nil
}

func (a *AuthServiceImpl) Verify2FA(ctx context.Context, r dto.VerifyCodeRequest) (*dto.Session, error) {
	user, err := a.loadTempUser(ctx, r.TempUserID, domain.ErrInvalidVerification)
	if err != nil {
		return nil, err
	}
	if a.Codes.VerifyCode(user, domain.ChallengeLogin2FA, r.Code, a.now()) != service.VerifyOK {
		return nil, domain.ErrInvalidOrExpiredCode
	}

	if err := a.Codes.ConsumeCode(ctx, user); err != nil {
		return nil, err
	}
	now := a.now()
	if err := a.Store.Users().TouchLastSeen(ctx, user.ID, now); err != nil {
		return nil, err
	}
	user.LastSeen = now

	slog.Info("login completed", append(middleware.LogAttrs(ctx), "user_id", user.ID)...)
	return a.startSession(ctx, user)
}

func (a *AuthServiceImpl) Resend2FACode(ctx context.Context, r dto.ResendCodeRequest) (*dto.ResendCodeResponse, error) {
	user, err := a.loadTempUser(ctx, r.TempUserID, domain.ErrInvalidSession)
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, domain.ErrInvalidSession
	}
	if _, err := a.Codes.IssueCode(ctx, user, domain.ChallengeLogin2FA); err != nil {
		return nil, err
	}
	return &dto.ResendCodeResponse{Message: msgLoginCodeResent}, nil
}

func (a *AuthServiceImpl) ForgotPassword(ctx context.Context, r dto.ForgotPasswordRequest) (*dto.MessageResponse, error) {
	email := strings.TrimSpace(r.Email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}
	if err := a.Codes.IssueResetToken(ctx, email); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: msgResetLinkSent}, nil
}

// ValidateResetToken reports validity in the response; only storage failures
// are returned as errors.
func (a *AuthServiceImpl) ValidateResetToken(ctx context.Context, token string) (*dto.TokenValidityResponse, error) {
	_, err := a.Codes.LookupResetToken(ctx, token)
	if errors.Is(err, domain.ErrInvalidResetToken) {
		return &dto.TokenValidityResponse{Valid: false, Message: domain.ErrInvalidResetToken.Message}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.TokenValidityResponse{Valid: true, Message: msgTokenValid}, nil
}

func (a *AuthServiceImpl) ResetPassword(ctx context.Context, r dto.ResetPasswordRequest) (*dto.MessageResponse, error) {
	if r.Token == "" || r.NewPassword == "" {
		return nil, domain.ErrResetFieldsMissing
	}
	if utf8.RuneCountInString(r.NewPassword) < minPasswordLen {
		return nil, domain.ErrPasswordTooShort
	}
	if err := a.Codes.ConsumeResetToken(ctx, r.Token, r.NewPassword); err != nil {
		return nil, err
	}
	return &dto.MessageResponse{Message: msgPasswordResetDone}, nil
}

// Logout records lastSeen. The transport clears the cookie; the token itself
// stays valid until it expires.
func (a *AuthServiceImpl) Logout(ctx context.Context, userID domain.UserID) (*dto.LogoutResponse, error) {
	now := a.now()
	err := a.Store.Users().TouchLastSeen(ctx, userID, now)
	if errors.Is(err, store.ErrRecordNotFound) {
		return &dto.LogoutResponse{Message: msgLoggedOut}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dto.LogoutResponse{Message: msgLoggedOut, LastSeen: &now}, nil
}

func (a *AuthServiceImpl) UpdateProfile(ctx context.Context, userID domain.UserID, r dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	pic := strings.TrimSpace(r.ProfilePicture)
	if pic == "" {
		return nil, domain.ErrPictureRequired
	}

	url := pic
	if !isRemoteURL(pic) {
		data, ct, err := decodeImage(pic)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("avatars/%s/%s%s", userID, uuid.NewString(), imageExt[ct])
		url, err = a.Assets.Upload(ctx, key, ct, data)
		if err != nil {
			return nil, fmt.Errorf("upload avatar: %w", err)
		}
	}

	if err := a.Store.Users().SetProfilePicture(ctx, userID, url); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	user, err := a.Store.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := dto.NewUserResponse(user)
	return &out, nil
}

func (a *AuthServiceImpl) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrNoToken
	}
	userID, err := a.Sessions.Parse(token)
	if err != nil {
		return nil, domain.Wrap(domain.ErrInvalidToken, err)
	}
	user, err := a.Store.Users().GetByID(ctx, userID)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// loadTempUser resolves the tempUserId echoed back by the client during a
// code flow; malformed or unknown ids yield invalid.
func (a *AuthServiceImpl) loadTempUser(ctx context.Context, tempID string, invalid *domain.Error) (*domain.User, error) {
	id, err := uuid.Parse(strings.TrimSpace(tempID))
	if err != nil {
		return nil, invalid
	}
	user, err := a.Store.Users().GetByID(ctx, id)
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (a *AuthServiceImpl) startSession(ctx context.Context, user *domain.User) (*dto.Session, error) {
	token, exp, err := a.Sessions.Issue(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &dto.Session{User: dto.NewUserResponse(user), Token: token, ExpiresAt: exp}, nil
}
