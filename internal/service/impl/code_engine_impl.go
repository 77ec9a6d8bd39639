package impl

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/url"
	"strings"
	"time"

	"talks/internal/domain"
	"talks/internal/observability/metrics"
	"talks/internal/observability/middleware"
	"talks/internal/service"
	"talks/internal/store"
)

type CodeEngineConfig struct {
	CodeTTL   time.Duration // e.g. 10 * time.Minute
	ResetTTL  time.Duration // e.g. time.Hour
	ClientURL string        // base for reset links
}

type CodeEngineImpl struct {
	cfg       CodeEngineConfig
	store     *store.Store
	email     service.EmailService
	passwords service.PasswordService

	now    func() time.Time
	random io.Reader
}

func NewCodeEngine(cfg CodeEngineConfig, st *store.Store, email service.EmailService, passwords service.PasswordService) *CodeEngineImpl {
	if cfg.CodeTTL <= 0 {
		cfg.CodeTTL = 10 * time.Minute
	}
	if cfg.ResetTTL <= 0 {
		cfg.ResetTTL = time.Hour
	}
	return &CodeEngineImpl{
		cfg:       cfg,
		store:     st,
		email:     email,
		passwords: passwords,
		now:       func() time.Time { return time.Now().UTC() },
		random:    rand.Reader,
	}
}

var codeSpan = big.NewInt(900000)

func (e *CodeEngineImpl) generateCode() (string, error) {
	n, err := rand.Int(e.random, codeSpan)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// IssueCode replaces any outstanding challenge on user with a fresh code of
// the given kind, persists it and mails it.
func (e *CodeEngineImpl) IssueCode(ctx context.Context, user *domain.User, kind domain.ChallengeKind) (string, error) {
	code, err := e.generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	c := &domain.Challenge{Kind: kind, Code: code, ExpiresAt: e.now().Add(e.cfg.CodeTTL)}
	if err := e.store.Users().SetChallenge(ctx, user.ID, c); err != nil {
		return "", fmt.Errorf("store challenge: %w", err)
	}
	user.SetChallenge(c)
	metrics.CodesIssuedTotal.WithLabelValues(string(kind)).Inc()

	if err := e.email.SendCode(ctx, user.Email, kind, code); err != nil {
		return "", fmt.Errorf("send code: %w", err)
	}
	slog.Info("code issued", append(middleware.LogAttrs(ctx), "user_id", user.ID, "kind", kind)...)
	return code, nil
}

func (e *CodeEngineImpl) VerifyCode(user *domain.User, kind domain.ChallengeKind, submitted string, now time.Time) service.VerifyResult {
	res := verifyChallenge(user.Challenge(), kind, submitted, now)
	metrics.CodesVerifiedTotal.WithLabelValues(string(kind), res.String()).Inc()
	return res
}

func verifyChallenge(c *domain.Challenge, kind domain.ChallengeKind, submitted string, now time.Time) service.VerifyResult {
	if c == nil || c.Kind != kind {
		return service.VerifyNone
	}
	if c.Expired(now) {
		return service.VerifyExpired
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(submitted)) != 1 {
		return service.VerifyMismatch
	}
	return service.VerifyOK
}

func (e *CodeEngineImpl) ConsumeCode(ctx context.Context, user *domain.User) error {
	if err := e.store.Users().SetChallenge(ctx, user.ID, nil); err != nil {
		return err
	}
	user.SetChallenge(nil)
	return nil
}

// IssueResetToken mails a reset link when email belongs to a user and does
// nothing otherwise.
func (e *CodeEngineImpl) IssueResetToken(ctx context.Context, email string) error {
	result := "sent"
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("request", result).Inc()
	}()

	user, err := e.store.Users().GetByEmail(ctx, email)
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "unknown_email"
		return nil
	}
	if err != nil {
		result = "failure"
		return err
	}

	buf := make([]byte, 32)
	if _, err := io.ReadFull(e.random, buf); err != nil {
		result = "failure"
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := e.store.Users().SetResetToken(ctx, user.ID, hashToken(token), e.now().Add(e.cfg.ResetTTL)); err != nil {
		result = "failure"
		return fmt.Errorf("store reset token: %w", err)
	}
	if err := e.email.SendPasswordReset(ctx, user.Email, user.FullName, e.resetLink(token)); err != nil {
		result = "failure"
		return fmt.Errorf("send reset link: %w", err)
	}
	slog.Info("password reset requested", append(middleware.LogAttrs(ctx), "user_id", user.ID)...)
	return nil
}

func (e *CodeEngineImpl) LookupResetToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domain.ErrInvalidResetToken
	}
	user, err := e.store.Users().GetByResetTokenHash(ctx, hashToken(token), e.now())
	if errors.Is(err, store.ErrRecordNotFound) {
		return nil, domain.ErrInvalidResetToken
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ConsumeResetToken sets the new password and drops the token in one
// conditional write, then mails a confirmation.
func (e *CodeEngineImpl) ConsumeResetToken(ctx context.Context, token, newPassword string) error {
	result := "success"
	defer func() {
		metrics.PasswordResetsTotal.WithLabelValues("complete", result).Inc()
	}()

	user, err := e.LookupResetToken(ctx, token)
	if err != nil {
		result = "invalid_token"
		return err
	}
	hash, err := e.passwords.Hash(newPassword)
	if err != nil {
		result = "failure"
		return err
	}
	// another request may have redeemed the token since the lookup
	err = e.store.Users().RedeemResetToken(ctx, user.ID, hashToken(token), hash, e.now())
	if errors.Is(err, store.ErrRecordNotFound) {
		result = "invalid_token"
		return domain.ErrInvalidResetToken
	}
	if err != nil {
		result = "failure"
		return err
	}
	if err := e.email.SendPasswordChanged(ctx, user.Email, user.FullName); err != nil {
		result = "failure"
		return fmt.Errorf("send password changed: %w", err)
	}
	slog.Info("password reset completed", append(middleware.LogAttrs(ctx), "user_id", user.ID)...)
	return nil
}

func (e *CodeEngineImpl) resetLink(token string) string {
	return strings.TrimRight(e.cfg.ClientURL, "/") + "/reset-password?token=" + url.QueryEscape(token)
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
