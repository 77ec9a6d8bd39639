package impl

import (
	"context"
	"log/slog"
	"time"

	"talks/internal/domain"
	"talks/internal/observability/metrics"
	"talks/internal/observability/middleware"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SessionConfig struct {
	Issuer     string        // e.g. "talks"
	TTL        time.Duration // e.g. 7 * 24h
	SigningKey []byte        // HS256 secret
}

type SessionServiceImpl struct {
	cfg SessionConfig
	now func() time.Time
}

func NewSessionServiceHS256(cfg SessionConfig) *SessionServiceImpl {
	if cfg.TTL <= 0 {
		cfg.TTL = 7 * 24 * time.Hour
	}
	return &SessionServiceImpl{cfg: cfg, now: time.Now}
}

func (s *SessionServiceImpl) TTL() time.Duration { return s.cfg.TTL }

// Issue signs a stateless session credential for userID.
func (s *SessionServiceImpl) Issue(ctx context.Context, userID domain.UserID) (string, time.Time, error) {
	result := "success"
	defer func() {
		metrics.SessionsIssuedTotal.WithLabelValues(result).Inc()
	}()

	now := s.now().UTC()
	exp := now.Add(s.cfg.TTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SigningKey)
	if err != nil {
		result = "failure"
		return "", time.Time{}, err
	}

	slog.Info("issued session", append(middleware.LogAttrs(ctx), "user_id", userID, "jti", claims.ID)...)
	return token, exp, nil
}

func (s *SessionServiceImpl) Parse(tokenStr string) (domain.UserID, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	tok, err := parser.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.SigningKey, nil
	})
	if err != nil || !tok.Valid {
		return uuid.Nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return uuid.Nil, ErrMissingSubject
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}
