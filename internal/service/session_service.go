package service

import (
	"context"
	"time"

	"talks/internal/domain"
)

type SessionService interface {
	Issue(ctx context.Context, userID domain.UserID) (token string, expiresAt time.Time, err error)
	Parse(token string) (domain.UserID, error)
	TTL() time.Duration
}
