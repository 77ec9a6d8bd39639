package service

import (
	"context"
	"time"

	"talks/internal/domain"
)

type VerifyResult int

const (
	VerifyOK VerifyResult = iota
	// VerifyNone: no outstanding challenge of the requested kind.
	VerifyNone
	VerifyExpired
	VerifyMismatch
)

func (r VerifyResult) String() string {
	switch r {
	case VerifyOK:
		return "ok"
	case VerifyNone:
		return "none"
	case VerifyExpired:
		return "expired"
	case VerifyMismatch:
		return "mismatch"
	default:
		return "unknown"
	}
}

type CodeEngine interface {
	IssueCode(ctx context.Context, user *domain.User, kind domain.ChallengeKind) (string, error)
	VerifyCode(user *domain.User, kind domain.ChallengeKind, submitted string, now time.Time) VerifyResult
	ConsumeCode(ctx context.Context, user *domain.User) error

	IssueResetToken(ctx context.Context, email string) error
	LookupResetToken(ctx context.Context, token string) (*domain.User, error)
	ConsumeResetToken(ctx context.Context, token, newPassword string) error
}
