package service

import (
	"context"

	"talks/internal/domain"
)

type EmailService interface {
	SendCode(ctx context.Context, to string, kind domain.ChallengeKind, code string) error
	SendPasswordReset(ctx context.Context, to, name, link string) error
	SendPasswordChanged(ctx context.Context, to, name string) error
}
