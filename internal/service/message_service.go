package service

import (
	"context"

	"talks/internal/domain"
	"talks/internal/dto"
)

type MessageService interface {
	Contacts(ctx context.Context, userID domain.UserID) ([]dto.UserResponse, error)
	History(ctx context.Context, userID, peerID domain.UserID) ([]dto.MessageView, error)
	Send(ctx context.Context, senderID, receiverID domain.UserID, req dto.SendMessageRequest) (*dto.MessageView, error)
	MarkRead(ctx context.Context, readerID, senderID domain.UserID) (*dto.MarkReadResponse, error)
}

// Notifier delivers a push event to a user's live channel, if any. The
// presence lookup is folded in: Notify reports false when the user has no
// channel (or the frame was dropped) and callers branch on that result.
type Notifier interface {
	Notify(userID domain.UserID, event string, data any) bool
}
