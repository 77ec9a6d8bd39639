package impl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"talks/internal/domain"
	"talks/internal/dto"
	"talks/internal/events"
	"talks/internal/observability/metrics"
	"talks/internal/observability/middleware"
	"talks/internal/service"
	"talks/internal/store"

	"github.com/google/uuid"
)

const msgMarkedRead = "Messages marked as read"

type MessageServiceImpl struct {
	store    *store.Store
	assets   service.AssetUploader
	notifier service.Notifier

	mu   sync.Mutex
	last time.Time
	now  func() time.Time
}

func NewMessageServiceImpl(st *store.Store, assets service.AssetUploader, notifier service.Notifier) *MessageServiceImpl {
	return &MessageServiceImpl{
		store:    st,
		assets:   assets,
		notifier: notifier,
		now:      time.Now,
	}
}

// nextTimestamp hands out strictly increasing microsecond timestamps so that
// history order matches send order within the process.
func (m *MessageServiceImpl) nextTimestamp() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.now().UTC().Truncate(time.Microsecond)
	if !t.After(m.last) {
		t = m.last.Add(time.Microsecond)
	}
	m.last = t
	return t
}

func (m *MessageServiceImpl) Contacts(ctx context.Context, userID domain.UserID) ([]dto.UserResponse, error) {
	users, err := m.store.Users().ListExcept(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, dto.NewUserResponse(&users[i]))
	}
	return out, nil
}

func (m *MessageServiceImpl) History(ctx context.Context, userID, peerID domain.UserID) ([]dto.MessageView, error) {
	msgs, err := m.store.Messages().Conversation(ctx, userID, peerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MessageView, 0, len(msgs))
	for i := range msgs {
		out = append(out, dto.NewMessageView(&msgs[i]))
	}
	return out, nil
}

func (m *MessageServiceImpl) Send(ctx context.Context, senderID, receiverID domain.UserID, r dto.SendMessageRequest) (*dto.MessageView, error) {
	image := strings.TrimSpace(r.Image)
	if strings.TrimSpace(r.Text) == "" && image == "" {
		return nil, domain.ErrEmptyMessage
	}

	if _, err := m.store.Users().GetByID(ctx, receiverID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}

	var imageURL string
	if image != "" {
		data, ct, err := decodeImage(image)
		if err != nil {
			return nil, err
		}
		key := fmt.Sprintf("messages/%s/%s%s", senderID, uuid.NewString(), imageExt[ct])
		imageURL, err = m.assets.Upload(ctx, key, ct, data)
		if err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
	}

	msg := &domain.Message{
		ID:         uuid.New(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       r.Text,
		ImageURL:   imageURL,
		Read:       false,
		CreatedAt:  m.nextTimestamp(),
	}
	if err := m.store.Messages().Create(ctx, msg); err != nil {
		return nil, err
	}
	metrics.MessagesSentTotal.WithLabelValues(messageKind(msg)).Inc()

	view := dto.NewMessageView(msg)
	if m.notifier.Notify(receiverID, events.NewMessage, view) {
		slog.Debug("message pushed", append(middleware.LogAttrs(ctx),
			"message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)...)
	} else {
		// offline receivers pick it up from history
		slog.Debug("message stored for offline receiver", append(middleware.LogAttrs(ctx),
			"message_id", msg.ID, "sender_id", senderID, "receiver_id", receiverID)...)
	}
	return &view, nil
}

// MarkRead flips every unread message sent by senderID to readerID and tells
// the sender, even when nothing changed.
func (m *MessageServiceImpl) MarkRead(ctx context.Context, readerID, senderID domain.UserID) (*dto.MarkReadResponse, error) {
	n, err := m.store.Messages().MarkRead(ctx, senderID, readerID)
	if err != nil {
		return nil, err
	}
	metrics.MessagesReadTotal.Add(float64(n))

	m.notifier.Notify(senderID, events.MessagesRead, events.MessagesReadPayload{
		ReaderID:     readerID.String(),
		MessageCount: n,
	})
	return &dto.MarkReadResponse{Message: msgMarkedRead, ModifiedCount: n}, nil
}

func messageKind(msg *domain.Message) string {
	switch {
	case msg.Text != "" && msg.ImageURL != "":
		return "text_image"
	case msg.ImageURL != "":
		return "image"
	default:
		return "text"
	}
}
