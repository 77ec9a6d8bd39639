package store

import (
	"context"

	"talks/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageStore struct{ db *gorm.DB }

func (s *Store) Messages() *MessageStore { return &MessageStore{db: s.DB} }

func (m *MessageStore) Create(ctx context.Context, msg *domain.Message) error {
	if msg.ID == uuid.Nil {
		msg.ID = uuid.New()
	}
	return m.db.WithContext(ctx).Create(msg).Error
}

// Conversation returns the messages exchanged between a and b in both
// directions, oldest first.
func (m *MessageStore) Conversation(ctx context.Context, a, b uuid.UUID) ([]domain.Message, error) {
	var out []domain.Message
	err := m.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", a, b, b, a).
		Order("created_at ASC").Order("id ASC").
		Find(&out).Error
	return out, err
}

// MarkRead flips every unread message from sender to receiver and reports how
// many rows changed.
func (m *MessageStore) MarkRead(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	res := m.db.WithContext(ctx).Model(&domain.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", senderID, receiverID, false).
		Update("read", true)
	return res.RowsAffected, res.Error
}

func (m *MessageStore) CountUnread(ctx context.Context, senderID, receiverID uuid.UUID) (int64, error) {
	var n int64
	err := m.db.WithContext(ctx).Model(&domain.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND read = ?", senderID, receiverID, false).
		Count(&n).Error
	return n, err
}
