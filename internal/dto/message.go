package dto

import (
	"time"

	"talks/internal/domain"
)

type SendMessageRequest struct {
	Text  string `json:"text"`
	Image string `json:"image"`
}

type MessageView struct {
	ID         string    `json:"_id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"createdAt"`
}

func NewMessageView(m *domain.Message) MessageView {
	return MessageView{
		ID:         m.ID.String(),
		SenderID:   m.SenderID.String(),
		ReceiverID: m.ReceiverID.String(),
		Text:       m.Text,
		Image:      m.ImageURL,
		Read:       m.Read,
		CreatedAt:  m.CreatedAt,
	}
}

type MarkReadResponse struct {
	Message       string `json:"message"`
	ModifiedCount int64  `json:"modifiedCount"`
}
