package domain

import "time"

type Message struct {
	ID         MessageID `gorm:"type:uuid;primaryKey" db:"id"`
	SenderID   UserID    `gorm:"type:uuid;not null;index:ix_messages_pair,priority:1" db:"sender_id"`
	ReceiverID UserID    `gorm:"type:uuid;not null;index:ix_messages_pair,priority:2" db:"receiver_id"`
	Text       string    `gorm:"type:text;not null;default:''" db:"text"`
	ImageURL   string    `gorm:"type:text;not null;default:''" db:"image_url"`
	Read       bool      `gorm:"not null;default:false" db:"read"`
	CreatedAt  time.Time `gorm:"not null;index:ix_messages_created" db:"created_at"`
}

func (Message) TableName() string { return "messages" }
