package models

import "time"

// ChatMessage is one turn between a user and a counterparty persona.
type ChatMessage struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         string    `gorm:"size:64;not null;index:idx_chat_messages_thread,priority:1" json:"user_id"`
	CounterpartyID string    `gorm:"size:64;not null;index:idx_chat_messages_thread,priority:2" json:"counterparty_id"`
	Role           string    `gorm:"size:16;not null" json:"role"` // user, assistant, system
	Content        string    `gorm:"type:text" json:"content"`
	ResultID       *string   `gorm:"size:36" json:"result_id,omitempty"`
	CreatedAt      time.Time `gorm:"index:idx_chat_messages_thread,priority:3" json:"created_at"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}
