package models

import (
	"time"

	"gorm.io/datatypes"
)

type ConversationLog struct {
	ID        string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SessionID string         `gorm:"column:session_id;type:text;index" json:"session_id"`
	Role      string         `gorm:"column:role;type:text" json:"role"` // "user" | "assistant"
	Content   string         `gorm:"column:content;type:text" json:"content"`
	Timestamp time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"` // extracted-field snapshot for user turns
}

func (ConversationLog) TableName() string { return "conversation_logs" }
