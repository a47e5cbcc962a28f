package models

import (
	"time"

	"gorm.io/datatypes"
)

// TurnLog is an append-only audit row written after each committed turn.
type TurnLog struct {
	ID          string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	InterviewID string         `gorm:"column:interview_id;type:text;index" json:"interview_id"`
	UserID      string         `gorm:"column:user_id;type:text;index" json:"user_id"`
	Kind        string         `gorm:"column:kind;type:text" json:"kind"`     // start|skip|clarification|substantive
	Action      string         `gorm:"column:action;type:text" json:"action"` // ask|proceed|end, empty for clarifications
	Source      string         `gorm:"column:source;type:text" json:"source"` // none|questions|model|fallback
	Answer      string         `gorm:"column:answer;type:text" json:"answer"`
	Reply       string         `gorm:"column:reply;type:text" json:"reply"`
	Cursor      int            `gorm:"column:cursor;type:integer" json:"cursor"`
	Status      string         `gorm:"column:status;type:text" json:"status"`
	Metadata    datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	Timestamp   time.Time      `gorm:"column:timestamp;type:timestamptz;index" json:"timestamp"`
}

func (TurnLog) TableName() string { return "turn_logs" }
