package model

import (
	"time"
)

// Question is a session-scoped copy of an issued question.
type Question struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	SessionID      string    `json:"session_id" gorm:"not null;size:64;uniqueIndex:idx_question_session_key"`
	QuestionKey    string    `json:"question_key" gorm:"not null;size:64;uniqueIndex:idx_question_session_key"`
	Text           string    `json:"text" gorm:"type:text;not null"`
	Type           string    `json:"type" gorm:"not null"`       // "conceptual", "analytical", "factual", "application"
	Difficulty     string    `json:"difficulty" gorm:"not null"` // "basic", "intermediate", "advanced"
	OrderInSession int       `json:"order_in_session" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}
