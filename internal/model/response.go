package model

import (
	"time"
)

// Response is a committed answer. The unique index keeps at most one
// response per question of a session.
type Response struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	SessionID       string    `json:"session_id" gorm:"not null;size:64;uniqueIndex:idx_response_session_question"`
	QuestionKey     string    `json:"question_key" gorm:"not null;size:64;uniqueIndex:idx_response_session_question"`
	Position        int       `json:"position" gorm:"not null"`
	TranscribedText string    `json:"transcribed_text" gorm:"type:text"`
	Score           int       `json:"score" gorm:"not null"`
	Feedback        string    `json:"feedback,omitempty" gorm:"type:text"`
	Strengths       string    `json:"strengths,omitempty" gorm:"type:text"`    // newline separated
	Improvements    string    `json:"improvements,omitempty" gorm:"type:text"` // newline separated
	CreatedAt       time.Time `json:"created_at"`
}
