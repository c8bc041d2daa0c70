package model

import (
	"time"
)

const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusAbandoned  = "abandoned"
)

type Session struct {
	ID             uint            `gorm:"primarykey" json:"id"`
	SessionID      string          `json:"session_id" gorm:"not null;uniqueIndex;size:64"`
	Status         string          `json:"status" gorm:"not null;default:'pending'"` // "pending", "in_progress", "completed", "abandoned"
	ElapsedSeconds int             `json:"elapsed_seconds"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"`
	Questions      []Question      `json:"questions,omitempty" gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE;"`
	Responses      []Response      `json:"responses,omitempty" gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE;"`
	Materials      []StudyMaterial `json:"materials,omitempty" gorm:"foreignKey:SessionID;references:SessionID;constraint:OnDelete:CASCADE;"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
