package model

import (
	"time"
)

type StudyMaterial struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	SessionID   string    `json:"session_id" gorm:"not null;size:64;index"`
	FileName    string    `json:"file_name" gorm:"not null"`
	ObjectKey   string    `json:"object_key" gorm:"not null;uniqueIndex"`
	ContentType string    `json:"content_type" gorm:"not null"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}
