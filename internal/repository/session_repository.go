package repository

import (
	"time"

	"github.com/lshigami/vivavoce/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SessionRepository interface {
	Create(session *model.Session) error
	FindBySessionID(sessionID string) (*model.Session, error)
	FindBySessionIDWithDetails(sessionID string) (*model.Session, error)
	UpdateStatus(sessionID, status string) error
	MarkCompleted(sessionID string, elapsedSeconds int, completedAt time.Time) error
	CompleteWithResponses(sessionID string, elapsedSeconds int, completedAt time.Time, responses []model.Response) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *model.Session) error {
	return r.db.Create(session).Error
}

func (r *sessionRepository) FindBySessionID(sessionID string) (*model.Session, error) {
	var session model.Session
	if err := r.db.Where("session_id = ?", sessionID).First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) FindBySessionIDWithDetails(sessionID string) (*model.Session, error) {
	var session model.Session
	err := r.db.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.order_in_session ASC")
		}).
		Preload("Responses", func(db *gorm.DB) *gorm.DB {
			return db.Order("responses.position ASC")
		}).
		Preload("Materials", func(db *gorm.DB) *gorm.DB {
			return db.Order("study_materials.id ASC")
		}).
		Where("session_id = ?", sessionID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateStatus returns gorm.ErrRecordNotFound when no session matches.
func (r *sessionRepository) UpdateStatus(sessionID, status string) error {
	res := r.db.Model(&model.Session{}).Where("session_id = ?", sessionID).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *sessionRepository) MarkCompleted(sessionID string, elapsedSeconds int, completedAt time.Time) error {
	return markCompleted(r.db, sessionID, elapsedSeconds, completedAt)
}

// CompleteWithResponses stores any responses not yet written and marks the
// session completed in one transaction. Rows already stored are kept as is.
func (r *sessionRepository) CompleteWithResponses(sessionID string, elapsedSeconds int, completedAt time.Time, responses []model.Response) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(responses) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&responses).Error; err != nil {
				return err
			}
		}
		return markCompleted(tx, sessionID, elapsedSeconds, completedAt)
	})
}

func markCompleted(db *gorm.DB, sessionID string, elapsedSeconds int, completedAt time.Time) error {
	res := db.Model(&model.Session{}).Where("session_id = ?", sessionID).Updates(map[string]interface{}{
		"status":          model.SessionStatusCompleted,
		"elapsed_seconds": elapsedSeconds,
		"completed_at":    completedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
